package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:u-1", Keys.User("u-1"))
	assert.Equal(t, "user:account:alice", Keys.UserAccount("alice"))
	assert.Equal(t, "session:tok", Keys.Session("tok"))
	assert.Equal(t, "session:revoked:tok", Keys.SessionRevoked("tok"))
	assert.Equal(t, "appointment_slots:d-1:2024-06-01", Keys.AppointmentSlots("d-1", "2024-06-01"))
	assert.Equal(t, "departments:list:page1:size20", Keys.DepartmentList(1, 20))
	assert.Equal(t, "rate_limit:1.2.3.4:/api/v1/auth/login", Keys.RateLimit("1.2.3.4", "/api/v1/auth/login"))
}

func TestDisabledCacheIsSafe(t *testing.T) {
	c := &Cache{}

	var out string
	assert.False(t, c.Get(context.Background(), "k", &out))
	assert.NoError(t, c.Set(context.Background(), "k", "v", Short))
	assert.NoError(t, c.Delete(context.Background(), "k"))
	assert.False(t, c.Exists(context.Background(), "k"))

	n, err := c.DeleteByPattern(context.Background(), "k*")
	assert.NoError(t, err)
	assert.Zero(t, n)

	_, err = c.Increment(context.Background(), "k", 1)
	assert.Error(t, err)
}
