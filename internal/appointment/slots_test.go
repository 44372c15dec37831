package appointment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTimeSlotEnumeration(t *testing.T) {
	assert.Len(t, TimeSlots, 12)
	assert.Equal(t, "09:00", TimeSlots[0])
	assert.Equal(t, "16:30", TimeSlots[11])

	assert.True(t, ValidSlot("09:30"))
	assert.True(t, ValidSlot("14:00"))
	assert.False(t, ValidSlot("12:00"))
	assert.False(t, ValidSlot("9:00"))
	assert.False(t, ValidSlot(""))
}

func TestAvailableSlotsSubtraction(t *testing.T) {
	free := availableSlots([]string{"09:00", "14:30", "16:30"})

	assert.Len(t, free, 9)
	assert.NotContains(t, free, "09:00")
	assert.NotContains(t, free, "14:30")
	assert.NotContains(t, free, "16:30")
	assert.Equal(t, "09:30", free[0])
}

func TestAvailableSlotsFullyBooked(t *testing.T) {
	free := availableSlots(TimeSlots)
	assert.Empty(t, free)
}

func TestAvailableSlotsPreservesOrder(t *testing.T) {
	free := availableSlots(nil)
	assert.Equal(t, TimeSlots, free)
}
