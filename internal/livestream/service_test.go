package livestream

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/internal/realtime"
	"github.com/tcmclinic/telemed/pkg/cache"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

type recordingBroadcaster struct {
	messages []*realtime.Message
}

func (b *recordingBroadcaster) BroadcastToAll(msg *realtime.Message) int {
	b.messages = append(b.messages, msg)
	return 1
}

type staticHosts struct {
	user *types.User
}

func (h *staticHosts) GetByID(ctx context.Context, id string) (*types.User, error) {
	if h.user == nil || h.user.ID != id {
		return nil, types.NewNotFoundError("user not found")
	}
	return h.user, nil
}

func setupTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *recordingBroadcaster) {
	mockDB, dbMock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("error")
	disabled, err := cache.New("", log)
	require.NoError(t, err)

	broadcaster := &recordingBroadcaster{}
	hosts := &staticHosts{user: &types.User{ID: "host-1", Name: "Dr. Chen", Role: types.RoleDoctor}}
	svc := NewService(log, NewRepository(database.NewWithDB(mockDB, log), log), disabled, broadcaster, hosts)
	return svc, dbMock, broadcaster
}

func streamRow(s *types.LiveStream) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "host_id", "host_name", "title", "description",
		"status", "scheduled_at", "started_at", "ended_at", "created_at",
	})
	rows.AddRow(s.ID, s.HostID, s.HostName, s.Title, s.Description,
		s.Status, s.ScheduledAt, s.StartedAt, s.EndedAt, s.CreatedAt)
	return rows
}

func storedStream(status types.LiveStreamStatus) *types.LiveStream {
	return &types.LiveStream{
		ID:          "stream-1",
		HostID:      "host-1",
		HostName:    "Dr. Chen",
		Title:       "Seasonal wellness Q&A",
		Status:      status,
		ScheduledAt: time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC),
		CreatedAt:   time.Now(),
	}
}

func hostPrincipal() *types.Principal {
	return &types.Principal{UserID: "host-1", Role: types.RoleDoctor}
}

func TestSchedule(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectExec("INSERT INTO live_streams").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stream, err := svc.Schedule(context.Background(), "host-1", &types.CreateLiveStreamRequest{
		Title:       "Seasonal wellness Q&A",
		ScheduledAt: time.Date(2026, 9, 10, 19, 0, 0, 0, time.UTC),
	})

	require.NoError(t, err)
	assert.Equal(t, "host-1", stream.HostID)
	assert.Equal(t, "Dr. Chen", stream.HostName)
	assert.Equal(t, types.StreamScheduled, stream.Status)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestScheduleValidation(t *testing.T) {
	svc, _, _ := setupTestService(t)

	tests := []struct {
		name string
		req  *types.CreateLiveStreamRequest
	}{
		{"missing title", &types.CreateLiveStreamRequest{ScheduledAt: time.Now()}},
		{"missing scheduled_at", &types.CreateLiveStreamRequest{Title: "Q&A"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Schedule(context.Background(), "host-1", tt.req)
			require.Error(t, err)
			assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
		})
	}
}

func TestStartBroadcastsAnnouncement(t *testing.T) {
	svc, dbMock, broadcaster := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamScheduled)))
	dbMock.ExpectExec("UPDATE live_streams SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stream, err := svc.Start(context.Background(), hostPrincipal(), "stream-1")

	require.NoError(t, err)
	assert.Equal(t, types.StreamLive, stream.Status)
	require.NotNil(t, stream.StartedAt)
	require.Len(t, broadcaster.messages, 1)
	assert.Equal(t, realtime.TypeLiveStreamStarted, broadcaster.messages[0].Type)
	assert.Equal(t, "stream-1", broadcaster.messages[0].StreamID)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestStartByStrangerForbidden(t *testing.T) {
	svc, dbMock, broadcaster := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamScheduled)))

	_, err := svc.Start(context.Background(), &types.Principal{UserID: "other-doc", Role: types.RoleDoctor}, "stream-1")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindForbidden, types.AsAppError(err).Kind)
	assert.Empty(t, broadcaster.messages)
}

func TestStartByAdminAllowed(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamScheduled)))
	dbMock.ExpectExec("UPDATE live_streams SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	_, err := svc.Start(context.Background(), &types.Principal{UserID: "admin-1", Role: types.RoleAdmin}, "stream-1")

	require.NoError(t, err)
}

func TestStartRequiresScheduled(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamEnded)))
	dbMock.ExpectExec("UPDATE live_streams SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := svc.Start(context.Background(), hostPrincipal(), "stream-1")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
}

func TestEndBroadcastsAnnouncement(t *testing.T) {
	svc, dbMock, broadcaster := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamLive)))
	dbMock.ExpectExec("UPDATE live_streams SET status").
		WillReturnResult(sqlmock.NewResult(0, 1))

	stream, err := svc.End(context.Background(), hostPrincipal(), "stream-1")

	require.NoError(t, err)
	assert.Equal(t, types.StreamEnded, stream.Status)
	require.NotNil(t, stream.EndedAt)
	require.Len(t, broadcaster.messages, 1)
	assert.Equal(t, realtime.TypeLiveStreamEnded, broadcaster.messages[0].Type)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestJoinRequiresLiveStream(t *testing.T) {
	svc, dbMock, broadcaster := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamScheduled)))

	_, err := svc.Join(context.Background(), "stream-1")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindValidation, types.AsAppError(err).Kind)
	assert.Empty(t, broadcaster.messages)
}

func TestJoinWithCachingDisabled(t *testing.T) {
	svc, dbMock, broadcaster := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnRows(streamRow(storedStream(types.StreamLive)))

	count, err := svc.Join(context.Background(), "stream-1")

	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, broadcaster.messages)
}

func TestGetUnknownStream(t *testing.T) {
	svc, dbMock, _ := setupTestService(t)

	dbMock.ExpectQuery("SELECT .+ FROM live_streams WHERE id").
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), "missing")

	require.Error(t, err)
	assert.Equal(t, types.ErrorKindNotFound, types.AsAppError(err).Kind)
}
