package notification

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tcmclinic/telemed/internal/realtime"
	"github.com/tcmclinic/telemed/pkg/database"
	"github.com/tcmclinic/telemed/pkg/logger"
	"github.com/tcmclinic/telemed/pkg/types"
)

type recordingPusher struct {
	sent      []*realtime.Message
	broadcast []*realtime.Message
	online    bool
}

func (p *recordingPusher) SendToUser(userID string, msg *realtime.Message) bool {
	p.sent = append(p.sent, msg)
	return p.online
}

func (p *recordingPusher) BroadcastToAll(msg *realtime.Message) int {
	p.broadcast = append(p.broadcast, msg)
	return 3
}

func setupTestService(t *testing.T) (*Service, sqlmock.Sqlmock, *recordingPusher) {
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })

	log := logger.New("error")
	pusher := &recordingPusher{online: true}
	svc := NewService(log, NewRepository(database.NewWithDB(mockDB, log), log), pusher)
	return svc, mock, pusher
}

func TestNotifyStoresAndPushes(t *testing.T) {
	svc, mock, pusher := setupTestService(t)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnResult(sqlmock.NewResult(0, 1))

	svc.Notify(context.Background(), &types.CreateNotificationRequest{
		UserID:  "user-1",
		Type:    types.NotifyAppointmentConfirmed,
		Title:   "Appointment confirmed",
		Content: "See you at 09:30",
	})

	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, pusher.sent, 1)
	assert.Equal(t, realtime.TypeNotification, pusher.sent[0].Type)
	assert.Equal(t, string(types.NotifyAppointmentConfirmed), pusher.sent[0].Kind)
}

func TestNotifySkipsPushWhenStoreFails(t *testing.T) {
	svc, mock, pusher := setupTestService(t)

	mock.ExpectExec("INSERT INTO notifications").
		WillReturnError(assert.AnError)

	svc.Notify(context.Background(), &types.CreateNotificationRequest{
		UserID: "user-1",
		Type:   types.NotifyAppointmentCancelled,
		Title:  "Appointment cancelled",
	})

	assert.Empty(t, pusher.sent)
}

func TestAnnounceBroadcasts(t *testing.T) {
	svc, _, pusher := setupTestService(t)

	reached := svc.Announce("Maintenance", "Offline at midnight")
	assert.Equal(t, 3, reached)
	require.Len(t, pusher.broadcast, 1)
	assert.Equal(t, realtime.TypeSystemAnnouncement, pusher.broadcast[0].Type)
}

func TestMarkReadScopedToOwner(t *testing.T) {
	svc, mock, _ := setupTestService(t)

	mock.ExpectExec("UPDATE notifications SET status = 'read'").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := svc.MarkRead(context.Background(), "user-2", "n-1")
	require.Error(t, err)
	assert.Equal(t, types.ErrorKindNotFound, types.AsAppError(err).Kind)
}

func TestUnreadCount(t *testing.T) {
	svc, mock, _ := setupTestService(t)

	mock.ExpectQuery("SELECT COUNT.+ FROM notifications").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}
