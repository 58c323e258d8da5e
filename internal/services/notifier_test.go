package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"isuku-backend/internal/models"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUnregistered = errors.New("registration-token-not-registered")

type fakeMulticaster struct {
	sent []*messaging.MulticastMessage
	fail map[string]bool
}

func (f *fakeMulticaster) SendEachForMulticast(_ context.Context, m *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.sent = append(f.sent, m)
	resp := &messaging.BatchResponse{}
	for _, tok := range m.Tokens {
		if f.fail[tok] {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: errUnregistered})
			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true, MessageID: "m-" + tok})
	}
	return resp, nil
}

type fakeTokens struct {
	byCollector map[string][]string
	deleted     []string
}

func (f *fakeTokens) FCMTokensForCollector(_ context.Context, collectorID string) ([]string, error) {
	return f.byCollector[collectorID], nil
}

func (f *fakeTokens) DeleteFCMToken(_ context.Context, token string) error {
	f.deleted = append(f.deleted, token)
	return nil
}

func newTestNotifier(mc *fakeMulticaster, tokens *fakeTokens) *ScheduleNotifier {
	return &ScheduleNotifier{
		fcm:     &FCMService{client: mc},
		tokens:  tokens,
		isStale: func(err error) bool { return errors.Is(err, errUnregistered) },
	}
}

func schedule(id, collectorID string, day int) models.Schedule {
	s := models.Schedule{
		ID:            id,
		RouteID:       "r1",
		RouteName:     "Kacyiru North",
		ScheduledDate: time.Date(2024, 6, day, 0, 0, 0, 0, time.UTC),
	}
	if collectorID != "" {
		s.CollectorID = &collectorID
	}
	return s
}

func TestSchedulesAssigned_GroupsByCollector(t *testing.T) {
	mc := &fakeMulticaster{}
	tokens := &fakeTokens{byCollector: map[string][]string{"col-1": {"tok-a", "tok-b"}}}
	n := newTestNotifier(mc, tokens)

	n.SchedulesAssigned(context.Background(), []models.Schedule{
		schedule("s1", "col-1", 10),
		schedule("s2", "col-1", 17),
		schedule("s3", "", 24),
	})

	require.Len(t, mc.sent, 1)
	msg := mc.sent[0]
	assert.Equal(t, []string{"tok-a", "tok-b"}, msg.Tokens)
	assert.Equal(t, "New Collections Scheduled", msg.Notification.Title)
	assert.Equal(t, "2 collections on Kacyiru North starting 2024-06-10", msg.Notification.Body)
	assert.Equal(t, "2", msg.Data["count"])
	assert.Equal(t, "schedules_assigned", msg.Data["type"])
}

func TestSchedulesAssigned_PrunesStaleTokens(t *testing.T) {
	mc := &fakeMulticaster{fail: map[string]bool{"tok-old": true}}
	tokens := &fakeTokens{byCollector: map[string][]string{"col-1": {"tok-old", "tok-new"}}}
	n := newTestNotifier(mc, tokens)

	n.SchedulesAssigned(context.Background(), []models.Schedule{schedule("s1", "col-1", 10)})

	assert.Equal(t, []string{"tok-old"}, tokens.deleted)
	assert.Equal(t, "Kacyiru North on 2024-06-10", mc.sent[0].Notification.Body)
}

func TestSchedulesAssigned_NilNotifier(t *testing.T) {
	var n *ScheduleNotifier
	assert.NotPanics(t, func() {
		n.SchedulesAssigned(context.Background(), []models.Schedule{schedule("s1", "col-1", 10)})
	})
	assert.Nil(t, NewScheduleNotifier(nil, &fakeTokens{}))
}
