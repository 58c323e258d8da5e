package services

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"isuku-backend/internal/models"

	"firebase.google.com/go/v4/messaging"
)

// DeviceTokens looks up and prunes the push tokens of collectors.
type DeviceTokens interface {
	FCMTokensForCollector(ctx context.Context, collectorID string) ([]string, error)
	DeleteFCMToken(ctx context.Context, token string) error
}

// ScheduleNotifier pushes schedule assignments to collectors' devices. A nil
// *ScheduleNotifier is valid and sends nothing.
type ScheduleNotifier struct {
	fcm     *FCMService
	tokens  DeviceTokens
	isStale func(error) bool
}

func NewScheduleNotifier(fcm *FCMService, tokens DeviceTokens) *ScheduleNotifier {
	if fcm == nil {
		return nil
	}
	return &ScheduleNotifier{fcm: fcm, tokens: tokens, isStale: messaging.IsUnregistered}
}

// SchedulesAssigned tells each collector how many new schedules they got.
// Failures are logged; notification is best effort.
func (n *ScheduleNotifier) SchedulesAssigned(ctx context.Context, schedules []models.Schedule) {
	if n == nil || len(schedules) == 0 {
		return
	}

	byCollector := map[string][]models.Schedule{}
	for _, s := range schedules {
		if s.CollectorID == nil {
			continue
		}
		byCollector[*s.CollectorID] = append(byCollector[*s.CollectorID], s)
	}

	for collectorID, assigned := range byCollector {
		first := assigned[0]
		title := "New Collection Scheduled"
		body := fmt.Sprintf("%s on %s", first.RouteName, first.Date())
		if len(assigned) > 1 {
			title = "New Collections Scheduled"
			body = fmt.Sprintf("%d collections on %s starting %s", len(assigned), first.RouteName, first.Date())
		}
		data := map[string]string{
			"type":        "schedules_assigned",
			"route_id":    first.RouteID,
			"schedule_id": first.ID,
			"count":       strconv.Itoa(len(assigned)),
		}
		n.send(ctx, collectorID, title, body, data)
	}
}

func (n *ScheduleNotifier) send(ctx context.Context, collectorID, title, body string, data map[string]string) {
	tokens, err := n.tokens.FCMTokensForCollector(ctx, collectorID)
	if err != nil {
		log.Printf("⚠️  Failed to load FCM tokens for collector %s: %v", collectorID, err)
		return
	}
	if len(tokens) == 0 {
		log.Printf("   ℹ️  Collector %s has no registered devices", collectorID)
		return
	}

	failed, err := n.fcm.SendMulticast(ctx, tokens, title, body, data)
	if err != nil {
		log.Printf("⚠️  Failed to notify collector %s: %v", collectorID, err)
		return
	}
	for token, sendErr := range failed {
		if n.isStale(sendErr) {
			if err := n.tokens.DeleteFCMToken(ctx, token); err != nil {
				log.Printf("⚠️  Failed to delete stale FCM token: %v", err)
				continue
			}
			log.Printf("🧹 Removed unregistered FCM token for collector %s", collectorID)
		}
	}
}
