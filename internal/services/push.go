package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsNotifier pushes notifications through Apple Push Notification service
type APNsNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNsNotifier creates a token-authenticated APNs client from a .p8 key file
func NewAPNsNotifier(keyFile, keyID, teamID, topic string, production bool) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(keyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   keyID,
		TeamID:  teamID,
	})
	if production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: topic}, nil
}

func (n *APNsNotifier) Notify(ctx context.Context, deviceToken string, msg Notification) error {
	notification := &apns2.Notification{
		DeviceToken: deviceToken,
		Topic:       n.topic,
		Payload: payload.NewPayload().
			AlertTitle(msg.Title).
			AlertBody(msg.Body).
			Sound("default").
			Custom("eventId", msg.EventID),
	}

	res, err := n.client.PushWithContext(ctx, notification)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("push rejected: %d %s", res.StatusCode, res.Reason)
	}

	return nil
}

// LogNotifier only logs notifications. Used when APNs is not configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, deviceToken string, msg Notification) error {
	log.Info().
		Str("event_id", msg.EventID).
		Str("title", msg.Title).
		Str("body", msg.Body).
		Msg("Push notification (not delivered, APNs disabled)")
	return nil
}
