// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

package events

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

// NotificationSink delivers a payload to a connected user. Implementations
// must not block; delivery to an offline user is a no-op.
type NotificationSink interface {
	Notify(userID string, payload []byte)
}

// MatchNotification is the payload pushed to each participant of a new match.
type MatchNotification struct {
	Type        string    `json:"type"`
	OtherUserID string    `json:"other_user_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// Notifier consumes match events and pushes a notification to both
// participants through the sink.
type Notifier struct {
	bus    *Bus
	sink   NotificationSink
	logger zerolog.Logger
}

// NewNotifier creates a notifier. It does not subscribe until Serve runs.
func NewNotifier(bus *Bus, sink NotificationSink, logger zerolog.Logger) *Notifier {
	return &Notifier{
		bus:    bus,
		sink:   sink,
		logger: logger.With().Str("component", "notifier").Logger(),
	}
}

// Serve consumes match events until ctx is canceled or the bus closes.
func (n *Notifier) Serve(ctx context.Context) error {
	messages, err := n.bus.Subscribe(ctx, TopicMatch)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", TopicMatch, err)
	}

	n.logger.Info().Str("topic", TopicMatch).Msg("Match notifier started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			n.handle(msg)
		}
	}
}

// String identifies the notifier in supervisor logs.
func (n *Notifier) String() string {
	return "match-notifier"
}

func (n *Notifier) handle(msg *message.Message) {
	// Malformed payloads never become parseable. Ack them so they do not
	// redeliver forever.
	var evt MatchEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		n.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Failed to decode match event")
		msg.Ack()
		return
	}

	if err := evt.Validate(); err != nil {
		n.logger.Error().Err(err).Str("message_id", msg.UUID).Msg("Invalid match event")
		msg.Ack()
		return
	}

	n.notify(evt.UserID, evt.CandidateID, evt.Timestamp)
	n.notify(evt.CandidateID, evt.UserID, evt.Timestamp)
	msg.Ack()
}

func (n *Notifier) notify(userID, otherUserID string, ts time.Time) {
	payload, err := json.Marshal(MatchNotification{
		Type:        "match",
		OtherUserID: otherUserID,
		Timestamp:   ts,
	})
	if err != nil {
		n.logger.Error().Err(err).Str("user_id", userID).Msg("Failed to encode notification")
		return
	}

	n.sink.Notify(userID, payload)
}
