// Amora - Hybrid Compatibility Matching and Recommendation Engine
// Copyright 2026 P. Mahlen (pmahlen)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pmahlen/amora

// Package events carries interaction outcomes between the matching engine
// and its consumers over an in-process Watermill bus. Publishing is fire
// and forget so a slow or failed consumer never stalls a swipe.
package events

import (
	"context"
	"strconv"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/pmahlen/amora/internal/metrics"
	"github.com/pmahlen/amora/internal/profile"
)

const defaultChannelBuffer = 256

// Bus is the in-process event bus. It satisfies the matching engine's
// publisher contract and hands subscribers a raw message channel.
type Bus struct {
	pubsub *gochannel.GoChannel
	logger zerolog.Logger
}

// NewBus creates a bus backed by buffered in-memory channels. Subscribers
// only receive events published after they subscribe.
func NewBus(logger zerolog.Logger) *Bus {
	return NewBusWithBuffer(logger, defaultChannelBuffer)
}

// NewBusWithBuffer creates a bus with an explicit per-subscriber channel
// buffer. Zero or negative selects the default.
func NewBusWithBuffer(logger zerolog.Logger, buffer int) *Bus {
	if buffer <= 0 {
		buffer = defaultChannelBuffer
	}
	busLogger := logger.With().Str("component", "events").Logger()
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: int64(buffer),
	}, wmLogger{logger: busLogger})

	return &Bus{
		pubsub: pubsub,
		logger: busLogger,
	}
}

// PublishLike emits a like decision. A mutual like additionally emits a
// match event so notification consumers see both sides without decoding
// interaction payloads.
func (b *Bus) PublishLike(userID, candidateID string, isMatch, changedMind bool) {
	evt := NewInteractionEvent(TypeLike, userID, candidateID)
	evt.IsMatch = isMatch
	evt.ChangedMind = changedMind
	b.publish(evt)

	if isMatch {
		b.publish(NewMatchEvent(userID, candidateID))
	}
}

// PublishPass emits a pass decision.
func (b *Bus) PublishPass(userID, candidateID string, changedMind bool) {
	evt := NewInteractionEvent(TypePass, userID, candidateID)
	evt.ChangedMind = changedMind
	b.publish(evt)
}

// PublishSignal emits a preference learning signal.
func (b *Bus) PublishSignal(sig profile.InteractionSignal) {
	b.publish(NewSignalEvent(sig))
}

func (b *Bus) publish(evt Event) {
	topic := evt.Topic()

	if err := evt.Validate(); err != nil {
		metrics.RecordEventPublish(topic, err)
		b.logger.Error().Err(err).Str("topic", topic).Msg("Dropping invalid event")
		return
	}

	payload, err := json.Marshal(evt)
	if err != nil {
		metrics.RecordEventPublish(topic, err)
		b.logger.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("schema_version", strconv.Itoa(SchemaVersion))

	err = b.pubsub.Publish(topic, msg)
	metrics.RecordEventPublish(topic, err)
	if err != nil {
		b.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish event")
	}
}

// Subscribe returns a channel of messages for the topic. The channel closes
// when ctx is canceled or the bus shuts down.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down and closes all subscriber channels.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}

// wmLogger adapts zerolog to Watermill's logger interface. Watermill's INFO
// level is chatty for an in-process transport, so it maps to debug.
type wmLogger struct {
	logger zerolog.Logger
}

func (l wmLogger) Error(msg string, err error, fields watermill.LogFields) {
	wmFields(l.logger.Error().Err(err), fields).Msg(msg)
}

func (l wmLogger) Info(msg string, fields watermill.LogFields) {
	wmFields(l.logger.Debug(), fields).Msg(msg)
}

func (l wmLogger) Debug(msg string, fields watermill.LogFields) {
	wmFields(l.logger.Debug(), fields).Msg(msg)
}

func (l wmLogger) Trace(msg string, fields watermill.LogFields) {
	wmFields(l.logger.Trace(), fields).Msg(msg)
}

func (l wmLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	logger := l.logger
	for k, v := range fields {
		logger = logger.With().Interface(k, v).Logger()
	}
	return wmLogger{logger: logger}
}

func wmFields(evt *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	return evt
}
