// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

// Package notify publishes critical-signal notifications on an in-process
// Pub/Sub. Delivery to analysts (mail, chat, pager) is an external
// collaborator's concern; this package only raises the trigger.
package notify

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/ghiwatch/beaconwatch/internal/logging"
	"github.com/ghiwatch/beaconwatch/internal/metrics"
	"github.com/ghiwatch/beaconwatch/internal/models"
)

// TopicCriticalSignals carries newly persisted signals whose priority score
// crosses the notification threshold.
const TopicCriticalSignals = "signals.critical"

// Notifier is the fire-and-forget notification trigger. Publish failures are
// logged and counted but never fail an ingestion run.
type Notifier struct {
	pubsub *gochannel.GoChannel
}

// NewNotifier creates a notifier backed by an in-process Pub/Sub channel.
func NewNotifier() *Notifier {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, newLoggerAdapter())

	return &Notifier{pubsub: pubsub}
}

// NotifyCriticalSignal publishes the signal on the critical topic. The
// payload is the JSON-encoded signal; the event id travels in the metadata
// so subscribers can correlate without decoding.
func (n *Notifier) NotifyCriticalSignal(signal *models.Signal) {
	payload, err := json.Marshal(signal)
	if err != nil {
		logging.Warn().Err(err).Str("beacon_event_id", signal.BeaconEventID).Msg("Failed to encode critical signal notification")
		return
	}

	msg := message.NewMessage(uuid.NewString(), payload)
	msg.Metadata.Set("beacon_event_id", signal.BeaconEventID)

	if err := n.pubsub.Publish(TopicCriticalSignals, msg); err != nil {
		logging.Warn().Err(err).Str("beacon_event_id", signal.BeaconEventID).Msg("Failed to publish critical signal notification")
		return
	}

	metrics.NotificationsPublished.Inc()
	logging.Info().Str("beacon_event_id", signal.BeaconEventID).Msg("Critical signal notification published")
}

// Subscribe returns the stream of critical-signal messages. The subscription
// lives until ctx is canceled or the notifier is closed.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan *message.Message, error) {
	return n.pubsub.Subscribe(ctx, TopicCriticalSignals)
}

// Close shuts the Pub/Sub down, closing all subscriber channels.
func (n *Notifier) Close() error {
	return n.pubsub.Close()
}

// DeliveryLogger consumes the critical topic and logs each notification. It
// stands in for the external delivery collaborator and doubles as the
// liveness proof that the trigger fires. Implements suture.Service.
type DeliveryLogger struct {
	notifier *Notifier
}

// NewDeliveryLogger creates the logging subscriber.
func NewDeliveryLogger(notifier *Notifier) *DeliveryLogger {
	return &DeliveryLogger{notifier: notifier}
}

// Serve consumes notifications until the context is canceled or the
// notifier closes.
func (d *DeliveryLogger) Serve(ctx context.Context) error {
	messages, err := d.notifier.Subscribe(ctx)
	if err != nil {
		return err
	}

	for msg := range messages {
		var signal models.Signal
		if err := json.Unmarshal(msg.Payload, &signal); err != nil {
			logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Malformed critical signal notification")
			msg.Ack()
			continue
		}

		event := logging.Info().
			Str("beacon_event_id", signal.BeaconEventID).
			Str("disease", signal.Disease).
			Str("country", signal.Country)
		if signal.PriorityScore != nil {
			event = event.Float64("priority_score", *signal.PriorityScore)
		}
		event.Msg("Critical signal requires triage")

		msg.Ack()
	}

	return ctx.Err()
}

// String names the service in supervisor logs.
func (d *DeliveryLogger) String() string {
	return "notify-delivery-logger"
}
