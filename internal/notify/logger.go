// BeaconWatch - Outbreak Signal Ingestion and Triage Backend
// Copyright 2026 GHI Watch
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/ghiwatch/beaconwatch

package notify

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/ghiwatch/beaconwatch/internal/logging"
)

// loggerAdapter bridges Watermill's logging interface onto the global zerolog
// logger. Watermill's trace level maps to zerolog debug.
type loggerAdapter struct {
	fields watermill.LogFields
}

func newLoggerAdapter() watermill.LoggerAdapter {
	return loggerAdapter{}
}

func (l loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logger := logging.Logger()
	l.emit(logger.Error().Err(err), msg, fields)
}

func (l loggerAdapter) Info(msg string, fields watermill.LogFields) {
	logger := logging.Logger()
	l.emit(logger.Info(), msg, fields)
}

func (l loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	logger := logging.Logger()
	l.emit(logger.Debug(), msg, fields)
}

func (l loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	logger := logging.Logger()
	l.emit(logger.Debug(), msg, fields)
}

func (l loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return loggerAdapter{fields: l.fields.Add(fields)}
}

func (l loggerAdapter) emit(event *zerolog.Event, msg string, fields watermill.LogFields) {
	for key, value := range l.fields {
		event = event.Interface(key, value)
	}
	for key, value := range fields {
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}
