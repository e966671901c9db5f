package vms

import (
	"io"

	internalaudit "github.com/Code4Bharat1/VMS-BACKEND/internal/audit"
	"github.com/sirupsen/logrus"
)

// AuditEvent is one activity-log entry.
type AuditEvent = internalaudit.Event

// AuditSink receives audit events from the dispatcher goroutine.
type AuditSink = internalaudit.Sink

// NoOpSink discards events.
type NoOpSink = internalaudit.NoOpSink

// ChannelSink forwards events to a buffered channel.
type ChannelSink = internalaudit.ChannelSink

// JSONWriterSink writes one JSON object per event.
type JSONWriterSink = internalaudit.JSONWriterSink

// LogrusSink writes events as structured log entries.
type LogrusSink = internalaudit.LogrusSink

// NewChannelSink returns a sink backed by a channel of size buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalaudit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a sink writing JSON lines to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalaudit.NewJSONWriterSink(w)
}

// NewLogrusSink returns a sink logging through logger.
func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	return internalaudit.NewLogrusSink(logger)
}
