package audit

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Event is one activity log record.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Action    string            `json:"action"`
	Module    string            `json:"module"`
	ActorID   string            `json:"actor,omitempty"`
	ActorRole string            `json:"actor_role,omitempty"`
	TargetID  string            `json:"target_id,omitempty"`
	IP        string            `json:"ip_address,omitempty"`
	UserAgent string            `json:"user_agent,omitempty"`
	Success   bool              `json:"success"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"meta,omitempty"`
}

// Sink receives emitted audit events. Emit must not block for long; slow
// sinks belong behind a Dispatcher.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink drops audit events.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink writes audit events into a buffered channel.
type ChannelSink struct {
	events chan Event
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}

// LogrusSink logs each event as a structured entry. Failed events are
// logged at warn level.
type LogrusSink struct {
	logger logrus.FieldLogger
}

func NewLogrusSink(logger logrus.FieldLogger) *LogrusSink {
	return &LogrusSink{logger: logger}
}

func (s *LogrusSink) Emit(_ context.Context, event Event) {
	if s == nil || s.logger == nil {
		return
	}

	fields := logrus.Fields{
		"action":  event.Action,
		"module":  event.Module,
		"success": event.Success,
	}
	if event.ActorID != "" {
		fields["actor"] = event.ActorID
	}
	if event.ActorRole != "" {
		fields["actor_role"] = event.ActorRole
	}
	if event.TargetID != "" {
		fields["target_id"] = event.TargetID
	}
	if event.IP != "" {
		fields["ip"] = event.IP
	}
	if event.Error != "" {
		fields["error"] = event.Error
	}
	for k, v := range event.Metadata {
		fields["meta."+k] = v
	}

	entry := s.logger.WithFields(fields)
	if event.Success {
		entry.Info("audit")
		return
	}
	entry.Warn("audit")
}
