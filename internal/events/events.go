// Package events emits domain events after classification and registry state
// changes commit. Delivery is best effort: failures are logged, never returned.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/JaimeStill/attest/pkg/messaging"
)

// Type names a domain event. It doubles as the subject suffix.
type Type string

const (
	DefinitionRegistered Type = "definition.registered"
	DefinitionReplaced   Type = "definition.replaced"
	DefinitionToggled    Type = "definition.toggled"
	DefinitionDeleted    Type = "definition.deleted"
	VerifierAdded        Type = "definition.verifier_added"
	VerifierUpdated      Type = "definition.verifier_updated"

	ClassificationOnboarded Type = "classification.onboarded"
	ClassificationDecided   Type = "classification.decided"
	ClassificationFinalized Type = "classification.finalized"
	AccessRoutesUpdated     Type = "classification.access_routes_updated"

	ObjectRegistered Type = "object.registered"
)

// Event describes a committed state change.
type Event struct {
	Type          Type              `json:"type"`
	TypeName      string            `json:"type_name,omitempty"`
	ObjectAddress string            `json:"object_address,omitempty"`
	Actor         string            `json:"actor,omitempty"`
	Attributes    map[string]string `json:"attributes,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
}

// Publisher emits events.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type stream struct {
	msg    messaging.System
	prefix string
	logger *slog.Logger
}

// New returns a Publisher that writes each event to "<prefix>.<type>" on msg.
// A nil msg yields a Publisher that only logs.
func New(msg messaging.System, prefix string, logger *slog.Logger) Publisher {
	if prefix == "" {
		prefix = "attest"
	}
	return &stream{
		msg:    msg,
		prefix: prefix,
		logger: logger.With("system", "events"),
	}
}

func (s *stream) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}

	if s.msg == nil {
		s.logger.Debug("event", "type", e.Type, "type_name", e.TypeName, "object", e.ObjectAddress)
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("event marshal failed", "type", e.Type, "error", err)
		return
	}

	subject := s.prefix + "." + string(e.Type)
	if err := s.msg.Publish(ctx, subject, data); err != nil {
		s.logger.Error("event publish failed", "subject", subject, "error", err)
	}
}

// Noop discards every event.
func Noop() Publisher {
	return noop{}
}

type noop struct{}

func (noop) Publish(context.Context, Event) {}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every recorded event in order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
