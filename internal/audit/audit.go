// Package audit records security-relevant actions. Entries are append-only:
// nothing in this package or its store can update or delete a written row.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/uptrace/bun"

	"starterkit.dev/internal/obs"
)

// Entry is one immutable audit record.
type Entry struct {
	bun.BaseModel `bun:"table:audit_logs,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	UserID     string    `bun:"user_id,nullzero" json:"user_id,omitempty"`
	Action     string    `bun:"action,notnull" json:"action"`
	Resource   string    `bun:"resource,notnull" json:"resource"`
	ResourceID string    `bun:"resource_id,nullzero" json:"resource_id,omitempty"`
	IPAddress  string    `bun:"ip_address,nullzero" json:"ip_address,omitempty"`
	UserAgent  string    `bun:"user_agent,nullzero" json:"user_agent,omitempty"`
	Details    string    `bun:"details,nullzero" json:"details,omitempty"`
	Status     string    `bun:"status,notnull" json:"status"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Store persists entries. Append is the only operation; there is deliberately
// no update or delete.
type Store interface {
	Append(ctx context.Context, entry *Entry) error
	List(ctx context.Context, limit int) ([]Entry, error)
}

// Recorder writes audit entries to the store and mirrors each one as a
// structured log line. Any component may hold a Recorder and append.
type Recorder struct {
	store Store
	now   func() time.Time
}

// Option configures Recorder.
type Option func(*Recorder)

// WithClock overrides the time source (useful for tests).
func WithClock(fn func() time.Time) Option {
	return func(r *Recorder) {
		if fn != nil {
			r.now = fn
		}
	}
}

// NewRecorder constructs a Recorder. A nil store keeps the log mirror only,
// which is how the seed CLI runs before the schema exists.
func NewRecorder(store Store, opts ...Option) *Recorder {
	r := &Recorder{store: store, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one entry, taking the actor and client metadata from the
// request context. Failures to persist are logged, never propagated: audit
// must not turn a succeeded operation into a failed one.
func (r *Recorder) Record(ctx context.Context, action, resource, resourceID, status string, details map[string]any) {
	if action == "" {
		return
	}
	if status == "" {
		status = "success"
	}

	entry := &Entry{
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Status:     status,
		CreatedAt:  r.now().UTC(),
	}
	if actor, ok := ActorFromContext(ctx); ok {
		entry.UserID = actor
	}
	if ip, ua, ok := ClientInfoFromContext(ctx); ok {
		entry.IPAddress = ip
		entry.UserAgent = ua
	}
	if len(details) > 0 {
		if data, err := json.Marshal(details); err == nil {
			entry.Details = string(data)
		}
	}

	if r.store != nil {
		if err := r.store.Append(ctx, entry); err != nil {
			obs.Error("audit append failed", map[string]any{"action": action, "error": err.Error()})
		}
	}

	fields := map[string]any{
		"type":     "audit",
		"action":   action,
		"resource": resource,
		"status":   status,
	}
	if entry.ResourceID != "" {
		fields["resource_id"] = entry.ResourceID
	}
	if entry.UserID != "" {
		fields["user_id"] = entry.UserID
	}
	if rid := RequestIDFromContext(ctx); rid != "" {
		fields["request_id"] = rid
	}
	obs.Info("audit", fields)
}

// List returns the most recent entries, newest first.
func (r *Recorder) List(ctx context.Context, limit int) ([]Entry, error) {
	if r.store == nil {
		return []Entry{}, nil
	}
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return r.store.List(ctx, limit)
}
