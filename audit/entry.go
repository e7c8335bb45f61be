package audit

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAppendOnly is returned by every attempt to change or remove an entry.
	ErrAppendOnly = errors.New("SecurityViolation: audit log is append-only")
	// ErrNotFound is returned by Get for an unknown id.
	ErrNotFound = errors.New("audit entry not found")
	// ErrInvalidEntry is returned when an entry has an unknown action or target type.
	ErrInvalidEntry = errors.New("invalid audit entry")
	// ErrUnavailable wraps backend failures.
	ErrUnavailable = errors.New("audit store unavailable")
)

// Action is the closed set of audited operations.
type Action string

const (
	ActionLogin              Action = "LOGIN"
	ActionTokenRefresh       Action = "TOKEN_REFRESH"
	ActionCreateSubscription Action = "CREATE_SUBSCRIPTION"
	ActionUpdateSubscription Action = "UPDATE_SUBSCRIPTION"
	ActionDeleteSubscription Action = "DELETE_SUBSCRIPTION"
	ActionCancelSubscription Action = "CANCEL_SUBSCRIPTION"
	ActionRoleChange         Action = "ROLE_CHANGE"
	ActionCreateUser         Action = "CREATE_USER"
	ActionUpdateUser         Action = "UPDATE_USER"
	ActionDeleteUser         Action = "DELETE_USER"
	ActionSystemConfigChange Action = "SYSTEM_CONFIG_CHANGE"
	ActionBackupCreated      Action = "BACKUP_CREATED"
	ActionDataExport         Action = "DATA_EXPORT"
)

// Actions lists every valid Action.
var Actions = []Action{
	ActionLogin,
	ActionTokenRefresh,
	ActionCreateSubscription,
	ActionUpdateSubscription,
	ActionDeleteSubscription,
	ActionCancelSubscription,
	ActionRoleChange,
	ActionCreateUser,
	ActionUpdateUser,
	ActionDeleteUser,
	ActionSystemConfigChange,
	ActionBackupCreated,
	ActionDataExport,
}

// Valid reports whether a is a member of the enum.
func (a Action) Valid() bool {
	for _, candidate := range Actions {
		if a == candidate {
			return true
		}
	}
	return false
}

// TargetType classifies what an entry refers to.
type TargetType string

const (
	TargetUser         TargetType = "USER"
	TargetSubscription TargetType = "SUBSCRIPTION"
	TargetSystem       TargetType = "SYSTEM"
)

// Valid reports whether t is a member of the enum.
func (t TargetType) Valid() bool {
	switch t {
	case TargetUser, TargetSubscription, TargetSystem:
		return true
	}
	return false
}

// Entry is one immutable audit record.
type Entry struct {
	ID         string            `json:"id"`
	ActorID    string            `json:"actorId"`
	Action     Action            `json:"action"`
	TargetType TargetType        `json:"targetType"`
	TargetID   string            `json:"targetId,omitempty"`
	IP         string            `json:"ip,omitempty"`
	UserAgent  string            `json:"userAgent,omitempty"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	CreatedAt  time.Time         `json:"createdAt"`
}

// Validate checks the enum fields and the required actor.
func (e Entry) Validate() error {
	if e.ActorID == "" {
		return errors.Join(ErrInvalidEntry, errors.New("actor id is required"))
	}
	if !e.Action.Valid() {
		return errors.Join(ErrInvalidEntry, errors.New("unknown action "+string(e.Action)))
	}
	if !e.TargetType.Valid() {
		return errors.Join(ErrInvalidEntry, errors.New("unknown target type "+string(e.TargetType)))
	}
	return nil
}

// Page bounds list queries.
type Page struct {
	Limit  int
	Offset int
}

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Normalize clamps the limit to 1..200 (default 50) and the offset to >= 0.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Limit > maxPageLimit {
		p.Limit = maxPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// Store persists entries. Every query returns newest first, ordered by
// created_at then id, both descending.
type Store interface {
	Append(ctx context.Context, e Entry) error
	Get(ctx context.Context, id string) (Entry, error)
	ByActor(ctx context.Context, actorID string, page Page) ([]Entry, error)
	ByAction(ctx context.Context, action Action, page Page) ([]Entry, error)
	ByTarget(ctx context.Context, targetType TargetType, targetID string, page Page) ([]Entry, error)
	Recent(ctx context.Context, page Page) ([]Entry, error)
}

type requestInfoKey struct{}

type requestInfo struct {
	ip        string
	userAgent string
}

// WithRequestInfo attaches the client address and user agent that the
// recorder stamps onto entries.
func WithRequestInfo(ctx context.Context, ip, userAgent string) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, requestInfo{ip: ip, userAgent: userAgent})
}

// RequestInfo returns what WithRequestInfo stored, or empty strings.
func RequestInfo(ctx context.Context) (ip, userAgent string) {
	if ctx == nil {
		return "", ""
	}
	info, _ := ctx.Value(requestInfoKey{}).(requestInfo)
	return info.ip, info.userAgent
}
