package subAuth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/role"
)

// AuditErrorCode is the short failure label put into audit metadata.
type AuditErrorCode string

const (
	auditErrInvalidPassword AuditErrorCode = "invalid_password"
	auditErrNotFound        AuditErrorCode = "not_found"
	auditErrAccountInactive AuditErrorCode = "account_inactive"
	auditErrRateLimited     AuditErrorCode = "rate_limited"
	auditErrInvalidToken    AuditErrorCode = "invalid_token"
	auditErrExpiredToken    AuditErrorCode = "expired_token"
	auditErrForbidden       AuditErrorCode = "forbidden"
	auditErrValidation      AuditErrorCode = "validation"
	auditErrDuplicate       AuditErrorCode = "duplicate"
	auditErrUnavailable     AuditErrorCode = "backend_unavailable"
	auditErrInternal        AuditErrorCode = "internal_error"
)

// AuditQuery selects which entries [Engine.AuditLog] returns. At most one
// of ActorID, Action and TargetID is used, in that order; none means most
// recent first.
type AuditQuery struct {
	ActorID    string
	Action     audit.Action
	TargetType audit.TargetType
	TargetID   string
	Page       audit.Page
}

func (e *Engine) recordAudit(ctx context.Context, in audit.Input) {
	if e == nil || e.recorder == nil {
		return
	}
	e.recorder.Record(ctx, in)
}

// RecordAudit stamps and enqueues an entry for a privileged action performed
// outside the Engine, such as a subscription change. It never fails the
// caller; the bool reports whether the entry was accepted.
func (e *Engine) RecordAudit(ctx context.Context, in audit.Input) (audit.Entry, bool) {
	if e == nil || e.recorder == nil {
		return audit.Entry{}, false
	}
	return e.recorder.Record(ctx, in)
}

// AuditLog reads the ledger, newest first. The actor must be at least ADMIN.
func (e *Engine) AuditLog(ctx context.Context, actor AuthResult, q AuditQuery) ([]audit.Entry, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !role.Satisfies(actor.Role, role.Admin) {
		return nil, fmt.Errorf("%w: %s cannot read the audit log", ErrForbidden, actor.Role)
	}
	if e.auditStore == nil {
		return nil, nil
	}

	page := q.Page.Normalize()
	var (
		items []audit.Entry
		err   error
	)
	switch {
	case q.ActorID != "":
		items, err = e.auditStore.ByActor(ctx, q.ActorID, page)
	case q.Action != "":
		if !q.Action.Valid() {
			return nil, fmt.Errorf("%w: unknown action %s", ErrValidation, q.Action)
		}
		items, err = e.auditStore.ByAction(ctx, q.Action, page)
	case q.TargetID != "":
		targetType := q.TargetType
		if targetType == "" {
			targetType = audit.TargetUser
		}
		if !targetType.Valid() {
			return nil, fmt.Errorf("%w: unknown target type %s", ErrValidation, targetType)
		}
		items, err = e.auditStore.ByTarget(ctx, targetType, q.TargetID, page)
	default:
		items, err = e.auditStore.Recent(ctx, page)
	}
	if err != nil {
		return nil, e.storeError(err)
	}
	return items, nil
}

// AuditEntry returns one entry by id. The actor must be at least ADMIN.
func (e *Engine) AuditEntry(ctx context.Context, actor AuthResult, id string) (audit.Entry, error) {
	if err := e.ready(); err != nil {
		return audit.Entry{}, err
	}
	if !role.Satisfies(actor.Role, role.Admin) {
		return audit.Entry{}, fmt.Errorf("%w: %s cannot read the audit log", ErrForbidden, actor.Role)
	}
	if e.auditStore == nil {
		return audit.Entry{}, ErrNotFound
	}
	entry, err := e.auditStore.Get(ctx, id)
	if err != nil {
		if errors.Is(err, audit.ErrNotFound) {
			return audit.Entry{}, ErrNotFound
		}
		return audit.Entry{}, e.storeError(err)
	}
	return entry, nil
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidPassword):
		return auditErrInvalidPassword
	case errors.Is(err, ErrNotFound):
		return auditErrNotFound
	case errors.Is(err, ErrAccountInactive):
		return auditErrAccountInactive
	case errors.Is(err, ErrSignInRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrTokenExpired):
		return auditErrExpiredToken
	case errors.Is(err, ErrTokenInvalid),
		errors.Is(err, ErrMissingToken):
		return auditErrInvalidToken
	case errors.Is(err, ErrForbidden),
		errors.Is(err, ErrInvalidRole):
		return auditErrForbidden
	case errors.Is(err, ErrValidation):
		return auditErrValidation
	case errors.Is(err, ErrEmailTaken):
		return auditErrDuplicate
	case errors.Is(err, ErrStoreUnavailable):
		return auditErrUnavailable
	default:
		return auditErrInternal
	}
}
