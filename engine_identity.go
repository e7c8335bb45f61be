package subAuth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrEthical07/subAuth/audit"
	"github.com/MrEthical07/subAuth/password"
	"github.com/MrEthical07/subAuth/role"
)

// GetIdentity returns the identity id. The actor must own it or be at
// least ADMIN.
func (e *Engine) GetIdentity(ctx context.Context, actor AuthResult, id string) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	if actor.IdentityID == "" {
		return Identity{}, ErrUnauthenticated
	}
	if !role.IsOwnerOrAtLeast(actor.Subject(), id, role.Admin) {
		return Identity{}, fmt.Errorf("%w: not owner", ErrForbidden)
	}
	ident, err := e.identities.ByID(ctx, id)
	if err != nil {
		return Identity{}, e.storeError(err)
	}
	return ident, nil
}

// ListIdentities pages through all identities. The actor must be at least
// ADMIN.
func (e *Engine) ListIdentities(ctx context.Context, actor AuthResult, page Page) ([]Identity, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if !role.Satisfies(actor.Role, role.Admin) {
		return nil, fmt.Errorf("%w: %s cannot list identities", ErrForbidden, actor.Role)
	}
	items, err := e.identities.List(ctx, page.Normalize())
	if err != nil {
		return nil, e.storeError(err)
	}
	return items, nil
}

// UpdateProfile changes name and/or email. Role and active state are never
// touched here.
func (e *Engine) UpdateProfile(ctx context.Context, actor AuthResult, id string, p Profile) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	if actor.IdentityID == "" {
		return Identity{}, ErrUnauthenticated
	}
	if !role.IsOwnerOrAtLeast(actor.Subject(), id, role.Admin) {
		return Identity{}, fmt.Errorf("%w: not owner", ErrForbidden)
	}
	normalized, err := p.Normalize()
	if err != nil {
		return Identity{}, err
	}
	if normalized.Empty() {
		return e.GetIdentity(ctx, actor, id)
	}

	updated, err := e.identities.UpdateProfile(ctx, id, normalized)
	if err != nil {
		return Identity{}, e.storeError(err)
	}

	fields := map[string]string{}
	if normalized.Name != nil {
		fields["name"] = "changed"
	}
	if normalized.Email != nil {
		fields["email"] = "changed"
	}
	e.recordAudit(ctx, audit.Input{
		ActorID:    actor.IdentityID,
		Action:     audit.ActionUpdateUser,
		TargetType: audit.TargetUser,
		TargetID:   id,
		Metadata:   fields,
	})
	return updated, nil
}

// ChangeRole assigns next to identity id. The actor may only assign roles
// the hierarchy allows, may not change their own role, and below
// SUPER_ADMIN may only modify identities ranked strictly below themselves.
//
// Errors: ErrInvalidRole, ErrForbidden, ErrNotFound, ErrStoreUnavailable.
func (e *Engine) ChangeRole(ctx context.Context, actor AuthResult, id string, next role.Role) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	if actor.IdentityID == "" {
		return Identity{}, ErrUnauthenticated
	}
	if !next.Valid() {
		return Identity{}, ErrInvalidRole
	}
	if err := role.CheckAssign(actor.Role, next); err != nil {
		e.metricInc(MetricRoleChangeDenied)
		return Identity{}, err
	}
	if actor.IdentityID == id {
		e.metricInc(MetricRoleChangeDenied)
		return Identity{}, fmt.Errorf("%w: cannot change own role", ErrForbidden)
	}

	target, err := e.identities.ByID(ctx, id)
	if err != nil {
		return Identity{}, e.storeError(err)
	}
	if err := outranks(actor, target); err != nil {
		e.metricInc(MetricRoleChangeDenied)
		return Identity{}, err
	}
	previous := target.Role

	updated, err := e.identities.SetRole(ctx, id, next)
	if err != nil {
		return Identity{}, e.storeError(err)
	}

	e.metricInc(MetricRoleChange)
	e.recordAudit(ctx, audit.Input{
		ActorID:    actor.IdentityID,
		Action:     audit.ActionRoleChange,
		TargetType: audit.TargetUser,
		TargetID:   id,
		Metadata:   map[string]string{"from": previous.String(), "to": next.String()},
	})
	return updated, nil
}

// ChangePassword replaces the password of identity id and revokes every
// session it holds. An identity changing its own password must supply the
// current one; otherwise the actor must be at least ADMIN and outrank the
// target.
//
// Errors: ErrInvalidPassword, ErrValidation, ErrForbidden, ErrNotFound,
// ErrStoreUnavailable.
func (e *Engine) ChangePassword(ctx context.Context, actor AuthResult, id, current, next string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if actor.IdentityID == "" {
		return ErrUnauthenticated
	}

	target, err := e.identities.ByID(ctx, id)
	if err != nil {
		return e.storeError(err)
	}
	if actor.IdentityID == id {
		if err := e.passwordHash.Compare(current, target.PasswordHash); err != nil {
			e.metricInc(MetricPasswordChangeInvalidOld)
			if errors.Is(err, password.ErrMismatch) {
				return ErrInvalidPassword
			}
			return fmt.Errorf("%w: %v", ErrInvalidPassword, err)
		}
	} else if err := outranks(actor, target); err != nil {
		return err
	}

	if err := password.CheckPolicy(next); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	hash, err := e.passwordHash.Hash(next)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := e.identities.SetPasswordHash(ctx, id, hash); err != nil {
		return e.storeError(err)
	}

	revoked, err := e.sessionStore.RevokeAll(ctx, id)
	if err != nil {
		return e.storeError(err)
	}

	e.metricInc(MetricPasswordChangeSuccess)
	if e.metrics != nil {
		e.metrics.Add(MetricSessionRevoked, uint64(revoked))
	}
	e.recordAudit(ctx, audit.Input{
		ActorID:    actor.IdentityID,
		Action:     audit.ActionUpdateUser,
		TargetType: audit.TargetUser,
		TargetID:   id,
		Metadata:   map[string]string{"password": "changed"},
	})
	return nil
}

// SetActive activates or deactivates identity id. While deactivated every
// refresh fails with ErrAccountInactive; reactivation revokes the sessions
// held over from before. Nobody may change their own status.
func (e *Engine) SetActive(ctx context.Context, actor AuthResult, id string, active bool) (Identity, error) {
	if err := e.ready(); err != nil {
		return Identity{}, err
	}
	if actor.IdentityID == "" {
		return Identity{}, ErrUnauthenticated
	}
	if actor.IdentityID == id {
		return Identity{}, fmt.Errorf("%w: cannot change own status", ErrForbidden)
	}

	target, err := e.identities.ByID(ctx, id)
	if err != nil {
		return Identity{}, e.storeError(err)
	}
	if err := outranks(actor, target); err != nil {
		return Identity{}, err
	}

	updated, revoked, err := e.flows.SetActive(ctx, id, active)
	if err != nil {
		return Identity{}, e.storeError(err)
	}

	if !active {
		e.metricInc(MetricAccountDeactivated)
	}
	if e.metrics != nil {
		e.metrics.Add(MetricSessionRevoked, uint64(revoked))
	}
	e.recordAudit(ctx, audit.Input{
		ActorID:    actor.IdentityID,
		Action:     audit.ActionUpdateUser,
		TargetType: audit.TargetUser,
		TargetID:   id,
		Metadata:   map[string]string{"active": fmt.Sprint(active)},
	})
	return updated, nil
}

// DeleteIdentity removes identity id and its sessions. Only SUPER_ADMIN may
// delete, and never themselves. Audit entries that reference the identity
// are kept.
func (e *Engine) DeleteIdentity(ctx context.Context, actor AuthResult, id string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if actor.IdentityID == "" {
		return ErrUnauthenticated
	}
	if actor.Role != role.SuperAdmin {
		return fmt.Errorf("%w: %s cannot delete identities", ErrForbidden, actor.Role)
	}
	if actor.IdentityID == id {
		return fmt.Errorf("%w: cannot delete self", ErrForbidden)
	}

	if err := e.identities.Delete(ctx, id); err != nil {
		return e.storeError(err)
	}
	revoked, err := e.sessionStore.RevokeAll(ctx, id)
	if err != nil {
		return e.storeError(err)
	}

	e.metricInc(MetricAccountDeleted)
	if e.metrics != nil {
		e.metrics.Add(MetricSessionRevoked, uint64(revoked))
	}
	e.recordAudit(ctx, audit.Input{
		ActorID:    actor.IdentityID,
		Action:     audit.ActionDeleteUser,
		TargetType: audit.TargetUser,
		TargetID:   id,
	})
	return nil
}

// outranks allows SUPER_ADMIN everything and otherwise requires an actor of
// at least ADMIN whose rank is strictly above the target's.
func outranks(actor AuthResult, target Identity) error {
	if actor.Role == role.SuperAdmin {
		return nil
	}
	if !role.Satisfies(actor.Role, role.Admin) {
		return fmt.Errorf("%w: %s cannot manage identities", ErrForbidden, actor.Role)
	}
	if target.Role.Rank() >= actor.Role.Rank() {
		return fmt.Errorf("%w: %s cannot manage %s", ErrForbidden, actor.Role, target.Role)
	}
	return nil
}
