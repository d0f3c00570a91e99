package authz

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"socioai/internal/errors"
)

// ResourceType names a kind of owned resource.
type ResourceType string

const (
	ResourceCategory    ResourceType = "category"
	ResourceGoal        ResourceType = "goal"
	ResourceLedgerEntry ResourceType = "ledger_entry"
	ResourceIncome      ResourceType = "income"
	ResourceExpense     ResourceType = "expense"
)

// Action is what the identity wants to do with a resource.
type Action string

const (
	ActionRead   Action = "READ"
	ActionWrite  Action = "WRITE"
	ActionDelete Action = "DELETE"
)

// Decision is the outcome of an authorization check.
type Decision string

const (
	Allow Decision = "allow"
	Deny  Decision = "deny"
)

// OwnerResolver walks a resource's ownership chain up to its user.
type OwnerResolver interface {
	OwnerOfCategory(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfGoal(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfEntry(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfIncome(ctx context.Context, id uint) (uuid.UUID, error)
	OwnerOfExpense(ctx context.Context, id uint) (uuid.UUID, error)
}

// Gate decides whether an identity may act on an owned resource.
//
// The check runs before, and outside of, the transaction of the operation it
// guards. Category owners never change, so the only race left open is a
// concurrent delete, which the guarded operation reports as not found.
type Gate struct {
	owners OwnerResolver
	logger *slog.Logger
}

// NewGate creates a new authorization gate.
func NewGate(owners OwnerResolver, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{owners: owners, logger: logger}
}

// Check returns Allow when actor is an administrator or owns the resource.
// A missing resource is reported as a NotFoundError together with Deny so
// callers can tell 404 from 403. Unknown resource types are denied.
func (g *Gate) Check(ctx context.Context, actor Identity, resource ResourceType, id uint, action Action) (Decision, error) {
	if actor.IsAdmin() {
		g.log(ctx, actor, resource, id, action, Allow)
		return Allow, nil
	}
	if actor.UserID == uuid.Nil {
		g.log(ctx, actor, resource, id, action, Deny)
		return Deny, nil
	}

	var resolve func(context.Context, uint) (uuid.UUID, error)
	switch resource {
	case ResourceCategory:
		resolve = g.owners.OwnerOfCategory
	case ResourceGoal:
		resolve = g.owners.OwnerOfGoal
	case ResourceLedgerEntry:
		resolve = g.owners.OwnerOfEntry
	case ResourceIncome:
		resolve = g.owners.OwnerOfIncome
	case ResourceExpense:
		resolve = g.owners.OwnerOfExpense
	default:
		g.log(ctx, actor, resource, id, action, Deny)
		return Deny, nil
	}

	owner, err := resolve(ctx, id)
	if err != nil {
		return Deny, err
	}

	decision := Deny
	if owner == actor.UserID {
		decision = Allow
	}
	g.log(ctx, actor, resource, id, action, decision)
	return decision, nil
}

// Authorize runs Check and turns a denial into errors.ErrForbidden.
func (g *Gate) Authorize(ctx context.Context, actor Identity, resource ResourceType, id uint, action Action) error {
	decision, err := g.Check(ctx, actor, resource, id, action)
	if err != nil {
		return err
	}
	if decision != Allow {
		return fmt.Errorf("%s %s %d: %w", action, resource, id, errors.ErrForbidden)
	}
	return nil
}

// RequireAdmin allows administrators only.
func RequireAdmin(actor Identity) error {
	if actor.IsAdmin() {
		return nil
	}
	return errors.ErrForbidden
}

// RequireSelfOrAdmin allows the user identified by userID and administrators.
func RequireSelfOrAdmin(actor Identity, userID uuid.UUID) error {
	if actor.IsAdmin() || (actor.UserID != uuid.Nil && actor.UserID == userID) {
		return nil
	}
	return errors.ErrForbidden
}

func (g *Gate) log(ctx context.Context, actor Identity, resource ResourceType, id uint, action Action, decision Decision) {
	level := slog.LevelDebug
	if decision == Deny {
		level = slog.LevelInfo
	}
	g.logger.Log(ctx, level, "authorization decision",
		"actor", actor.UserID,
		"role", actor.Role,
		"resource", resource,
		"resource_id", id,
		"action", action,
		"decision", decision,
	)
}
