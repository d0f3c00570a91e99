// Package seed loads the reference data the API expects: the two built-in
// roles and one administrator account.
package seed

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/badoux/checkmail"
	"golang.org/x/crypto/bcrypt"

	"socioai/internal/model"
	"socioai/internal/repository"

	apperrors "socioai/internal/errors"
)

// Result counts what a Run changed.
type Result struct {
	RolesCreated int
	AdminCreated bool
	AdminUpdated bool
}

// Run creates missing roles and creates or updates the administrator. It is
// safe to run repeatedly.
func Run(ctx context.Context, store repository.Store, adminEmail, adminPassword string) (Result, error) {
	var res Result
	adminEmail = model.NormalizeEmail(adminEmail)
	if err := checkmail.ValidateFormat(adminEmail); err != nil {
		return res, apperrors.NewValidation("admin_email", "invalid format")
	}
	if adminPassword == "" {
		return res, apperrors.NewValidation("admin_password", "must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return res, fmt.Errorf("hash password: %w", err)
	}

	err = store.WithTransaction(ctx, func(ctx context.Context, tx repository.Store) error {
		roles := map[string]*model.Role{}
		for _, name := range []string{model.RoleUser, model.RoleAdmin} {
			role, err := tx.Roles().FindByDescription(ctx, name)
			if apperrors.IsNotFound(err) {
				role = &model.Role{Description: name}
				err = tx.Roles().Create(ctx, role)
				res.RolesCreated++
			}
			if err != nil {
				return fmt.Errorf("seed role %s: %w", name, err)
			}
			roles[name] = role
		}

		admin, err := tx.Users().FindByEmail(ctx, adminEmail)
		switch {
		case apperrors.IsNotFound(err):
			res.AdminCreated = true
			return tx.Users().Create(ctx, &model.User{
				Email:        adminEmail,
				PasswordHash: string(hash),
				RoleID:       roles[model.RoleAdmin].ID,
			})
		case err != nil:
			return err
		}

		admin.PasswordHash = string(hash)
		admin.RoleID = roles[model.RoleAdmin].ID
		res.AdminUpdated = true
		return tx.Users().Update(ctx, admin)
	})
	if err != nil {
		return Result{}, err
	}

	slog.InfoContext(ctx, "seed completed",
		"roles_created", res.RolesCreated,
		"admin", adminEmail,
		"admin_created", res.AdminCreated)
	return res, nil
}
