package database

import (
	"context"
	"encoding/json"
	"fmt"
)

type userInsert struct {
	PublicKey string  `json:"public_key"`
	Username  string  `json:"username"`
	Email     *string `json:"email,omitempty"`
}

// UserExistsByPublicKey reports whether a user owns the wallet.
func (r *Repository) UserExistsByPublicKey(ctx context.Context, publicKey string) (bool, error) {
	if err := requireID("public_key", publicKey); err != nil {
		return false, err
	}
	return r.exists(ctx, "users", "public_key", publicKey)
}

// UserExistsByUsername reports whether the username is taken.
func (r *Repository) UserExistsByUsername(ctx context.Context, username string) (bool, error) {
	if err := requireID("username", username); err != nil {
		return false, err
	}
	return r.exists(ctx, "users", "username", username)
}

// UserExistsByEmail reports whether the email is registered.
func (r *Repository) UserExistsByEmail(ctx context.Context, email string) (bool, error) {
	if err := requireID("email", email); err != nil {
		return false, err
	}
	return r.exists(ctx, "users", "email", email)
}

// CreateUser inserts user and fills it with the stored row.
func (r *Repository) CreateUser(ctx context.Context, user *User) error {
	if user == nil {
		return fmt.Errorf("%w: user cannot be nil", ErrInvalidInput)
	}
	if err := requireID("public_key", user.PublicKey); err != nil {
		return err
	}

	data, err := r.client.From("users").Insert(userInsert{
		PublicKey: user.PublicKey,
		Username:  user.Username,
		Email:     user.Email,
	}).Execute(ctx)
	if err != nil {
		return fmt.Errorf("%w: create user: %w", ErrDatabaseError, err)
	}

	var rows []User
	if err := json.Unmarshal(data, &rows); err != nil {
		return fmt.Errorf("%w: unmarshal user: %w", ErrDatabaseError, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: create user returned no rows", ErrDatabaseError)
	}
	*user = rows[0]
	return nil
}
