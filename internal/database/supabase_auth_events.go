package database

import (
	"context"
	"fmt"
)

// CreateAuthEvent appends an audit event.
func (r *Repository) CreateAuthEvent(ctx context.Context, event *AuthEvent) error {
	if event == nil {
		return fmt.Errorf("%w: auth event cannot be nil", ErrInvalidInput)
	}
	insert := *event
	insert.ID = ""
	if _, err := r.client.From("auth_events").Insert(insert).Execute(ctx); err != nil {
		return fmt.Errorf("%w: create auth event: %w", ErrDatabaseError, err)
	}
	return nil
}
