package notifications

import (
	"context"

	"github.com/google/uuid"

	"givehub/portal-backend/internal/auth"
)

type userGetter interface {
	GetUser(ctx context.Context, id uuid.UUID) (*auth.User, error)
}

type userRecipients struct {
	users userGetter
}

// UserRecipients resolves recipients from registered user accounts
func UserRecipients(users userGetter) RecipientLookup {
	return &userRecipients{users: users}
}

func (r *userRecipients) Recipient(ctx context.Context, userID uuid.UUID) (*Recipient, error) {
	user, err := r.users.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &Recipient{Name: user.DisplayName(), Email: user.Email}, nil
}
