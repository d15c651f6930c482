package auth

import (
	"context"
	"errors"
	"fmt"

	"travelenda/internal/shared/middleware"

	"github.com/google/uuid"
)

// SessionProfileAdapter implements middleware.ProfileLoader on top of the auth service.
type SessionProfileAdapter struct {
	service Service
}

func NewSessionProfileAdapter(service Service) *SessionProfileAdapter {
	return &SessionProfileAdapter{
		service: service,
	}
}

// LoadSessionProfile returns nil without error when the user has no profile yet.
func (a *SessionProfileAdapter) LoadSessionProfile(ctx context.Context, userID uuid.UUID) (*middleware.SessionProfile, error) {
	profile, err := a.service.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load profile %s: %w", userID, err)
	}

	return &middleware.SessionProfile{
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		Phone:     profile.Phone,
		AvatarURL: profile.AvatarURL,
	}, nil
}
