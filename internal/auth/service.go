package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"travelenda/internal/shared/constants"
	"travelenda/pkg/cache"
	"travelenda/pkg/logger"

	"github.com/google/uuid"
)

// AuthResult is what sign-up and sign-in return to the client.
type AuthResult struct {
	User    User     `json:"user"`
	Profile *Profile `json:"profile,omitempty"`
	Tokens  *Tokens  `json:"session,omitempty"`
}

// Service is the only place that mutates accounts and profiles.
type Service interface {
	SignUp(ctx context.Context, req *SignUpRequest) (*AuthResult, error)
	SignIn(ctx context.Context, req *SignInRequest) (*AuthResult, error)
	SignOut(ctx context.Context, accessToken string) error
	ResetPassword(ctx context.Context, req *ResetPasswordRequest) error
	GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*Profile, error)
}

type service struct {
	provider Provider
	repo     Repository
	cache    cache.Service
	log      *logger.Logger
}

// NewService creates the auth service. cacheService may be nil.
func NewService(provider Provider, repo Repository, cacheService cache.Service, log *logger.Logger) Service {
	if log == nil {
		log = logger.GetDefault()
	}
	return &service{
		provider: provider,
		repo:     repo,
		cache:    cacheService,
		log:      log,
	}
}

func (s *service) SignUp(ctx context.Context, req *SignUpRequest) (*AuthResult, error) {
	metadata := map[string]string{}
	if req.FirstName != "" {
		metadata["first_name"] = req.FirstName
	}
	if req.LastName != "" {
		metadata["last_name"] = req.LastName
	}

	user, tokens, err := s.provider.SignUp(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password, metadata)
	if err != nil {
		return nil, err
	}

	profile := &Profile{ID: user.ID, FirstName: req.FirstName, LastName: req.LastName}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}

	s.log.LogAuthSuccess(ctx, user.ID.String(), "signup")
	return &AuthResult{User: *user, Profile: profile, Tokens: tokens}, nil
}

func (s *service) SignIn(ctx context.Context, req *SignInRequest) (*AuthResult, error) {
	user, tokens, err := s.provider.SignIn(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		return nil, err
	}

	s.log.LogAuthSuccess(ctx, user.ID.String(), "password")
	return &AuthResult{User: *user, Profile: s.ensureProfile(ctx, user.ID), Tokens: tokens}, nil
}

// ensureProfile returns the user's profile, creating an empty one for accounts made outside the app.
// Failures are logged; signing in does not depend on the profile store.
func (s *service) ensureProfile(ctx context.Context, userID uuid.UUID) *Profile {
	profile, err := s.GetProfile(ctx, userID)
	if err == nil {
		return profile
	}
	if !errors.Is(err, ErrProfileNotFound) {
		s.log.ErrorWithContext(ctx, "Failed to load profile", err, map[string]interface{}{"user_id": userID.String()})
		return nil
	}

	profile = &Profile{ID: userID}
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		s.log.ErrorWithContext(ctx, "Failed to create profile", err, map[string]interface{}{"user_id": userID.String()})
		return nil
	}
	return profile
}

func (s *service) SignOut(ctx context.Context, accessToken string) error {
	return s.provider.SignOut(ctx, accessToken)
}

func (s *service) ResetPassword(ctx context.Context, req *ResetPasswordRequest) error {
	return s.provider.ResetPassword(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.RedirectTo)
}

func (s *service) GetProfile(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	if s.cache == nil {
		return s.repo.GetProfile(ctx, userID)
	}

	var profile Profile
	err := s.cache.GetOrSet(ctx, constants.BuildProfileKey(userID.String()), constants.TTL_PROFILE, func() (interface{}, error) {
		return s.repo.GetProfile(ctx, userID)
	}, &profile)
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

func (s *service) UpdateProfile(ctx context.Context, userID uuid.UUID, req *UpdateProfileRequest) (*Profile, error) {
	updates := map[string]interface{}{}
	if req.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Phone != nil {
		updates["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if len(updates) == 0 {
		return s.GetProfile(ctx, userID)
	}

	profile, err := s.repo.UpdateProfile(ctx, userID, updates)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		key := constants.BuildProfileKey(userID.String())
		if err := s.cache.Delete(ctx, key); err != nil {
			s.log.LogCacheError(ctx, "delete", key, err)
		}
	}
	return profile, nil
}
