package service

import (
	"context"
	"strings"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// ProfilePatch holds optional profile fields. Nil fields are left unchanged.
type ProfilePatch struct {
	Name   *string
	Email  *string
	Phone  *string
	Gender *string
	Image  *upload.File
}

type UserService interface {
	Get(ctx context.Context, actor Actor, id string) (*model.User, error)
	List(ctx context.Context) ([]model.User, error)
	UpdateProfile(ctx context.Context, actor Actor, id string, patch ProfilePatch) (*model.User, error)
	Delete(ctx context.Context, actor Actor, id string) error
	// DeleteMyAccount records why the user left and removes the account.
	DeleteMyAccount(ctx context.Context, userID, reason string) (*model.DeletionReason, error)
	// IsAdmin reports whether userID holds the admin flag. Unknown users are NotFound.
	IsAdmin(ctx context.Context, userID string) (bool, error)
}

type userService struct {
	users   repository.UserRepository
	reasons repository.DeletionReasonRepository
	assets  *assets
	log     zerolog.Logger
}

func NewUserService(
	users repository.UserRepository,
	reasons repository.DeletionReasonRepository,
	store storage.Store,
	now Clock,
	logger zerolog.Logger,
) UserService {
	log := logger.With().Str("service", "UserService").Logger()
	return &userService{users: users, reasons: reasons, assets: newAssets(store, now, log), log: log}
}

func (s *userService) load(ctx context.Context, id string) (*model.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load user")
	}
	if u == nil {
		return nil, apperr.NotFound("User not found")
	}
	return u, nil
}

func (s *userService) Get(ctx context.Context, actor Actor, id string) (*model.User, error) {
	if !actor.owns(id) {
		return nil, apperr.Forbidden("Access denied. You can only view your own profile.")
	}
	return s.load(ctx, id)
}

func (s *userService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list users")
	}
	return users, nil
}

func (s *userService) UpdateProfile(ctx context.Context, actor Actor, id string, patch ProfilePatch) (_ *model.User, err error) {
	if !actor.owns(id) {
		return nil, apperr.Forbidden("Access denied. You can only update your own profile.")
	}
	asset, err := s.assets.save(ctx, patch.Image)
	if err != nil {
		return nil, err
	}
	defer s.assets.discardOnError(ctx, asset, &err)

	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	oldKey := u.ImageKey
	if patch.Name != nil {
		u.Name = *patch.Name
	}
	if patch.Email != nil {
		u.Email = strings.ToLower(strings.TrimSpace(*patch.Email))
	}
	if patch.Phone != nil {
		u.Phone = *patch.Phone
	}
	if patch.Gender != nil {
		u.Gender = *patch.Gender
	}
	if asset != nil {
		u.Image, u.ImageKey = asset.URL, asset.Key
	}
	if err = s.users.UpdateProfile(ctx, u); err != nil {
		return nil, conflictOr(err, "Email already registered", "update user")
	}
	if asset != nil {
		s.assets.discard(ctx, oldKey)
	}
	return u, nil
}

func (s *userService) Delete(ctx context.Context, actor Actor, id string) error {
	if !actor.owns(id) {
		return apperr.Forbidden("Access denied. You can only delete your own account.")
	}
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	deleted, err := s.users.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete user")
	}
	if !deleted {
		return apperr.NotFound("User not found")
	}
	s.assets.discard(ctx, u.ImageKey)
	s.log.Info().Str("user_id", id).Msg("User deleted")
	return nil
}

func (s *userService) DeleteMyAccount(ctx context.Context, userID, reason string) (*model.DeletionReason, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, apperr.Validation("reasonCancel is required")
	}
	u, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}
	d := &model.DeletionReason{UserID: &u.ID, Reason: reason}
	if err := s.reasons.CreateAndDeleteUser(ctx, d); err != nil {
		return nil, apperr.Wrap(err, "delete account")
	}
	s.assets.discard(ctx, u.ImageKey)
	s.log.Info().Str("user_id", userID).Msg("Account closed")
	return d, nil
}

func (s *userService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	u, err := s.load(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.IsAdmin, nil
}

// DeletionReasonService lets admins review why accounts were closed.
type DeletionReasonService interface {
	List(ctx context.Context) ([]model.DeletionReason, error)
	Get(ctx context.Context, id string) (*model.DeletionReason, error)
	Delete(ctx context.Context, id string) error
}

type deletionReasonService struct {
	reasons repository.DeletionReasonRepository
}

func NewDeletionReasonService(reasons repository.DeletionReasonRepository) DeletionReasonService {
	return &deletionReasonService{reasons: reasons}
}

func (s *deletionReasonService) List(ctx context.Context) ([]model.DeletionReason, error) {
	out, err := s.reasons.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(err, "list deletion reasons")
	}
	return out, nil
}

func (s *deletionReasonService) Get(ctx context.Context, id string) (*model.DeletionReason, error) {
	d, err := s.reasons.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, "load deletion reason")
	}
	if d == nil {
		return nil, apperr.NotFound("Deletion reason not found")
	}
	return d, nil
}

func (s *deletionReasonService) Delete(ctx context.Context, id string) error {
	deleted, err := s.reasons.Delete(ctx, id)
	if err != nil {
		return apperr.Wrap(err, "delete deletion reason")
	}
	if !deleted {
		return apperr.NotFound("Deletion reason not found")
	}
	return nil
}
