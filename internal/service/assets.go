package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/repository"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

// storedAsset is an object written for the current request.
type storedAsset struct {
	URL string
	Key string
}

// assets writes uploads to the injected store and removes them again when a request fails.
type assets struct {
	store storage.Store
	now   Clock
	log   zerolog.Logger
}

func newAssets(store storage.Store, now Clock, log zerolog.Logger) *assets {
	if now == nil {
		now = time.Now
	}
	return &assets{store: store, now: now, log: log}
}

// save stores f and returns where it landed. A nil file is a no-op.
func (a *assets) save(ctx context.Context, f *upload.File) (*storedAsset, error) {
	if f == nil {
		return nil, nil
	}
	body, err := f.Open()
	if err != nil {
		return nil, apperr.Wrap(err, fmt.Sprintf("open upload %s", f.Field))
	}
	defer body.Close()

	key := upload.ObjectKey(f.Field, f.Filename, a.now())
	url, err := a.store.Put(ctx, storage.Object{Key: key, ContentType: f.ContentType, Size: f.Size, Body: body})
	if err != nil {
		return nil, apperr.Wrap(err, fmt.Sprintf("store upload %s", key))
	}
	return &storedAsset{URL: url, Key: key}, nil
}

// discard deletes an object. Failures are logged and never returned.
func (a *assets) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := a.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		a.log.Warn().Err(err).Str("key", key).Msg("Failed to delete stored object")
	}
}

// discardOnError removes asset when *errp is set once the caller returns.
func (a *assets) discardOnError(ctx context.Context, asset *storedAsset, errp *error) {
	if asset != nil && *errp != nil {
		a.discard(ctx, asset.Key)
	}
}

// conflictOr maps a unique violation to a client-facing conflict and wraps anything else.
func conflictOr(err error, conflictMsg, internalMsg string) error {
	if errors.Is(err, repository.ErrDuplicate) {
		return apperr.Conflict(conflictMsg)
	}
	return apperr.Wrap(err, internalMsg)
}

// inUseOr maps a foreign key violation to a conflict and wraps anything else.
func inUseOr(err error, inUseMsg, internalMsg string) error {
	if errors.Is(err, repository.ErrInUse) {
		return apperr.Conflict(inUseMsg)
	}
	return apperr.Wrap(err, internalMsg)
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID  string
	IsAdmin bool
}

// owns reports whether the actor may act on a record owned by userID.
func (a Actor) owns(userID string) bool {
	return a.IsAdmin || a.UserID == userID
}
