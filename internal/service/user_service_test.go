package service

import (
	"context"
	"testing"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/model"
	"skillenergy/internal/storage"
	"skillenergy/internal/upload"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateProfileOwnership(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(
		&model.User{ID: "u1", Email: "ana@example.com", Name: "Ana", Image: "memory://profileImages/1.png", ImageKey: "profileImages/1.png"},
		&model.User{ID: "u2", Email: "bo@example.com"},
	)
	store := storage.NewMemory()
	svc := NewUserService(users, &fakeReasons{users: users}, store, tickingClock(time.Unix(1700000000, 0)), zerolog.Nop())
	image := upload.FromBytes("profileImage", "me.png", "image/png", []byte("me"))

	_, err := svc.UpdateProfile(ctx, Actor{UserID: "u2"}, "u1", ProfilePatch{Name: ptr("Eve"), Image: image})
	assertKind(t, err, apperr.KindForbidden, "Access denied. You can only update your own profile.")
	assert.Empty(t, store.Keys())

	u, err := svc.UpdateProfile(ctx, Actor{UserID: "u1"}, "u1", ProfilePatch{Phone: ptr("555"), Image: image})
	require.NoError(t, err)
	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "555", u.Phone)
	assert.Equal(t, []string{u.ImageKey}, store.Keys())
	assert.Equal(t, []string{"profileImages/1.png"}, store.Deleted())

	_, err = svc.UpdateProfile(ctx, Actor{UserID: "u1"}, "u1", ProfilePatch{Email: ptr(" Ana.M@Example.com")})
	require.NoError(t, err)
	assert.Equal(t, "ana.m@example.com", users.user("u1").Email)
}

func TestDeleteMyAccount(t *testing.T) {
	ctx := context.Background()
	users := newFakeUsers(&model.User{ID: "u1", Email: "ana@example.com", IsAdmin: true})
	reasons := &fakeReasons{users: users}
	svc := NewUserService(users, reasons, storage.NewMemory(), nil, zerolog.Nop())

	ok, err := svc.IsAdmin(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.DeleteMyAccount(ctx, "u1", " ")
	assertKind(t, err, apperr.KindValidation, "reasonCancel is required")

	d, err := svc.DeleteMyAccount(ctx, "u1", "Too expensive")
	require.NoError(t, err)
	assert.Nil(t, d.UserID)
	assert.Nil(t, users.user("u1"))
	require.Len(t, reasons.reasons, 1)
	assert.Equal(t, "Too expensive", reasons.reasons[0].Reason)

	_, err = svc.IsAdmin(ctx, "u1")
	assertKind(t, err, apperr.KindNotFound, "User not found")
}
