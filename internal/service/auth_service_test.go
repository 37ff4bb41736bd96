package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"skillenergy/internal/apperr"
	"skillenergy/internal/auth"
	"skillenergy/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc       AuthService
	users     *fakeUsers
	tokens    *auth.TokenManager
	publisher *fakePublisher
	now       time.Time
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	f := &authFixture{
		users:     newFakeUsers(),
		tokens:    auth.NewTokenManager("test-secret", time.Hour),
		publisher: &fakePublisher{},
		now:       time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC),
	}
	f.svc = NewAuthService(f.users, f.tokens, f.publisher, "notifications", fixedClock(&f.now), zerolog.Nop())
	return f
}

func (f *authFixture) register(t *testing.T, email, password string) *model.User {
	t.Helper()
	u, err := f.svc.Register(context.Background(), RegisterInput{
		Name:            "Ana",
		Email:           email,
		Password:        password,
		ConfirmPassword: password,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, " Ana@Example.com ", "secret1")
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.NotEqual(t, "secret1", u.PasswordHash)

	_, err := f.svc.Register(ctx, RegisterInput{Email: "ana@example.com", Password: "x", ConfirmPassword: "x"})
	assertKind(t, err, apperr.KindConflict, "Email already registered")

	_, err = f.svc.Register(ctx, RegisterInput{Email: "new@example.com", Password: "x", ConfirmPassword: "y"})
	assertKind(t, err, apperr.KindValidation, "Password and confirm password do not match")

	session, err := f.svc.Login(ctx, "ANA@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, f.now.Add(time.Hour), session.ExpiresAt)
	claims, err := f.tokens.Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, claims.Subject)

	_, err = f.svc.Login(ctx, "ana@example.com", "wrong")
	assertKind(t, err, apperr.KindAuth, "Invalid password")

	_, err = f.svc.Login(ctx, "ghost@example.com", "secret1")
	assertKind(t, err, apperr.KindNotFound, "User not found")
}

func TestRegisterAdminRole(t *testing.T) {
	f := newAuthFixture(t)
	u, err := f.svc.Register(context.Background(), RegisterInput{Email: "root@example.com", Password: "p", ConfirmPassword: "p", Role: model.RoleAdmin})
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)

	u, err = f.svc.Register(context.Background(), RegisterInput{Email: "odd@example.com", Password: "p", ConfirmPassword: "p", Role: "owner"})
	require.NoError(t, err)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.False(t, u.IsAdmin)
}

func lastOTP(t *testing.T, p *fakePublisher) string {
	t.Helper()
	msgs := p.messages()
	require.NotEmpty(t, msgs)
	var ev struct {
		Type string `json:"type"`
		Data struct {
			OTP string `json:"otp"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].payload, &ev))
	require.Equal(t, EventPasswordResetRequested, ev.Type)
	return ev.Data.OTP
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com", "old-pass")

	err := f.svc.ResetPassword(ctx, "ana@example.com", "new-pass", "new-pass")
	assertKind(t, err, apperr.KindValidation, "Please verify a valid OTP before resetting the password.")

	require.NoError(t, f.svc.ForgotPassword(ctx, "ana@example.com"))
	otp := lastOTP(t, f.publisher)
	assert.Len(t, otp, 4)
	assert.Equal(t, "notifications", f.publisher.messages()[0].topic)

	assertKind(t, f.svc.VerifyOTP(ctx, "ana@example.com", "0000"), apperr.KindValidation, "Invalid OTP.")

	require.NoError(t, f.svc.VerifyOTP(ctx, "ana@example.com", otp))
	assertKind(t, f.svc.ResetPassword(ctx, "ana@example.com", "a", "b"), apperr.KindValidation, "Please check newpassword and confirmpassword.")
	require.NoError(t, f.svc.ResetPassword(ctx, "ana@example.com", "new-pass", "new-pass"))

	stored := f.users.user(u.ID)
	assert.Empty(t, stored.ResetOTP)
	assert.False(t, stored.OTPVerified)

	_, err = f.svc.Login(ctx, "ana@example.com", "new-pass")
	require.NoError(t, err)

	// the OTP is single use
	assertKind(t, f.svc.VerifyOTP(ctx, "ana@example.com", otp), apperr.KindValidation, "No OTP found. Please request a new OTP.")
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.register(t, "ana@example.com", "old-pass")
	require.NoError(t, f.svc.ForgotPassword(ctx, "ana@example.com"))
	otp := lastOTP(t, f.publisher)

	f.now = f.now.Add(11 * time.Minute)
	assertKind(t, f.svc.VerifyOTP(ctx, "ana@example.com", otp), apperr.KindValidation, "OTP has expired. Please request a new OTP.")
}

func TestForgotPasswordPublishFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.register(t, "ana@example.com", "old-pass")
	f.publisher.err = errBoom
	err := f.svc.ForgotPassword(context.Background(), "ana@example.com")
	assertKind(t, err, apperr.KindInternal, "Internal server error")

	assertKind(t, f.svc.ForgotPassword(context.Background(), "ghost@example.com"), apperr.KindNotFound, "User not found")
}

func TestChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	u := f.register(t, "ana@example.com", "old-pass")

	assertKind(t, f.svc.ChangePassword(ctx, u.ID, "bad", "n1", "n1"), apperr.KindValidation, "Current password is incorrect.")
	assertKind(t, f.svc.ChangePassword(ctx, u.ID, "old-pass", "old-pass", "old-pass"), apperr.KindValidation, "New password cannot be the same as current password.")
	assertKind(t, f.svc.ChangePassword(ctx, u.ID, "old-pass", "n1", "n2"), apperr.KindValidation, "New password and confirm password do not match.")
	require.NoError(t, f.svc.ChangePassword(ctx, u.ID, "old-pass", "n1", "n1"))

	_, err := f.svc.Login(ctx, "ana@example.com", "n1")
	require.NoError(t, err)
}

func TestGenerateOTP(t *testing.T) {
	for range 50 {
		otp, err := generateOTP()
		require.NoError(t, err)
		require.Len(t, otp, 4)
		assert.NotEqual(t, byte('0'), otp[0])
	}
}
