package auth

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/userauth/internal/cache"
	"github.com/dropDatabas3/userauth/internal/domain/repository"
	"github.com/dropDatabas3/userauth/internal/email"
	dto "github.com/dropDatabas3/userauth/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/userauth/internal/jwt"
	"github.com/dropDatabas3/userauth/internal/oauth"
	"github.com/dropDatabas3/userauth/internal/otp"
	"github.com/dropDatabas3/userauth/internal/security/password"
	"github.com/dropDatabas3/userauth/internal/security/revocation"
	"github.com/dropDatabas3/userauth/internal/store/memory"
)

type sentOTP struct {
	kind email.Kind
	to   string
	code string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentOTP
}

func (f *fakeMailer) SendOTP(_ context.Context, kind email.Kind, to, code string, _ time.Duration) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentOTP{kind: kind, to: to, code: code})
	return true
}

func (f *fakeMailer) last() sentOTP {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sent[len(f.sent)-1]
}

type fakeSMS struct{ bodies []string }

func (f *fakeSMS) Enabled() bool { return true }
func (f *fakeSMS) Send(_ context.Context, _ string, body string) bool {
	f.bodies = append(f.bodies, body)
	return true
}

// flakyUsers deja fallar la persistencia del hash de refresh a pedido.
type flakyUsers struct {
	repository.UserRepository
	failSetHash atomic.Bool
}

func (u *flakyUsers) SetRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	if u.failSetHash.Load() {
		return errors.New("db: connection reset")
	}
	return u.UserRepository.SetRefreshTokenHash(ctx, id, hash)
}

type fixture struct {
	svc    Service
	users  *flakyUsers
	mailer *fakeMailer
	sms    *fakeSMS
	issuer *jwtx.Issuer
	bl     *revocation.Blacklist
}

// hashing barato para que los tests no tarden
var testHash = password.Params{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	conn := memory.New()
	iss, err := jwtx.NewIssuer(jwtx.Config{
		AccessSecret:  []byte("access-secret"),
		AccessTTL:     15 * time.Minute,
		RefreshSecret: []byte("refresh-secret"),
		RefreshTTL:    24 * time.Hour,
	})
	require.NoError(t, err)

	bl := revocation.New(cache.NewMemory("test:"), iss.AccessTTL())
	f := &fixture{users: &flakyUsers{UserRepository: conn.Users()}, mailer: &fakeMailer{}, sms: &fakeSMS{}, issuer: iss, bl: bl}
	f.svc = NewService(Deps{
		Users:     f.users,
		OTP:       otp.NewManager(conn.OTPs(), otp.FixedGenerator("1234"), 10*time.Minute),
		Issuer:    iss,
		Blacklist: bl,
		Mailer:    f.mailer,
		SMS:       f.sms,
		Policy:    password.DefaultPolicy,
		Hash:      testHash,
		EchoOTP:   true,
		UploadDir: t.TempDir(),
	})
	return f
}

func (f *fixture) registerVerified(t *testing.T, addr, pwd string) *dto.SessionResult {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.Register(ctx, dto.RegisterRequest{FullName: "Alice", Email: addr, Password: pwd})
	require.NoError(t, err)
	res, err := f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: addr, OTP: "1234"})
	require.NoError(t, err)
	return res
}

func TestRegisterVerifyScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	reg, err := f.svc.Register(ctx, dto.RegisterRequest{
		FullName: "Alice",
		Email:    "  Alice@Example.com ",
		Password: "Secret#123",
		Phone:    "0123456789",
	})
	require.NoError(t, err)
	require.Equal(t, "Registration successful. OTP sent to email.", reg.Message)
	require.Equal(t, "1234", reg.OTP)
	require.Equal(t, "alice@example.com", reg.User.Email)
	require.False(t, reg.User.IsEmailVerified)
	require.True(t, reg.OTPExpire.After(time.Now()))

	require.Equal(t, sentOTP{kind: email.KindVerify, to: "alice@example.com", code: "1234"}, f.mailer.last())
	require.Len(t, f.sms.bodies, 1)
	require.Contains(t, f.sms.bodies[0], "1234")

	res, err := f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "alice@example.com", OTP: "1234"})
	require.NoError(t, err)
	require.Equal(t, "OTP verified successfully", res.Message)
	require.True(t, res.User.IsEmailVerified)
	require.NotEmpty(t, res.AccessToken)
	require.NotEmpty(t, res.RefreshToken)

	// single-use
	_, err = f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "alice@example.com", OTP: "1234"})
	require.ErrorIs(t, err, ErrInvalidOTP)
}

func TestRegisterConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.Register(ctx, dto.RegisterRequest{FullName: "A", Email: "a@example.com", Password: "Secret#123", Phone: "0123456789"})
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, dto.RegisterRequest{FullName: "B", Email: "A@example.com", Password: "Secret#123"})
	require.ErrorIs(t, err, ErrEmailExists)

	_, err = f.svc.Register(ctx, dto.RegisterRequest{FullName: "B", Email: "b@example.com", Password: "Secret#123", Phone: "0123456789"})
	require.ErrorIs(t, err, ErrPhoneExists)
}

func TestRegisterWeakPassword(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), dto.RegisterRequest{FullName: "A", Email: "a@example.com", Password: "abc"})
	require.ErrorIs(t, err, ErrWeakPassword)

	var pe *PolicyError
	require.True(t, errors.As(err, &pe))
	require.NotEmpty(t, pe.Message)
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Login(ctx, dto.LoginRequest{Email: "ghost@example.com", Password: "Secret#123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Register(ctx, dto.RegisterRequest{FullName: "A", Email: "a@example.com", Password: "Secret#123"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "a@example.com", Password: "wrong#123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	// sin verificar: manda OTP, no tokens
	res, err := f.svc.Login(ctx, dto.LoginRequest{Email: "a@example.com", Password: "Secret#123"})
	require.NoError(t, err)
	require.Equal(t, "Email not verified. OTP sent.", res.Message)
	require.True(t, res.OTPSent)
	require.False(t, res.Verified)
	require.Empty(t, res.AccessToken)

	_, err = f.svc.VerifyOTP(ctx, dto.VerifyOTPRequest{Email: "a@example.com", OTP: "1234"})
	require.NoError(t, err)

	res, err = f.svc.Login(ctx, dto.LoginRequest{Email: "A@EXAMPLE.COM", Password: "Secret#123"})
	require.NoError(t, err)
	require.Equal(t, "Login successful", res.Message)
	require.True(t, res.Verified)

	claims, err := f.issuer.VerifyAccess(res.AccessToken)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID())
}

func TestLoginSocialOnlyAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.svc.SocialLogin(ctx, oauth.Identity{Provider: "google", ProviderID: "g-1", Email: "s@example.com", FullName: "S"})
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "s@example.com", Password: "Secret#123"})
	require.ErrorIs(t, err, ErrPasswordLoginUnavailable)
}

func TestRefreshRotation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")

	res, err := f.svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, "Token refreshed successfully", res.Message)
	require.NotEqual(t, sess.RefreshToken, res.RefreshToken)

	// el anterior quedó invalidado
	_, err = f.svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// un access token no sirve como refresh
	_, err = f.svc.Refresh(ctx, res.AccessToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.Refresh(ctx, res.RefreshToken)
	require.NoError(t, err)
}

func TestRefreshStoreFailureIsInvalidToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")

	f.users.failSetHash.Store(true)
	_, err := f.svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)

	// el token no se rotó: sigue sirviendo cuando el store vuelve
	f.users.failSetHash.Store(false)
	_, err = f.svc.Refresh(ctx, sess.RefreshToken)
	require.NoError(t, err)
}

func TestResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")

	_, err := f.svc.ForgotPassword(ctx, "nobody@example.com")
	require.ErrorIs(t, err, ErrUserNotFound)

	fp, err := f.svc.ForgotPassword(ctx, "a@example.com")
	require.NoError(t, err)
	require.Equal(t, "OTP sent to a@example.com", fp.Message)
	require.Equal(t, email.KindReset, f.mailer.last().kind)

	_, err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Email: "a@example.com", OTP: "9999", NewPassword: "Other#456"})
	require.ErrorIs(t, err, ErrInvalidOTP)

	// reuso: 409 y el OTP sigue vigente
	_, err = f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Email: "a@example.com", OTP: "1234", NewPassword: "Secret#123"})
	require.ErrorIs(t, err, ErrPasswordReuse)

	res, err := f.svc.ResetPassword(ctx, dto.ResetPasswordRequest{Email: "a@example.com", OTP: "1234", NewPassword: "Other#456"})
	require.NoError(t, err)
	require.Equal(t, "Password reset successfully", res.Message)

	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "a@example.com", Password: "Secret#123"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, dto.LoginRequest{Email: "a@example.com", Password: "Other#456"})
	require.NoError(t, err)

	// el refresh previo al reset ya no vale
	_, err = f.svc.Refresh(ctx, sess.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")
	id := sess.User.ID

	_, err := f.svc.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "nope#123", NewPassword: "Other#456"})
	require.ErrorIs(t, err, ErrCurrentPasswordIncorrect)

	_, err = f.svc.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "Secret#123", NewPassword: "Secret#123"})
	require.ErrorIs(t, err, ErrPasswordReuse)

	_, err = f.svc.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "Secret#123", NewPassword: "short"})
	require.ErrorIs(t, err, ErrWeakPassword)

	res, err := f.svc.ChangePassword(ctx, id, dto.ChangePasswordRequest{CurrentPassword: "Secret#123", NewPassword: "Other#456"})
	require.NoError(t, err)
	require.Equal(t, "Password Change Successfully.", res.Message)

	_, err = f.svc.ChangePassword(ctx, "missing", dto.ChangePasswordRequest{CurrentPassword: "x", NewPassword: "y"})
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestLogoutBlacklistsToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")

	claims, err := f.issuer.VerifyAccess(sess.AccessToken)
	require.NoError(t, err)

	res, err := f.svc.Logout(ctx, claims)
	require.NoError(t, err)
	require.Equal(t, "Logged out successfully", res.Message)

	revoked, err := f.bl.Contains(ctx, claims.ID)
	require.NoError(t, err)
	require.True(t, revoked)

	// idempotente
	_, err = f.svc.Logout(ctx, claims)
	require.NoError(t, err)
}

func TestSocialLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.SocialLogin(ctx, oauth.Identity{Provider: "google", ProviderID: "g-1"})
	require.ErrorIs(t, err, ErrSocialEmailMissing)

	id := oauth.Identity{Provider: "google", ProviderID: "g-1", Email: "S@Example.com", FullName: "Sam", Picture: "https://img.example.com/p.png"}
	first, err := f.svc.SocialLogin(ctx, id)
	require.NoError(t, err)
	require.Equal(t, "Registration & Login successful", first.Message)
	require.True(t, *first.Verified)
	require.True(t, first.User.IsEmailVerified)
	require.Equal(t, "google", *first.User.Provider)

	second, err := f.svc.SocialLogin(ctx, id)
	require.NoError(t, err)
	require.Equal(t, first.User.ID, second.User.ID)
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	sess := f.registerVerified(t, "a@example.com", "Secret#123")

	name := "Alice B"
	pic := "/uploads/profilePics/new.png"
	v, err := f.svc.UpdateProfile(ctx, sess.User.ID, dto.ProfileUpdate{FullName: &name, ProfilePic: &pic})
	require.NoError(t, err)
	require.Equal(t, "Alice B", v.FullName)
	require.Equal(t, pic, *v.ProfilePic)

	got, err := f.svc.Profile(ctx, sess.User.ID)
	require.NoError(t, err)
	require.Equal(t, "Alice B", got.FullName)

	_, err = f.svc.Profile(ctx, "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}
