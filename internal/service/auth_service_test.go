package service

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/spikeapp/spike-server/internal/model"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
	"github.com/spikeapp/spike-server/internal/pkg/secrets"
	"github.com/spikeapp/spike-server/internal/pkg/timeutil"
	"github.com/spikeapp/spike-server/internal/testutil"
)

type capturedMail struct {
	to      string
	subject string
	text    string
}

type captureSender struct {
	mu    sync.Mutex
	mails []capturedMail
}

func (s *captureSender) Send(ctx context.Context, to, subject, html, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mails = append(s.mails, capturedMail{to: to, subject: subject, text: text})
	return nil
}

func (s *captureSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mails)
}

func (s *captureSender) last() capturedMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mails[len(s.mails)-1]
}

// resetTokenFromMail pulls the plaintext secret out of the emailed link.
func resetTokenFromMail(t *testing.T, mail capturedMail) string {
	t.Helper()
	idx := strings.Index(mail.text, "?token=")
	require.GreaterOrEqual(t, idx, 0, "no token link in mail body")
	rest := mail.text[idx+len("?token="):]
	if end := strings.IndexAny(rest, ") \n"); end >= 0 {
		rest = rest[:end]
	}
	token, err := url.QueryUnescape(rest)
	require.NoError(t, err)
	return token
}

func newTestService(t *testing.T) (*AuthService, *captureSender, func()) {
	t.Helper()
	db, cleanup := testutil.OpenTestDB(t)
	sender := &captureSender{}
	svc := NewAuthService(db, sender, []byte("test-secret"), 15*time.Minute, "https://spike.example/reset-password")
	return svc, sender, cleanup
}

// seedCode replaces any live code for the user with one whose plaintext is
// known to the test.
func seedCode(t *testing.T, svc *AuthService, userID, plain string, expiresAt int64) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.codes.DeleteByUser(ctx, userID))
	require.NoError(t, svc.codes.Create(ctx, &model.EmailVerificationCode{
		ID:        newID(),
		UserID:    userID,
		CodeHash:  secrets.Hash(plain),
		Ctime:     timeutil.NowUnix(),
		ExpiresAt: expiresAt,
	}))
}

func TestRegisterValidation(t *testing.T) {
	svc := NewAuthService(nil, &captureSender{}, []byte("s"), time.Minute, "")
	ctx := context.Background()

	cases := []struct {
		name, username, email, password string
	}{
		{"missing fields", "", "", ""},
		{"short username", "ab", "a@x.com", "password123"},
		{"email without at", "alice", "not-an-email", "password123"},
		{"short password", "alice", "a@x.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			require.ErrorIs(t, err, appErr.ErrInvalid)
		})
	}
}

func TestLoginValidation(t *testing.T) {
	svc := NewAuthService(nil, &captureSender{}, []byte("s"), time.Minute, "")
	_, _, err := svc.Login(context.Background(), "", "")
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestResetPasswordValidation(t *testing.T) {
	svc := NewAuthService(nil, &captureSender{}, []byte("s"), time.Minute, "")
	require.ErrorIs(t, svc.ResetPassword(context.Background(), "", "password123"), appErr.ErrInvalid)
	require.ErrorIs(t, svc.ResetPassword(context.Background(), "sometoken", "short"), appErr.ErrInvalid)
}

func TestCheckUsernameAvailableShortNameSkipsStore(t *testing.T) {
	// nil db: a store hit would panic, so this also proves the local
	// rejection path never queries.
	svc := NewAuthService(nil, &captureSender{}, []byte("s"), time.Minute, "")
	available, err := svc.CheckUsernameAvailable(context.Background(), "ab")
	require.NoError(t, err)
	require.False(t, available)
}

func TestRegisterAndLogin(t *testing.T) {
	svc, sender, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice", " Alice@X.com ", "password123")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Username)
	require.Equal(t, "alice@x.com", user.Email)
	require.False(t, user.EmailVerified)
	require.NotEqual(t, "password123", user.PasswordHash)

	// same username, different email
	_, err = svc.Register(ctx, "alice", "other@x.com", "password123")
	require.ErrorIs(t, err, appErr.ErrConflict)
	// same email, different username
	_, err = svc.Register(ctx, "alice2", "alice@x.com", "password123")
	require.ErrorIs(t, err, appErr.ErrConflict)

	// login works while still unverified, by username or email
	token, got, err := svc.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.Equal(t, user.ID, got.ID)
	_, _, err = svc.Login(ctx, "Alice@X.com", "password123")
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, "alice", "wrongpassword")
	require.ErrorIs(t, err, appErr.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "nobody", "password123")
	require.ErrorIs(t, err, appErr.ErrInvalidCredentials)

	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, "alice@x.com", sender.last().to)
}

func TestVerifyEmail(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, "bob", "bob@x.com", "password123")
	require.NoError(t, err)
	seedCode(t, svc, user.ID, "123456", timeutil.NowUnix()+600)

	_, err = svc.VerifyEmail(ctx, "bob@x.com", "000000")
	require.ErrorIs(t, err, appErr.ErrInvalidOrExpiredCode)
	_, err = svc.VerifyEmail(ctx, "bob@x.com", "12345")
	require.ErrorIs(t, err, appErr.ErrInvalid)
	_, err = svc.VerifyEmail(ctx, "ghost@x.com", "123456")
	require.ErrorIs(t, err, appErr.ErrInvalidOrExpiredCode)

	already, err := svc.VerifyEmail(ctx, "bob@x.com", "123456")
	require.NoError(t, err)
	require.False(t, already)

	got, err := svc.GetProfile(ctx, user.ID)
	require.NoError(t, err)
	require.True(t, got.EmailVerified)
	require.NotZero(t, got.VerifiedAt)

	// idempotent: re-verifying is a success without state change, even
	// with a code that no longer exists
	already, err = svc.VerifyEmail(ctx, "bob@x.com", "123456")
	require.NoError(t, err)
	require.True(t, already)
}

func TestVerifyEmailExpiryBoundary(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, "carol", "carol@x.com", "password123")
	require.NoError(t, err)

	issued := timeutil.NowUnix()
	expiresAt := issued + 600
	seedCode(t, svc, user.ID, "123456", expiresAt)

	// one second past expiry: rejected
	svc.now = func() int64 { return expiresAt + 1 }
	_, err = svc.VerifyEmail(ctx, "carol@x.com", "123456")
	require.ErrorIs(t, err, appErr.ErrInvalidOrExpiredCode)

	// one second before expiry: consumed
	svc.now = func() int64 { return expiresAt - 1 }
	already, err := svc.VerifyEmail(ctx, "carol@x.com", "123456")
	require.NoError(t, err)
	require.False(t, already)
}

func TestResendVerificationSupersedesCode(t *testing.T) {
	svc, sender, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, "dave", "dave@x.com", "password123")
	require.NoError(t, err)
	seedCode(t, svc, user.ID, "111111", timeutil.NowUnix()+600)

	require.NoError(t, svc.ResendVerification(ctx, "dave@x.com"))

	// the old code is superseded by the freshly issued one
	_, err = svc.VerifyEmail(ctx, "dave@x.com", "111111")
	require.ErrorIs(t, err, appErr.ErrInvalidOrExpiredCode)

	// wait out the async sends from Register and ResendVerification
	require.Eventually(t, func() bool { return sender.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	// unknown email is silently accepted, nothing sent
	before := sender.count()
	require.NoError(t, svc.ResendVerification(ctx, "ghost@x.com"))
	require.Equal(t, before, sender.count())
}

func TestForgotAndResetPassword(t *testing.T) {
	svc, sender, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, "erin", "erin@x.com", "password123")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.ForgotPassword(ctx, "erin"))
	mail := sender.last()
	require.Equal(t, "erin@x.com", mail.to)
	token := resetTokenFromMail(t, mail)

	require.NoError(t, svc.ResetPassword(ctx, token, "newpassword1"))

	_, _, err = svc.Login(ctx, "erin", "password123")
	require.ErrorIs(t, err, appErr.ErrInvalidCredentials)
	_, _, err = svc.Login(ctx, "erin", "newpassword1")
	require.NoError(t, err)

	// single-use: consuming the same token again fails
	require.ErrorIs(t, svc.ResetPassword(ctx, token, "anotherpass1"), appErr.ErrInvalidOrExpiredToken)
}

func TestForgotPasswordSupersedesToken(t *testing.T) {
	svc, sender, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.Register(ctx, "frank", "frank@x.com", "password123")
	require.NoError(t, err)
	require.Eventually(t, func() bool { return sender.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, svc.ForgotPassword(ctx, "frank@x.com"))
	first := resetTokenFromMail(t, sender.last())
	require.NoError(t, svc.ForgotPassword(ctx, "frank@x.com"))
	second := resetTokenFromMail(t, sender.last())
	require.NotEqual(t, first, second)

	require.ErrorIs(t, svc.ResetPassword(ctx, first, "newpassword1"), appErr.ErrInvalidOrExpiredToken)
	require.NoError(t, svc.ResetPassword(ctx, second, "newpassword1"))
}

func TestForgotPasswordUnknownIdentifier(t *testing.T) {
	svc, sender, cleanup := newTestService(t)
	defer cleanup()

	require.NoError(t, svc.ForgotPassword(context.Background(), "ghost@x.com"))
	require.Equal(t, 0, sender.count())
}

func TestExpiredSecretsAreInvisibleToLookup(t *testing.T) {
	svc, _, cleanup := newTestService(t)
	defer cleanup()
	ctx := context.Background()

	user, err := svc.Register(ctx, "gina", "gina@x.com", "password123")
	require.NoError(t, err)

	now := timeutil.NowUnix()
	require.NoError(t, svc.tokens.Create(ctx, &model.PasswordResetToken{
		ID:        newID(),
		UserID:    user.ID,
		TokenHash: secrets.Hash("expired-token"),
		Ctime:     now - 3600,
		ExpiresAt: now - 1800,
	}))
	require.ErrorIs(t, svc.ResetPassword(ctx, "expired-token", "newpassword1"), appErr.ErrInvalidOrExpiredToken)

	// the janitor's delete target matches what lookups already ignore
	n, err := svc.tokens.DeleteExpired(ctx, now)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}
