package service

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/spikeapp/spike-server/internal/model"
	"github.com/spikeapp/spike-server/internal/pkg/dbutil"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
	"github.com/spikeapp/spike-server/internal/pkg/jwt"
	"github.com/spikeapp/spike-server/internal/pkg/password"
	"github.com/spikeapp/spike-server/internal/pkg/secrets"
	"github.com/spikeapp/spike-server/internal/pkg/timeutil"
	"github.com/spikeapp/spike-server/internal/repo"
)

const (
	minUsernameLen = 3
	minPasswordLen = 8

	verificationCodeExpireMinutes = 10
	resetTokenExpireMinutes       = 30
)

var codeRegex = regexp.MustCompile(`^[0-9]{6}$`)

// AuthService orchestrates registration, login, email verification, and
// password reset. Multi-step mutations run inside dbutil.WithTx so a crash
// mid-sequence cannot leave a user verified with a stale code or holding
// two live reset tokens.
type AuthService struct {
	db           *sql.DB
	users        *repo.UserRepo
	codes        *repo.EmailVerificationRepo
	tokens       *repo.PasswordResetTokenRepo
	sender       EmailSender
	jwtSecret    []byte
	jwtTTL       time.Duration
	resetURLBase string
	now          func() int64
}

func NewAuthService(db *sql.DB, sender EmailSender, jwtSecret []byte, jwtTTL time.Duration, resetURLBase string) *AuthService {
	return &AuthService{
		db:           db,
		users:        repo.NewUserRepo(db),
		codes:        repo.NewEmailVerificationRepo(db),
		tokens:       repo.NewPasswordResetTokenRepo(db),
		sender:       sender,
		jwtSecret:    jwtSecret,
		jwtTTL:       jwtTTL,
		resetURLBase: resetURLBase,
		now:          timeutil.NowUnix,
	}
}

// Register creates an unverified user, issues a verification code, and
// mails it. A failed send does not fail registration; the user can request
// a resend.
func (s *AuthService) Register(ctx context.Context, username, email, plainPassword string) (*model.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || plainPassword == "" {
		return nil, appErr.Invalidf("username, email and password are required")
	}
	if len(username) < minUsernameLen {
		return nil, appErr.Invalidf("username must be at least %d characters", minUsernameLen)
	}
	if !strings.Contains(email, "@") {
		return nil, appErr.Invalidf("a valid email is required")
	}
	if len(plainPassword) < minPasswordLen {
		return nil, appErr.Invalidf("password must be at least %d characters", minPasswordLen)
	}

	// Pre-insert check for a friendly fast path; the unique constraint at
	// insert time remains the authoritative answer.
	if taken, err := s.users.ExistsByUsername(ctx, username); err != nil {
		return nil, err
	} else if taken {
		return nil, appErr.ErrConflict
	}
	if taken, err := s.users.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	} else if taken {
		return nil, appErr.ErrConflict
	}

	hash, err := password.Hash(plainPassword)
	if err != nil {
		return nil, err
	}
	code, codeHash, err := secrets.NewVerificationCode()
	if err != nil {
		return nil, err
	}
	now := s.now()
	user := &model.User{
		ID:           newID(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Ctime:        now,
	}
	if err := dbutil.WithTx(ctx, s.db, func(ctx context.Context, tx dbutil.DBTX) error {
		if err := repo.NewUserRepo(tx).Create(ctx, user); err != nil {
			return err
		}
		return repo.NewEmailVerificationRepo(tx).Create(ctx, &model.EmailVerificationCode{
			ID:        newID(),
			UserID:    user.ID,
			CodeHash:  codeHash,
			Ctime:     now,
			ExpiresAt: now + verificationCodeExpireMinutes*60,
		})
	}); err != nil {
		return nil, err
	}

	go s.sendVerificationEmail(email, code)
	return user, nil
}

// CheckUsernameAvailable rejects short names locally without touching the
// store.
func (s *AuthService) CheckUsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = strings.TrimSpace(username)
	if len(username) < minUsernameLen {
		return false, nil
	}
	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// Login accepts a username or an email as identifier. The failure is the
// same whether the account is missing or the password is wrong. Email
// verification is not required to log in.
func (s *AuthService) Login(ctx context.Context, identifier, plainPassword string) (string, *model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}
	if identifier == "" || plainPassword == "" {
		return "", nil, appErr.Invalidf("identifier and password are required")
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if appErr.IsNotFound(err) {
			return "", nil, appErr.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if err := password.Compare(user.PasswordHash, plainPassword); err != nil {
		return "", nil, appErr.ErrInvalidCredentials
	}
	token, err := jwt.GenerateToken(user.ID, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// VerifyEmail consumes a live code. Wrong, expired, and absent codes all
// yield the same error. Verifying an already-verified account succeeds
// without state change; the returned flag reports that case.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (alreadyVerified bool, err error) {
	email = strings.ToLower(strings.TrimSpace(email))
	code = strings.TrimSpace(code)
	if email == "" {
		return false, appErr.Invalidf("email is required")
	}
	if !codeRegex.MatchString(code) {
		return false, appErr.Invalidf("code must be 6 digits")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, appErr.ErrInvalidOrExpiredCode
		}
		return false, err
	}
	if user.EmailVerified {
		return true, nil
	}
	row, err := s.codes.GetLiveByUser(ctx, user.ID, s.now())
	if err != nil {
		if appErr.IsNotFound(err) {
			return false, appErr.ErrInvalidOrExpiredCode
		}
		return false, err
	}
	if subtle.ConstantTimeCompare([]byte(secrets.Hash(code)), []byte(row.CodeHash)) != 1 {
		return false, appErr.ErrInvalidOrExpiredCode
	}
	if err := dbutil.WithTx(ctx, s.db, func(ctx context.Context, tx dbutil.DBTX) error {
		if err := repo.NewUserRepo(tx).MarkVerified(ctx, user.ID, s.now()); err != nil {
			return err
		}
		return repo.NewEmailVerificationRepo(tx).DeleteByUser(ctx, user.ID)
	}); err != nil {
		return false, err
	}
	return false, nil
}

// ResendVerification never reveals whether the email belongs to an
// account. A new code supersedes any prior one.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return appErr.Invalidf("email is required")
	}
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	if user.EmailVerified {
		return nil
	}
	code, codeHash, err := secrets.NewVerificationCode()
	if err != nil {
		return err
	}
	now := s.now()
	if err := dbutil.WithTx(ctx, s.db, func(ctx context.Context, tx dbutil.DBTX) error {
		codes := repo.NewEmailVerificationRepo(tx)
		if err := codes.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return codes.Create(ctx, &model.EmailVerificationCode{
			ID:        newID(),
			UserID:    user.ID,
			CodeHash:  codeHash,
			Ctime:     now,
			ExpiresAt: now + verificationCodeExpireMinutes*60,
		})
	}); err != nil {
		return err
	}
	go s.sendVerificationEmail(email, code)
	return nil
}

// ForgotPassword issues a reset token, superseding any prior one, and
// emails a link carrying the plaintext secret. The reply is the same
// whether or not the identifier matches an account.
func (s *AuthService) ForgotPassword(ctx context.Context, identifier string) error {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		identifier = strings.ToLower(identifier)
	}
	if identifier == "" {
		return appErr.Invalidf("identifier is required")
	}
	user, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil
		}
		return err
	}
	plain, tokenHash, err := secrets.NewResetToken()
	if err != nil {
		return err
	}
	now := s.now()
	if err := dbutil.WithTx(ctx, s.db, func(ctx context.Context, tx dbutil.DBTX) error {
		tokens := repo.NewPasswordResetTokenRepo(tx)
		if err := tokens.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return tokens.Create(ctx, &model.PasswordResetToken{
			ID:        newID(),
			UserID:    user.ID,
			TokenHash: tokenHash,
			Ctime:     now,
			ExpiresAt: now + resetTokenExpireMinutes*60,
		})
	}); err != nil {
		return err
	}
	return s.sendResetEmail(ctx, user.Email, plain)
}

// ResetPassword consumes a live reset token and installs the new password
// hash. Every pending token for the user is cleared in the same
// transaction.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return appErr.Invalidf("token is required")
	}
	if len(newPassword) < minPasswordLen {
		return appErr.Invalidf("password must be at least %d characters", minPasswordLen)
	}
	row, err := s.tokens.GetLiveByHash(ctx, secrets.Hash(token), s.now())
	if err != nil {
		if appErr.IsNotFound(err) {
			return appErr.ErrInvalidOrExpiredToken
		}
		return err
	}
	hash, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	return dbutil.WithTx(ctx, s.db, func(ctx context.Context, tx dbutil.DBTX) error {
		if err := repo.NewUserRepo(tx).UpdatePassword(ctx, row.UserID, hash); err != nil {
			return err
		}
		return repo.NewPasswordResetTokenRepo(tx).DeleteByUser(ctx, row.UserID)
	})
}

func (s *AuthService) GetProfile(ctx context.Context, userID string) (*model.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) sendVerificationEmail(email, code string) {
	html, text, err := verificationEmailBody(code, verificationCodeExpireMinutes)
	if err == nil {
		err = s.sender.Send(context.Background(), email, "Your verification code", html, text)
	}
	if err != nil {
		logutil.GetLogger(context.Background()).Error("send verification email failed",
			zap.String("email", email), zap.Error(err))
	}
}

func (s *AuthService) sendResetEmail(ctx context.Context, email, plainToken string) error {
	link := s.resetURLBase + "?token=" + url.QueryEscape(plainToken)
	html, text, err := resetEmailBody(link, resetTokenExpireMinutes)
	if err != nil {
		return err
	}
	return s.sender.Send(ctx, email, "Reset your password", html, text)
}
