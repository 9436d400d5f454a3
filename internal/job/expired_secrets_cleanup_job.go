package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/spikeapp/spike-server/internal/pkg/timeutil"
	"github.com/spikeapp/spike-server/internal/repo"
)

// ExpiredSecretsCleanupJob purges verification codes and reset tokens past
// their expiry. Expiry checks at consumption time remain the gate; this
// only keeps the tables from growing without bound.
type ExpiredSecretsCleanupJob struct {
	codes  *repo.EmailVerificationRepo
	tokens *repo.PasswordResetTokenRepo
}

func NewExpiredSecretsCleanupJob(codes *repo.EmailVerificationRepo, tokens *repo.PasswordResetTokenRepo) *ExpiredSecretsCleanupJob {
	return &ExpiredSecretsCleanupJob{codes: codes, tokens: tokens}
}

func (j *ExpiredSecretsCleanupJob) Name() string {
	return "expired_secrets_cleanup"
}

func (j *ExpiredSecretsCleanupJob) Run(ctx context.Context) error {
	now := timeutil.NowUnix()
	codes, err := j.codes.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	tokens, err := j.tokens.DeleteExpired(ctx, now)
	if err != nil {
		return err
	}
	if codes > 0 || tokens > 0 {
		logutil.GetLogger(ctx).Info("purged expired secrets",
			zap.Int64("verification_codes", codes),
			zap.Int64("reset_tokens", tokens))
	}
	return nil
}
