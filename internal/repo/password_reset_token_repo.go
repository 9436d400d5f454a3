package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/spikeapp/spike-server/internal/model"
	"github.com/spikeapp/spike-server/internal/pkg/dbutil"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
)

var resetTokenFields = []string{"id", "user_id", "token_hash", "ctime", "expires_at"}

type PasswordResetTokenRepo struct {
	db dbutil.DBTX
}

func NewPasswordResetTokenRepo(db dbutil.DBTX) *PasswordResetTokenRepo {
	return &PasswordResetTokenRepo{db: db}
}

func (r *PasswordResetTokenRepo) Create(ctx context.Context, token *model.PasswordResetToken) error {
	data := map[string]interface{}{
		"id":         token.ID,
		"user_id":    token.UserID,
		"token_hash": token.TokenHash,
		"ctime":      token.Ctime,
		"expires_at": token.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("password_reset_tokens", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// GetLiveByHash returns the unexpired token row matching the digest.
func (r *PasswordResetTokenRepo) GetLiveByHash(ctx context.Context, tokenHash string, now int64) (*model.PasswordResetToken, error) {
	where := map[string]interface{}{
		"token_hash":   tokenHash,
		"expires_at >": now,
	}
	sqlStr, args, err := builder.BuildSelect("password_reset_tokens", where, resetTokenFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		return nil, appErr.ErrNotFound
	}
	var token model.PasswordResetToken
	if err := rows.Scan(&token.ID, &token.UserID, &token.TokenHash, &token.Ctime, &token.ExpiresAt); err != nil {
		return nil, err
	}
	return &token, nil
}

// DeleteByUser clears every reset token for the user, both when a token is
// consumed and when a new request supersedes the old one.
func (r *PasswordResetTokenRepo) DeleteByUser(ctx context.Context, userID string) error {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildDelete("password_reset_tokens", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *PasswordResetTokenRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	where := map[string]interface{}{"expires_at <=": now}
	sqlStr, args, err := builder.BuildDelete("password_reset_tokens", where)
	if err != nil {
		return 0, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
