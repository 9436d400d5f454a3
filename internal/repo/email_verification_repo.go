package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/spikeapp/spike-server/internal/model"
	"github.com/spikeapp/spike-server/internal/pkg/dbutil"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
)

var verificationCodeFields = []string{"id", "user_id", "code_hash", "ctime", "expires_at"}

type EmailVerificationRepo struct {
	db dbutil.DBTX
}

func NewEmailVerificationRepo(db dbutil.DBTX) *EmailVerificationRepo {
	return &EmailVerificationRepo{db: db}
}

func (r *EmailVerificationRepo) Create(ctx context.Context, code *model.EmailVerificationCode) error {
	data := map[string]interface{}{
		"id":         code.ID,
		"user_id":    code.UserID,
		"code_hash":  code.CodeHash,
		"ctime":      code.Ctime,
		"expires_at": code.ExpiresAt,
	}
	sqlStr, args, err := builder.BuildInsert("email_verification_codes", []map[string]interface{}{data})
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

// GetLiveByUser returns the unexpired code row for the user. There is at
// most one, since issuing a new code deletes prior rows first.
func (r *EmailVerificationRepo) GetLiveByUser(ctx context.Context, userID string, now int64) (*model.EmailVerificationCode, error) {
	where := map[string]interface{}{
		"user_id":      userID,
		"expires_at >": now,
	}
	sqlStr, args, err := builder.BuildSelect("email_verification_codes", where, verificationCodeFields)
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
	var code model.EmailVerificationCode
	if err := rows.Scan(&code.ID, &code.UserID, &code.CodeHash, &code.Ctime, &code.ExpiresAt); err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *EmailVerificationRepo) DeleteByUser(ctx context.Context, userID string) error {
	where := map[string]interface{}{"user_id": userID}
	sqlStr, args, err := builder.BuildDelete("email_verification_codes", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *EmailVerificationRepo) DeleteExpired(ctx context.Context, now int64) (int64, error) {
	where := map[string]interface{}{"expires_at <=": now}
	sqlStr, args, err := builder.BuildDelete("email_verification_codes", where)
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
