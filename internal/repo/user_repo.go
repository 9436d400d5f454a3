package repo

import (
	"context"

	"github.com/didi/gendry/builder"

	"github.com/spikeapp/spike-server/internal/model"
	"github.com/spikeapp/spike-server/internal/pkg/dbutil"
	appErr "github.com/spikeapp/spike-server/internal/pkg/errors"
)

var userFields = []string{"id", "username", "email", "password_hash", "email_verified", "verified_at", "ctime"}

type UserRepo struct {
	db dbutil.DBTX
}

// NewUserRepo binds a repo to db, which may be a *sql.DB or a transaction
// handle from dbutil.WithTx.
func NewUserRepo(db dbutil.DBTX) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":             user.ID,
		"username":       user.Username,
		"email":          user.Email,
		"password_hash":  user.PasswordHash,
		"email_verified": user.EmailVerified,
		"verified_at":    user.VerifiedAt,
		"ctime":          user.Ctime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
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

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

// GetByIdentifier matches either the username or the email column.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{
		"_or": []map[string]interface{}{
			{"username": identifier},
			{"email": identifier},
		},
	})
}

func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, map[string]interface{}{"username": username})
}

func (r *UserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) MarkVerified(ctx context.Context, userID string, verifiedAt int64) error {
	update := map[string]interface{}{
		"email_verified": true,
		"verified_at":    verifiedAt,
	}
	return r.update(ctx, userID, update)
}

func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.update(ctx, userID, map[string]interface{}{"password_hash": passwordHash})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userFields)
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
	var user model.User
	if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.EmailVerified, &user.VerifiedAt, &user.Ctime); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) exists(ctx context.Context, where map[string]interface{}) (bool, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, []string{"id"})
	if err != nil {
		return false, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()
	return rows.Next(), nil
}

func (r *UserRepo) update(ctx context.Context, userID string, update map[string]interface{}) error {
	where := map[string]interface{}{"id": userID}
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
