package identity

import (
	"context"
	"database/sql"
	"errors"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ResetCodePostgreSQLRepository is a Postgresql-specific implementation of
// identity.ResetCodeRepository. A user holds at most one active code, so Put
// upserts on user_id.
type ResetCodePostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewResetCodePostgreSQLRepository returns a new instance of ResetCodePostgreSQLRepository.
func NewResetCodePostgreSQLRepository(pc *mpostgres.PostgresConnection) *ResetCodePostgreSQLRepository {
	return &ResetCodePostgreSQLRepository{connection: pc}
}

// Put upserts the single active reset code for a user.
func (r *ResetCodePostgreSQLRepository) Put(ctx context.Context, code *mmodel.ResetCode) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Insert("reset_code").
		Columns("user_id", "code_hash", "expires_at", "used").
		Values(code.UserID, code.CodeHash, code.ExpiresAt, code.Used).
		Suffix("ON CONFLICT (user_id) DO UPDATE SET code_hash = EXCLUDED.code_hash, expires_at = EXCLUDED.expires_at, used = EXCLUDED.used").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// Find retrieves the active reset code for a user, if any.
func (r *ResetCodePostgreSQLRepository) Find(ctx context.Context, userID uuid.UUID) (*mmodel.ResetCode, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("user_id", "code_hash", "expires_at", "used").
		From("reset_code").
		Where(sqrl.Eq{"user_id": userID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	c := &mmodel.ResetCode{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&c.UserID, &c.CodeHash, &c.ExpiresAt, &c.Used); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return c, nil
}

// MarkUsed flags a reset code as consumed so it cannot be replayed.
func (r *ResetCodePostgreSQLRepository) MarkUsed(ctx context.Context, userID uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Update("reset_code").
		Set("used", true).
		Where(sqrl.Eq{"user_id": userID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}
