package catalog

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ModelPermissionPostgreSQLRepository is a Postgresql-specific implementation
// of catalog.ModelPermissionRepository.
type ModelPermissionPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
	tableName  string
}

// NewModelPermissionPostgreSQLRepository returns a new repository instance.
func NewModelPermissionPostgreSQLRepository(pc *mpostgres.PostgresConnection) *ModelPermissionPostgreSQLRepository {
	return &ModelPermissionPostgreSQLRepository{connection: pc, tableName: "model_permission"}
}

// Upsert grants or updates an explicit per-user permission on a model.
func (r *ModelPermissionPostgreSQLRepository) Upsert(ctx context.Context, perm *mmodel.ModelPermission) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Insert(r.tableName).
		Columns("model_id", "user_id", "permission", "updated_at").
		Values(perm.ModelID, perm.UserID, perm.Permission, time.Now().UTC()).
		Suffix("ON CONFLICT (model_id, user_id) DO UPDATE SET permission = EXCLUDED.permission, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// Find retrieves the explicit grant for (modelID, userID), if any.
func (r *ModelPermissionPostgreSQLRepository) Find(ctx context.Context, modelID, userID uuid.UUID) (*mmodel.ModelPermission, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("model_id", "user_id", "permission").
		From(r.tableName).
		Where(sqrl.Eq{"model_id": modelID.String(), "user_id": userID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	p := &mmodel.ModelPermission{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&p.ModelID, &p.UserID, &p.Permission); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return p, nil
}

// ListByModel returns every explicit grant on a model.
func (r *ModelPermissionPostgreSQLRepository) ListByModel(ctx context.Context, modelID uuid.UUID) ([]*mmodel.ModelPermission, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("model_id", "user_id", "permission").
		From(r.tableName).
		Where(sqrl.Eq{"model_id": modelID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var perms []*mmodel.ModelPermission

	for rows.Next() {
		p := &mmodel.ModelPermission{}
		if err := rows.Scan(&p.ModelID, &p.UserID, &p.Permission); err != nil {
			return nil, err
		}

		perms = append(perms, p)
	}

	return perms, rows.Err()
}
