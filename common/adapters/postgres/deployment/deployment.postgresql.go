package deployment

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQLRepository is a Postgresql-specific implementation of deployment.Repository.
type PostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
	tableName  string
}

// NewPostgreSQLRepository returns a new instance of PostgreSQLRepository.
func NewPostgreSQLRepository(pc *mpostgres.PostgresConnection) *PostgreSQLRepository {
	r := &PostgreSQLRepository{connection: pc, tableName: "deployment"}

	if _, err := r.connection.GetDB(context.Background()); err != nil {
		panic("Failed to connect database")
	}

	return r
}

func columns() []string {
	return []string{"id", "name", "owner_user_id", "source_model_id", "state",
		"autoscaling_enabled", "published_at", "created_at", "updated_at"}
}

func scanTargets(d *mmodel.Deployment) []any {
	return []any{&d.ID, &d.Name, &d.OwnerUserID, &d.SourceModelID, &d.State,
		&d.AutoscalingEnabled, &d.PublishedAt, &d.CreatedAt, &d.UpdatedAt}
}

// Create inserts a new deployment row.
func (r *PostgreSQLRepository) Create(ctx context.Context, d *mmodel.Deployment) (*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	d.ID = common.GenerateUUIDv7().String()
	d.CreatedAt = time.Now().UTC()
	d.UpdatedAt = d.CreatedAt

	query, args, err := sqrl.Insert(r.tableName).
		Columns(columns()...).
		Values(d.ID, d.Name, d.OwnerUserID, d.SourceModelID, d.State, d.AutoscalingEnabled,
			d.PublishedAt, d.CreatedAt, d.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.EntityConflictError{
				EntityType: reflect.TypeOf(mmodel.Deployment{}).Name(),
				Title:      "Duplicate Deployment Name",
				Code:       cn.ErrDuplicateDeploymentName.Error(),
				Message:    "A deployment with this name already exists for this owner.",
			}
		}

		return nil, err
	}

	return d, nil
}

// Update applies a partial update to a deployment row (state transitions).
func (r *PostgreSQLRepository) Update(ctx context.Context, id uuid.UUID, d *mmodel.Deployment) (*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	d.UpdatedAt = time.Now().UTC()

	query, args, err := sqrl.Update(r.tableName).
		Set("state", d.State).
		Set("autoscaling_enabled", d.AutoscalingEnabled).
		Set("published_at", d.PublishedAt).
		Set("updated_at", d.UpdatedAt).
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, newDeploymentNotFoundError()
	}

	d.ID = id.String()

	return d, nil
}

// Find retrieves a deployment by ID.
func (r *PostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select(columns()...).
		From(r.tableName).
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	d := &mmodel.Deployment{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(scanTargets(d)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newDeploymentNotFoundError()
		}

		return nil, err
	}

	return d, nil
}

// FindByOwnerAndName retrieves a deployment by its (owner, name) unique key.
func (r *PostgreSQLRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select(columns()...).
		From(r.tableName).
		Where(sqrl.Eq{"owner_user_id": ownerID.String(), "name": name}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	d := &mmodel.Deployment{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(scanTargets(d)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newDeploymentNotFoundError()
		}

		return nil, err
	}

	return d, nil
}

// ListByOwner lists deployments owned by a user, paginated.
func (r *PostgreSQLRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, page int) ([]*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select(columns()...).
		From(r.tableName).
		Where(sqrl.Eq{"owner_user_id": ownerID.String()}).
		OrderBy("created_at DESC").
		Limit(common.SafeIntToUint64(limit)).
		Offset(common.SafeIntToUint64((page - 1) * limit)).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanRows(ctx, db, query, args)
}

// ListBySourceModel lists every deployment built from a given source model,
// used by the delete-model flow to reject deletion while deployments exist.
func (r *PostgreSQLRepository) ListBySourceModel(ctx context.Context, modelID uuid.UUID) ([]*mmodel.Deployment, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select(columns()...).
		From(r.tableName).
		Where(sqrl.Eq{"source_model_id": modelID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	return r.scanRows(ctx, db, query, args)
}

func (r *PostgreSQLRepository) scanRows(ctx context.Context, db interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}, query string, args []any) ([]*mmodel.Deployment, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deployments []*mmodel.Deployment

	for rows.Next() {
		d := &mmodel.Deployment{}
		if err := rows.Scan(scanTargets(d)...); err != nil {
			return nil, err
		}

		deployments = append(deployments, d)
	}

	return deployments, rows.Err()
}

// Delete removes a deployment row.
func (r *PostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Delete(r.tableName).
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return newDeploymentNotFoundError()
	}

	return nil
}

func newDeploymentNotFoundError() error {
	return common.EntityNotFoundError{
		EntityType: reflect.TypeOf(mmodel.Deployment{}).Name(),
		Title:      "Deployment Not Found",
		Code:       cn.ErrDeploymentNotFound.Error(),
		Message:    "No deployment was found matching the provided ID.",
	}
}
