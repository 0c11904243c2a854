package catalog

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
	"github.com/bxcodec/dbresolver/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

// ModelPostgreSQLRepository is a Postgresql-specific implementation of catalog.ModelRepository.
type ModelPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
	tableName  string
}

// NewModelPostgreSQLRepository returns a new instance of ModelPostgreSQLRepository using the given Postgres connection.
func NewModelPostgreSQLRepository(pc *mpostgres.PostgresConnection) *ModelPostgreSQLRepository {
	r := &ModelPostgreSQLRepository{
		connection: pc,
		tableName:  "model",
	}

	if _, err := r.connection.GetDB(context.Background()); err != nil {
		panic("Failed to connect database")
	}

	return r
}

// Create inserts a new model entity into Postgresql and returns it.
func (r *ModelPostgreSQLRepository) Create(ctx context.Context, model *mmodel.Model) (*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	model.ID = common.GenerateUUIDv7().String()
	model.CreatedAt = time.Now().UTC()
	model.UpdatedAt = model.CreatedAt

	insert := sqrl.Insert(r.tableName).
		Columns("id", "name", "owner_user_id", "team_id", "access", "default_permission",
			"kind", "sub_kind", "train_state", "parent_model_id", "published_at", "size_bytes",
			"created_at", "updated_at").
		Values(model.ID, model.Name, model.OwnerUserID, model.TeamID, model.Access, model.DefaultPermission,
			model.Kind, model.SubKind, model.TrainState, model.ParentModelID, model.PublishedAt, model.SizeBytes,
			model.CreatedAt, model.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := insert.ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.EntityConflictError{
				EntityType: reflect.TypeOf(mmodel.Model{}).Name(),
				Title:      "Duplicate Model Name",
				Code:       cn.ErrDuplicateModelName.Error(),
				Message:    "A model with this name already exists for this owner.",
			}
		}

		return nil, err
	}

	return model, nil
}

// Update applies a partial update to a model row.
func (r *ModelPostgreSQLRepository) Update(ctx context.Context, id uuid.UUID, model *mmodel.Model) (*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	model.UpdatedAt = time.Now().UTC()

	update := sqrl.Update(r.tableName).
		Set("access", model.Access).
		Set("default_permission", model.DefaultPermission).
		Set("train_state", model.TrainState).
		Set("parent_model_id", model.ParentModelID).
		Set("published_at", model.PublishedAt).
		Set("size_bytes", model.SizeBytes).
		Set("updated_at", model.UpdatedAt).
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := update.ToSql()
	if err != nil {
		return nil, err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return nil, newModelNotFoundError()
	}

	model.ID = id.String()

	return model, nil
}

// Find retrieves a model by ID.
func (r *ModelPostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	sel := sqrl.Select(modelColumns()...).
		From(r.tableName).
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	m := &mmodel.Model{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(scanTargets(m)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newModelNotFoundError()
		}

		return nil, err
	}

	return m, nil
}

// FindByOwnerAndName retrieves a model by its (owner, name) unique key.
func (r *ModelPostgreSQLRepository) FindByOwnerAndName(ctx context.Context, ownerID uuid.UUID, name string) (*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	sel := sqrl.Select(modelColumns()...).
		From(r.tableName).
		Where(sqrl.Eq{"owner_user_id": ownerID.String(), "name": name}).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	m := &mmodel.Model{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(scanTargets(m)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newModelNotFoundError()
		}

		return nil, err
	}

	return m, nil
}

// ListVisible expresses list_visible(caller) (spec §4.2) as a single
// disjunction: public, OR (protected AND member of one of teamIDs), OR
// owner, OR explicit grant — built with squirrel instead of the teacher's
// ad hoc string concatenation in the now-removed mpostgres helper layer.
// The caller's global-admin flag is not an input, so a global admin sees
// only the models these four clauses admit.
func (r *ModelPostgreSQLRepository) ListVisible(ctx context.Context, userID uuid.UUID, teamIDs []uuid.UUID, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	visible := sqrl.Or{
		sqrl.Eq{"access": "public"},
		sqrl.Eq{"owner_user_id": userID.String()},
	}

	visible = append(visible, sqrl.Expr(
		"id IN (SELECT model_id FROM model_permission WHERE user_id = ?)", userID.String()))

	if len(teamIDs) > 0 {
		teamStrs := make([]string, len(teamIDs))
		for i, t := range teamIDs {
			teamStrs[i] = t.String()
		}

		visible = append(visible, sqrl.And{
			sqrl.Eq{"access": "protected"},
			sqrl.Eq{"team_id": teamStrs},
		})
	}

	sel := applyModelFilter(sqrl.Select(modelColumns()...).
		From(r.tableName).
		Where(visible), filter).
		OrderBy("created_at DESC").
		Limit(common.SafeIntToUint64(limit)).
		Offset(common.SafeIntToUint64((page - 1) * limit)).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	return r.queryModels(ctx, db, query, args)
}

// ListPublic lists public models, ignoring ownership and team membership
// entirely; used by the unauthenticated public-list and public-download
// endpoints (spec §4.2's synthetic public principal).
func (r *ModelPostgreSQLRepository) ListPublic(ctx context.Context, filter mmodel.ModelFilter, limit, page int) ([]*mmodel.Model, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	sel := applyModelFilter(sqrl.Select(modelColumns()...).
		From(r.tableName).
		Where(sqrl.Eq{"access": mmodel.AccessPublic}), filter).
		OrderBy("created_at DESC").
		Limit(common.SafeIntToUint64(limit)).
		Offset(common.SafeIntToUint64((page - 1) * limit)).
		PlaceholderFormat(sqrl.Dollar)

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	return r.queryModels(ctx, db, query, args)
}

func (r *ModelPostgreSQLRepository) queryModels(ctx context.Context, db dbresolver.DB, query string, args []any) ([]*mmodel.Model, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var models []*mmodel.Model

	for rows.Next() {
		m := &mmodel.Model{}
		if err := rows.Scan(scanTargets(m)...); err != nil {
			return nil, err
		}

		models = append(models, m)
	}

	return models, rows.Err()
}

// applyModelFilter narrows sel by the optional, non-zero fields of filter.
func applyModelFilter(sel sqrl.SelectBuilder, filter mmodel.ModelFilter) sqrl.SelectBuilder {
	if filter.Name != "" {
		sel = sel.Where(sqrl.Like{"name": "%" + filter.Name + "%"})
	}

	if filter.Kind != "" {
		sel = sel.Where(sqrl.Eq{"kind": filter.Kind})
	}

	if filter.SubKind != "" {
		sel = sel.Where(sqrl.Eq{"sub_kind": filter.SubKind})
	}

	if filter.AccessLevel != "" {
		sel = sel.Where(sqrl.Eq{"access": filter.AccessLevel})
	}

	return sel
}

// Delete removes a model row. Cascading deletes of metadata, permissions,
// and dependency edges are enforced by foreign-key ON DELETE CASCADE; child
// models are re-parented to null by an ON DELETE SET NULL on parent_model_id.
func (r *ModelPostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	del := sqrl.Delete(r.tableName).Where(sqrl.Eq{"id": id.String()}).PlaceholderFormat(sqrl.Dollar)

	query, args, err := del.ToSql()
	if err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	if rows, _ := result.RowsAffected(); rows == 0 {
		return newModelNotFoundError()
	}

	return nil
}

func modelColumns() []string {
	return []string{"id", "name", "owner_user_id", "team_id", "access", "default_permission",
		"kind", "sub_kind", "train_state", "parent_model_id", "published_at", "size_bytes",
		"created_at", "updated_at"}
}

func scanTargets(m *mmodel.Model) []any {
	return []any{&m.ID, &m.Name, &m.OwnerUserID, &m.TeamID, &m.Access, &m.DefaultPermission,
		&m.Kind, &m.SubKind, &m.TrainState, &m.ParentModelID, &m.PublishedAt, &m.SizeBytes,
		&m.CreatedAt, &m.UpdatedAt}
}

func newModelNotFoundError() error {
	return common.EntityNotFoundError{
		EntityType: reflect.TypeOf(mmodel.Model{}).Name(),
		Title:      "Model Not Found",
		Code:       cn.ErrModelNotFound.Error(),
		Message:    "No model was found matching the provided ID.",
	}
}
