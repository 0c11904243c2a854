package catalog

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	cn "github.com/thirdway-labs/modelctl/common/constant"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ModelDependencyPostgreSQLRepository is a Postgresql-specific implementation
// of catalog.ModelDependencyRepository.
type ModelDependencyPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewModelDependencyPostgreSQLRepository returns a new repository instance.
func NewModelDependencyPostgreSQLRepository(pc *mpostgres.PostgresConnection) *ModelDependencyPostgreSQLRepository {
	return &ModelDependencyPostgreSQLRepository{connection: pc}
}

// Add records a (modelID, dependsOnID) edge after verifying it would not
// close a cycle: modelID must be neither dependsOnID itself nor one of
// dependsOnID's descendants.
func (r *ModelDependencyPostgreSQLRepository) Add(ctx context.Context, modelID, dependsOnID uuid.UUID) error {
	descendants, err := r.Descendants(ctx, dependsOnID)
	if err != nil {
		return err
	}

	descendants = append(descendants, dependsOnID)

	for _, d := range descendants {
		if d == modelID {
			return common.UnprocessableOperationError{
				EntityType: "ModelDependency",
				Title:      "Cyclic Model Dependency",
				Code:       cn.ErrCyclicModelDependency.Error(),
				Message:    "Assigning this parent model would create a cycle in the model dependency graph.",
			}
		}
	}

	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Insert("model_dependency").
		Columns("model_id", "depends_on_id").
		Values(modelID.String(), dependsOnID.String()).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// Descendants returns every model ID reachable by following depends_on edges
// away from modelID, via a recursive CTE.
func (r *ModelDependencyPostgreSQLRepository) Descendants(ctx context.Context, modelID uuid.UUID) ([]uuid.UUID, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	const query = `
WITH RECURSIVE walk(model_id, depends_on_id) AS (
	SELECT model_id, depends_on_id FROM model_dependency WHERE model_id = $1
	UNION
	SELECT md.model_id, md.depends_on_id
	FROM model_dependency md
	JOIN walk w ON md.model_id = w.depends_on_id
)
SELECT depends_on_id FROM walk`

	rows, err := db.QueryContext(ctx, query, modelID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var idStr string
		if err := rows.Scan(&idStr); err != nil {
			return nil, err
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
