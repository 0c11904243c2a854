package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// ModelMetadataPostgreSQLRepository is a Postgresql-specific implementation
// of catalog.ModelMetadataRepository. General and Train are stored as JSONB
// columns; each upsert merges the new top-level keys into the stored objects.
type ModelMetadataPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewModelMetadataPostgreSQLRepository returns a new repository instance.
func NewModelMetadataPostgreSQLRepository(pc *mpostgres.PostgresConnection) *ModelMetadataPostgreSQLRepository {
	return &ModelMetadataPostgreSQLRepository{connection: pc}
}

// Upsert merges general/train metadata for a model.
func (r *ModelMetadataPostgreSQLRepository) Upsert(ctx context.Context, meta *mmodel.ModelMetadata) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	generalMap, trainMap := meta.General, meta.Train
	if generalMap == nil {
		generalMap = map[string]any{}
	}

	if trainMap == nil {
		trainMap = map[string]any{}
	}

	general, err := json.Marshal(generalMap)
	if err != nil {
		return err
	}

	train, err := json.Marshal(trainMap)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Insert("model_metadata").
		Columns("model_id", "general", "train", "updated_at").
		Values(meta.ModelID, general, train, time.Now().UTC()).
		Suffix("ON CONFLICT (model_id) DO UPDATE SET general = model_metadata.general || EXCLUDED.general, train = model_metadata.train || EXCLUDED.train, updated_at = EXCLUDED.updated_at").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// Find retrieves a model's metadata row.
func (r *ModelMetadataPostgreSQLRepository) Find(ctx context.Context, modelID uuid.UUID) (*mmodel.ModelMetadata, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("model_id", "general", "train", "updated_at").
		From("model_metadata").
		Where(sqrl.Eq{"model_id": modelID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	var general, train []byte

	meta := &mmodel.ModelMetadata{}

	if err := db.QueryRowContext(ctx, query, args...).Scan(&meta.ModelID, &general, &train, &meta.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	if err := json.Unmarshal(general, &meta.General); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(train, &meta.Train); err != nil {
		return nil, err
	}

	return meta, nil
}
