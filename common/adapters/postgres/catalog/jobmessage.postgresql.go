package catalog

import (
	"context"
	"time"

	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mmodel"
	"github.com/thirdway-labs/modelctl/common/mpostgres"
	sqrl "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// JobMessagePostgreSQLRepository is a Postgresql-specific implementation of
// catalog.JobMessageRepository. Append-only: rows are never updated or
// deleted, only ever added to a model's job history.
type JobMessagePostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewJobMessagePostgreSQLRepository returns a new repository instance.
func NewJobMessagePostgreSQLRepository(pc *mpostgres.PostgresConnection) *JobMessagePostgreSQLRepository {
	return &JobMessagePostgreSQLRepository{connection: pc}
}

// Append adds a diagnostic line to a model's job history.
func (r *JobMessagePostgreSQLRepository) Append(ctx context.Context, msg *mmodel.JobMessage) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	msg.ID = common.GenerateUUIDv7().String()
	msg.Timestamp = time.Now().UTC()

	query, args, err := sqrl.Insert("job_message").
		Columns("id", "model_id", "timestamp", "kind", "level", "text").
		Values(msg.ID, msg.ModelID, msg.Timestamp, msg.Kind, msg.Level, msg.Text).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// ListByModel lists the job history for a model, newest first.
func (r *JobMessagePostgreSQLRepository) ListByModel(ctx context.Context, modelID uuid.UUID, limit, page int) ([]*mmodel.JobMessage, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("id", "model_id", "timestamp", "kind", "level", "text").
		From("job_message").
		Where(sqrl.Eq{"model_id": modelID.String()}).
		OrderBy("timestamp DESC").
		Limit(common.SafeIntToUint64(limit)).
		Offset(common.SafeIntToUint64((page - 1) * limit)).
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

	var messages []*mmodel.JobMessage

	for rows.Next() {
		m := &mmodel.JobMessage{}
		if err := rows.Scan(&m.ID, &m.ModelID, &m.Timestamp, &m.Kind, &m.Level, &m.Text); err != nil {
			return nil, err
		}

		messages = append(messages, m)
	}

	return messages, rows.Err()
}
