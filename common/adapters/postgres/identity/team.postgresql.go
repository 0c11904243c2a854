package identity

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
)

// TeamPostgreSQLRepository is a Postgresql-specific implementation of identity.TeamRepository.
type TeamPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
}

// NewTeamPostgreSQLRepository returns a new instance of TeamPostgreSQLRepository.
func NewTeamPostgreSQLRepository(pc *mpostgres.PostgresConnection) *TeamPostgreSQLRepository {
	return &TeamPostgreSQLRepository{connection: pc}
}

// Create inserts a new team row.
func (r *TeamPostgreSQLRepository) Create(ctx context.Context, team *mmodel.Team) (*mmodel.Team, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	team.ID = common.GenerateUUIDv7().String()
	team.CreatedAt = time.Now().UTC()

	query, args, err := sqrl.Insert("team").
		Columns("id", "name", "created_at").
		Values(team.ID, team.Name, team.CreatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return nil, err
	}

	return team, nil
}

// Find retrieves a team by ID.
func (r *TeamPostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.Team, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("id", "name", "created_at").
		From("team").
		Where(sqrl.Eq{"id": id.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	t := &mmodel.Team{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.EntityNotFoundError{
				EntityType: reflect.TypeOf(mmodel.Team{}).Name(),
				Title:      "Team Not Found",
				Code:       cn.ErrTeamNotFound.Error(),
				Message:    "No team was found matching the provided ID.",
			}
		}

		return nil, err
	}

	return t, nil
}

// List returns every team in the catalog.
func (r *TeamPostgreSQLRepository) List(ctx context.Context) ([]*mmodel.Team, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("id", "name", "created_at").
		From("team").
		OrderBy("created_at DESC").
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

	var teams []*mmodel.Team

	for rows.Next() {
		t := &mmodel.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}

		teams = append(teams, t)
	}

	return teams, rows.Err()
}

// Delete removes a team row. Membership rows cascade via ON DELETE CASCADE.
func (r *TeamPostgreSQLRepository) Delete(ctx context.Context, id uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Delete("team").
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
		return common.EntityNotFoundError{
			EntityType: reflect.TypeOf(mmodel.Team{}).Name(),
			Title:      "Team Not Found",
			Code:       cn.ErrTeamNotFound.Error(),
			Message:    "No team was found matching the provided ID.",
		}
	}

	return nil
}

// ListMembers lists every membership row for a team.
func (r *TeamPostgreSQLRepository) ListMembers(ctx context.Context, teamID uuid.UUID) ([]*mmodel.TeamMembership, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("team_id", "user_id", "role").
		From("team_membership").
		Where(sqrl.Eq{"team_id": teamID.String()}).
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

	var members []*mmodel.TeamMembership

	for rows.Next() {
		m := &mmodel.TeamMembership{}
		if err := rows.Scan(&m.TeamID, &m.UserID, &m.Role); err != nil {
			return nil, err
		}

		members = append(members, m)
	}

	return members, rows.Err()
}

// AddMember inserts or updates a (user, team) membership row.
func (r *TeamPostgreSQLRepository) AddMember(ctx context.Context, m *mmodel.TeamMembership) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Insert("team_membership").
		Columns("team_id", "user_id", "role").
		Values(m.TeamID, m.UserID, m.Role).
		Suffix("ON CONFLICT (team_id, user_id) DO UPDATE SET role = EXCLUDED.role").
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// RemoveMember deletes a (user, team) membership row.
func (r *TeamPostgreSQLRepository) RemoveMember(ctx context.Context, teamID, userID uuid.UUID) error {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return err
	}

	query, args, err := sqrl.Delete("team_membership").
		Where(sqrl.Eq{"team_id": teamID.String(), "user_id": userID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, query, args...)

	return err
}

// Membership retrieves a (user, team) membership row, if any.
func (r *TeamPostgreSQLRepository) Membership(ctx context.Context, teamID, userID uuid.UUID) (*mmodel.TeamMembership, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("team_id", "user_id", "role").
		From("team_membership").
		Where(sqrl.Eq{"team_id": teamID.String(), "user_id": userID.String()}).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	m := &mmodel.TeamMembership{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(&m.TeamID, &m.UserID, &m.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, err
	}

	return m, nil
}

// ListTeamsForUser lists every team a user belongs to.
func (r *TeamPostgreSQLRepository) ListTeamsForUser(ctx context.Context, userID uuid.UUID) ([]*mmodel.Team, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select("t.id", "t.name", "t.created_at").
		From("team t").
		Join("team_membership tm ON tm.team_id = t.id").
		Where(sqrl.Eq{"tm.user_id": userID.String()}).
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

	var teams []*mmodel.Team

	for rows.Next() {
		t := &mmodel.Team{}
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}

		teams = append(teams, t)
	}

	return teams, rows.Err()
}
