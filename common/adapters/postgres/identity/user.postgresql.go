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
	"github.com/jackc/pgx/v5/pgconn"
)

// UserPostgreSQLRepository is a Postgresql-specific implementation of identity.UserRepository.
type UserPostgreSQLRepository struct {
	connection *mpostgres.PostgresConnection
	tableName  string
}

// NewUserPostgreSQLRepository returns a new instance of UserPostgreSQLRepository using the given Postgres connection.
func NewUserPostgreSQLRepository(pc *mpostgres.PostgresConnection) *UserPostgreSQLRepository {
	r := &UserPostgreSQLRepository{connection: pc, tableName: "app_user"}

	if _, err := r.connection.GetDB(context.Background()); err != nil {
		panic("Failed to connect database")
	}

	return r
}

func userColumns() []string {
	return []string{"id", "username", "email", "verified", "global_admin", "password_hash",
		"federated_id", "created_at", "updated_at"}
}

func userScanTargets(u *mmodel.User) []any {
	return []any{&u.ID, &u.Username, &u.Email, &u.Verified, &u.GlobalAdmin, &u.PasswordHash,
		&u.FederatedID, &u.CreatedAt, &u.UpdatedAt}
}

// Create inserts a new user row.
func (r *UserPostgreSQLRepository) Create(ctx context.Context, user *mmodel.User) (*mmodel.User, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	user.ID = common.GenerateUUIDv7().String()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt

	query, args, err := sqrl.Insert(r.tableName).
		Columns(userColumns()...).
		Values(user.ID, user.Username, user.Email, user.Verified, user.GlobalAdmin, user.PasswordHash,
			user.FederatedID, user.CreatedAt, user.UpdatedAt).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.EntityConflictError{
				EntityType: reflect.TypeOf(mmodel.User{}).Name(),
				Title:      "Duplicate Account",
				Code:       cn.ErrDuplicateEmail.Error(),
				Message:    "A user with this username or email already exists.",
			}
		}

		return nil, err
	}

	return user, nil
}

// Update applies a partial update to a user row (verification, password hash).
func (r *UserPostgreSQLRepository) Update(ctx context.Context, id uuid.UUID, user *mmodel.User) (*mmodel.User, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	user.UpdatedAt = time.Now().UTC()

	query, args, err := sqrl.Update(r.tableName).
		Set("verified", user.Verified).
		Set("password_hash", user.PasswordHash).
		Set("global_admin", user.GlobalAdmin).
		Set("updated_at", user.UpdatedAt).
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
		return nil, newUserNotFoundError()
	}

	user.ID = id.String()

	return user, nil
}

// Find retrieves a user by ID.
func (r *UserPostgreSQLRepository) Find(ctx context.Context, id uuid.UUID) (*mmodel.User, error) {
	return r.findBy(ctx, sqrl.Eq{"id": id.String()})
}

// FindByEmail retrieves a user by email.
func (r *UserPostgreSQLRepository) FindByEmail(ctx context.Context, email string) (*mmodel.User, error) {
	return r.findBy(ctx, sqrl.Eq{"email": email})
}

// FindByUsername retrieves a user by username.
func (r *UserPostgreSQLRepository) FindByUsername(ctx context.Context, username string) (*mmodel.User, error) {
	return r.findBy(ctx, sqrl.Eq{"username": username})
}

func (r *UserPostgreSQLRepository) findBy(ctx context.Context, pred sqrl.Eq) (*mmodel.User, error) {
	db, err := r.connection.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	query, args, err := sqrl.Select(userColumns()...).
		From(r.tableName).
		Where(pred).
		PlaceholderFormat(sqrl.Dollar).
		ToSql()
	if err != nil {
		return nil, err
	}

	u := &mmodel.User{}
	if err := db.QueryRowContext(ctx, query, args...).Scan(userScanTargets(u)...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, newUserNotFoundError()
		}

		return nil, err
	}

	return u, nil
}

func newUserNotFoundError() error {
	return common.EntityNotFoundError{
		EntityType: reflect.TypeOf(mmodel.User{}).Name(),
		Title:      "User Not Found",
		Code:       cn.ErrUserNotFound.Error(),
		Message:    "No user was found matching the provided identifier.",
	}
}
