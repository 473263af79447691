package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgUniqueViolation is the Postgres error code raised when an insert hits
// the unique email index.
const pgUniqueViolation = "23505"

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user record. Email uniqueness is enforced atomically
// by the store's unique index, so a concurrent duplicate registration loses
// here even if it passed the flow-level check.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) error {

	query :=
		`INSERT INTO users (user_id, name, email, password_hash, role, is_active, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 `

	_, err := r.db.ExecContext(ctx, query,
		user.UserID, user.Name, user.Email, user.PasswordHash,
		user.Role, user.IsActive, user.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ErrorAlreadyExists
		}
		return fmt.Errorf("error performing sql request: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID string) (*models.User, error) {
	query :=
		`SELECT user_id, name, email, password_hash, role, is_active, created_at FROM users
		 WHERE user_id = $1
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, userID))
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query :=
		`SELECT user_id, name, email, password_hash, role, is_active, created_at FROM users
		 WHERE lower(email) = lower($1)
		 `

	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// scanUser maps one row into a User. role and is_active are nullable: older
// records may omit them, and the defaulting happens at the read boundary,
// not in the store.
func (r *PostgresRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}

	var role sql.NullString
	var isActive sql.NullBool

	err := row.Scan(&user.UserID, &user.Name, &user.Email, &user.PasswordHash,
		&role, &isActive, &user.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error performing sql request: %w", err)
	}

	if role.Valid {
		user.Role = role.String
	}
	if isActive.Valid {
		v := isActive.Bool
		user.IsActive = &v
	}

	return user, nil
}
