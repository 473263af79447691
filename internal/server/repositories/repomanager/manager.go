// Package repomanager selects and initializes the credential store backend.
package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	sc "github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// Manager owns the selected users repository and any backing connection.
type Manager struct {
	users users.Repository
	db    *sql.DB
}

func (m *Manager) Users() users.Repository { return m.users }

func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// NewManager builds the repository backend named by cfg.StoreBackend.
func NewManager(ctx context.Context, cfg *sc.Config) (*Manager, error) {
	switch cfg.StoreBackend {
	case sc.BackendPostgres:
		return newPostgresManager(ctx, cfg)
	case sc.BackendDynamo:
		return newDynamoManager(ctx, cfg)
	case sc.BackendMemory:
		return &Manager{users: users.NewInMemoryRepository()}, nil
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.StoreBackend)
	}
}

func newPostgresManager(ctx context.Context, cfg *sc.Config) (*Manager, error) {
	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	return &Manager{users: users.NewPostgresRepository(db), db: db}, nil
}

func runMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}

func newDynamoManager(ctx context.Context, cfg *sc.Config) (*Manager, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
	}
	// Static credentials are only set for local/emulated stores; otherwise
	// the default provider chain applies.
	if cfg.AWSAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKey, cfg.AWSSecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("aws config error: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.AWSBaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSBaseEndpoint)
		}
	})

	return &Manager{users: users.NewDynamoRepository(client, cfg.UsersTable, cfg.EmailIndexName)}, nil
}
