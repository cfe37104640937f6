// Package postgres implements the store.Store interface backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/lib/pq"

	"github.com/IgorChugurov/public-api-sdk/internal/model"
	"github.com/IgorChugurov/public-api-sdk/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements store.Store backed by a PostgreSQL database.
type PostgresStore struct {
	db *sql.DB
}

// Compile-time check that PostgresStore implements store.Store.
var _ store.Store = (*PostgresStore)(nil)

// New opens a connection to the PostgreSQL database at the given URL,
// configures the connection pool, and runs any pending migrations.
func New(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration db driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}

	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) GetDefinition(ctx context.Context, definitionID string) (*model.Definition, error) {
	return queryGetDefinition(ctx, s.db, definitionID)
}

func (s *PostgresStore) ListDefinitions(ctx context.Context, projectID string) ([]*model.Definition, error) {
	return queryListDefinitions(ctx, s.db, projectID)
}

func (s *PostgresStore) GetInstance(ctx context.Context, id, definitionID, projectID string) (*model.Instance, error) {
	return queryGetInstance(ctx, s.db, id, definitionID, projectID)
}

func (s *PostgresStore) GetInstancesByIDs(ctx context.Context, ids []string) ([]*model.Instance, error) {
	return queryGetInstancesByIDs(ctx, s.db, ids)
}

func (s *PostgresStore) ListInstances(ctx context.Context, filter model.InstanceFilter) ([]*model.Instance, int, error) {
	return queryListInstances(ctx, s.db, filter)
}

func (s *PostgresStore) SearchInstances(ctx context.Context, definitionID, projectID, term string, fields, ids []string, limit, offset int) ([]*model.Instance, int, error) {
	return querySearchInstances(ctx, s.db, definitionID, projectID, term, fields, ids, limit, offset)
}

func (s *PostgresStore) SlugExists(ctx context.Context, definitionID, slug string) (bool, error) {
	return querySlugExists(ctx, s.db, definitionID, slug)
}

func (s *PostgresStore) CreateInstance(ctx context.Context, inst *model.Instance) error {
	return queryCreateInstance(ctx, s.db, inst)
}

func (s *PostgresStore) UpdateInstanceData(ctx context.Context, id, definitionID, projectID string, data map[string]any) (*model.Instance, error) {
	return queryUpdateInstanceData(ctx, s.db, id, definitionID, projectID, data)
}

func (s *PostgresStore) DeleteInstance(ctx context.Context, id, definitionID, projectID string) error {
	return queryDeleteInstance(ctx, s.db, id, definitionID, projectID)
}

func (s *PostgresStore) EdgesBySource(ctx context.Context, sourceID string, fieldIDs []string) ([]*model.Edge, error) {
	return queryEdgesBySource(ctx, s.db, sourceID, fieldIDs)
}

func (s *PostgresStore) EdgesByField(ctx context.Context, fieldID string, targetIDs []string) ([]*model.Edge, error) {
	return queryEdgesByField(ctx, s.db, fieldID, targetIDs)
}

func (s *PostgresStore) EdgeSources(ctx context.Context, pairs []model.FieldTarget) ([]string, error) {
	return queryEdgeSources(ctx, s.db, pairs)
}

func (s *PostgresStore) RelatedInstances(ctx context.Context, sourceIDs, fieldIDs []string) ([]*model.RelatedTarget, error) {
	return queryRelatedInstances(ctx, s.db, sourceIDs, fieldIDs)
}

func (s *PostgresStore) InsertEdges(ctx context.Context, edges []*model.Edge) error {
	return queryInsertEdges(ctx, s.db, edges)
}

func (s *PostgresStore) DeleteEdges(ctx context.Context, sourceID string, fieldIDs []string) error {
	return queryDeleteEdges(ctx, s.db, sourceID, fieldIDs)
}

func (s *PostgresStore) Attachments(ctx context.Context, instanceIDs, fieldIDs []string) ([]*model.Attachment, error) {
	return queryAttachments(ctx, s.db, instanceIDs, fieldIDs)
}

func (s *PostgresStore) AddAttachment(ctx context.Context, att *model.Attachment) error {
	return queryAddAttachment(ctx, s.db, att)
}

func (s *PostgresStore) RemoveAttachment(ctx context.Context, id string) error {
	return queryRemoveAttachment(ctx, s.db, id)
}
