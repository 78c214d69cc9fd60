package profile

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/lib/pq"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

func createTables(db *sql.DB) error {
	createProfilesTable := `
	CREATE TABLE IF NOT EXISTS profiles (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(64) NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);`

	_, err := db.Exec(createProfilesTable)
	return err
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, avatar, updated_at FROM profiles WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Avatar, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Profile{}, ErrNotFound
	}
	if err != nil {
		return Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return p, nil
}

func (s *PostgresStore) Save(ctx context.Context, p Profile) error {
	query := `
		INSERT INTO profiles (id, name, avatar, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			avatar = EXCLUDED.avatar,
			updated_at = EXCLUDED.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, p.ID, p.Name, p.Avatar, p.UpdatedAt); err != nil {
		return fmt.Errorf("save profile %s: %w", p.ID, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
