package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	sq "github.com/Masterminds/squirrel"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cargo_items (
	id                 TEXT PRIMARY KEY,
	consignee          TEXT NOT NULL DEFAULT '',
	consol_number      TEXT NOT NULL DEFAULT '',
	shipment_number    TEXT NOT NULL DEFAULT '',
	master_air_waybill TEXT NOT NULL DEFAULT '',
	house_air_waybills TEXT NOT NULL DEFAULT '[]',
	kll_number         TEXT NOT NULL DEFAULT '',
	pre_alert_date     TEXT NOT NULL DEFAULT '',
	eta                TEXT NOT NULL DEFAULT '',
	current_status     TEXT NOT NULL DEFAULT '',
	instructions       TEXT NOT NULL DEFAULT '',
	user_id            TEXT NOT NULL DEFAULT '',
	created_at         TEXT NOT NULL DEFAULT '',
	updated_at         TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_cargo_items_created_at ON cargo_items(created_at);
`

var sqliteDialect = dialect{
	name:        "sqlite",
	placeholder: sq.Question,
	hawbs:       func(p *[]string) hawbColumn { return (*jsonList)(p) },
}

// SQLiteStore keeps cargo items in a local SQLite file. Only this process writes to it,
// so subscribers are refreshed right after each successful write.
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (or creates) the database at path. ":memory:" works for tests.
func NewSQLiteStore(path string, log *zap.Logger) (*SQLiteStore, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one connection: writes serialize and ":memory:" stays a single database
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize sqlite schema: %w", err)
	}
	return &SQLiteStore{sqlStore: newSQLStore(db, sqliteDialect, log)}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, record models.CargoRecord) (string, error) {
	id, err := s.create(ctx, record)
	if err != nil {
		return "", err
	}
	s.refresh(context.WithoutCancel(ctx))
	return id, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, record models.CargoRecord) error {
	if err := s.update(ctx, id, record); err != nil {
		return err
	}
	s.refresh(context.WithoutCancel(ctx))
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if err := s.delete(ctx, id); err != nil {
		return err
	}
	s.refresh(context.WithoutCancel(ctx))
	return nil
}
