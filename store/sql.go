package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Tanmoy095/LogiSynapse/cargo-service/internal/models"
)

const cargoTable = "cargo_items"

var cargoColumns = []string{
	"id", "consignee", "consol_number", "shipment_number", "master_air_waybill", "house_air_waybills",
	"kll_number", "pre_alert_date", "eta", "current_status", "instructions", "user_id", "created_at", "updated_at",
}

// hawbColumn reads and writes the house air waybill list in a dialect's column type.
type hawbColumn interface {
	driver.Valuer
	sql.Scanner
}

// dialect carries what differs between the relational backends.
type dialect struct {
	name        string
	placeholder sq.PlaceholderFormat
	hawbs       func(*[]string) hawbColumn
}

// sqlStore is the part of the postgres and sqlite stores that is plain SQL.
type sqlStore struct {
	db      *sql.DB
	dialect dialect
	log     *zap.Logger
	hub     *hub

	// refreshMu orders snapshot reads with broadcasts
	refreshMu sync.Mutex
}

func newSQLStore(db *sql.DB, d dialect, log *zap.Logger) *sqlStore {
	if log == nil {
		log = zap.NewNop()
	}
	return &sqlStore{db: db, dialect: d, log: log, hub: newHub(log)}
}

func (s *sqlStore) List(ctx context.Context) ([]models.RawRecord, error) {
	query, args, err := sq.Select(cargoColumns...).
		From(cargoTable).
		OrderBy("created_at ASC", "id ASC").
		PlaceholderFormat(s.dialect.placeholder).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build cargo query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query cargo items: %w", err)
	}
	defer rows.Close()

	records := []models.RawRecord{}
	for rows.Next() {
		var (
			id, consignee, consol, shipment, mawb, kll  string
			preAlert, eta, status, instructions, userID string
			createdAt, updatedAt                        string
			hawbs                                       []string
		)
		if err := rows.Scan(
			&id, &consignee, &consol, &shipment, &mawb, s.dialect.hawbs(&hawbs),
			&kll, &preAlert, &eta, &status, &instructions, &userID, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan cargo item: %w", err)
		}
		if hawbs == nil {
			hawbs = []string{}
		}

		raw := models.RawRecord{
			"id":               id,
			"consignee":        consignee,
			"consolNumber":     consol,
			"shipmentNumber":   shipment,
			"masterAirWaybill": mawb,
			"houseAirWaybills": hawbs,
			"kllNumber":        kll,
			"preAlertDate":     preAlert,
			"eta":              eta,
			"currentStatus":    status,
			"instructions":     instructions,
		}
		if userID != "" {
			raw["userId"] = userID
		}
		if createdAt != "" {
			raw["createdAt"] = createdAt
		}
		if updatedAt != "" {
			raw["updatedAt"] = updatedAt
		}
		records = append(records, raw)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// create inserts the record and returns the generated id.
func (s *sqlStore) create(ctx context.Context, record models.CargoRecord) (string, error) {
	id := uuid.NewString()
	hawbs := record.HouseAirWaybills
	query, args, err := sq.Insert(cargoTable).
		Columns(cargoColumns...).
		Values(
			id, record.Consignee, record.ConsolNumber, record.ShipmentNumber, record.MasterAirWaybill,
			s.dialect.hawbs(&hawbs), record.KLLNumber, record.PreAlertDate, record.ETA,
			record.CurrentStatus, record.Instructions, record.UserID,
			formatTime(record.CreatedAt), formatTime(record.UpdatedAt),
		).
		PlaceholderFormat(s.dialect.placeholder).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("failed to build cargo insert: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("failed to insert cargo item: %w", err)
	}
	return id, nil
}

func (s *sqlStore) update(ctx context.Context, id string, record models.CargoRecord) error {
	hawbs := record.HouseAirWaybills
	set := map[string]any{
		"consignee":          record.Consignee,
		"consol_number":      record.ConsolNumber,
		"shipment_number":    record.ShipmentNumber,
		"master_air_waybill": record.MasterAirWaybill,
		"house_air_waybills": s.dialect.hawbs(&hawbs),
		"kll_number":         record.KLLNumber,
		"pre_alert_date":     record.PreAlertDate,
		"eta":                record.ETA,
		"current_status":     record.CurrentStatus,
		"instructions":       record.Instructions,
	}
	if record.UserID != "" {
		set["user_id"] = record.UserID
	}
	if !record.CreatedAt.IsZero() {
		set["created_at"] = formatTime(record.CreatedAt)
	}
	if !record.UpdatedAt.IsZero() {
		set["updated_at"] = formatTime(record.UpdatedAt)
	}

	query, args, err := sq.Update(cargoTable).
		SetMap(set).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(s.dialect.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cargo update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update cargo item %s: %w", id, err)
	}
	return expectOneRow(res)
}

func (s *sqlStore) delete(ctx context.Context, id string) error {
	query, args, err := sq.Delete(cargoTable).
		Where(sq.Eq{"id": id}).
		PlaceholderFormat(s.dialect.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build cargo delete: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete cargo item %s: %w", id, err)
	}
	return expectOneRow(res)
}

func (s *sqlStore) Subscribe(ctx context.Context, onUpdate func([]models.RawRecord), onError func(error)) (func(), error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	snapshot, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.hub.subscribe(ctx, snapshot, onUpdate, onError), nil
}

// refresh re-reads the table and pushes the result to every subscriber.
func (s *sqlStore) refresh(ctx context.Context) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()
	snapshot, err := s.List(ctx)
	if err != nil {
		s.log.Warn("cargo snapshot refresh failed", zap.String("store", s.dialect.name), zap.Error(err))
		s.hub.fail(err)
		return
	}
	s.hub.broadcast(snapshot)
}

func (s *sqlStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *sqlStore) Close() error {
	s.hub.close()
	return s.db.Close()
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// jsonList stores a string list as a JSON array in a TEXT column.
type jsonList []string

func (l *jsonList) Value() (driver.Value, error) {
	if l == nil || *l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(*l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *jsonList) Scan(src any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		*l = jsonList{}
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("cannot scan %T into a house air waybill list", src)
	}
	if len(b) == 0 {
		*l = jsonList{}
		return nil
	}
	return json.Unmarshal(b, (*[]string)(l))
}
