// Package subscribers persists webhook subscriptions in a relational
// database so the fan-out survives restarts. It satisfies the dispatcher's
// registry interface and adds the mutation surface the management API needs.
package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/spacelift-io/flows-app-jira/internal"
)

// Config mirrors the storage configuration for the subscribers table.
type Config struct {
	Driver      string
	DSN         string
	Table       string
	AutoMigrate bool
}

// Store implements internal.Registry on top of GORM.
type Store struct {
	db    *gorm.DB
	table string
}

type row struct {
	ID         string    `gorm:"column:id;size:128;primaryKey"`
	Event      string    `gorm:"column:event;size:32;not null;index"`
	FilterJSON string    `gorm:"column:filter_json;type:text"`
	WhenExpr   string    `gorm:"column:when_expr;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// Open creates a GORM-backed subscribers store.
func Open(cfg Config) (*Store, error) {
	if cfg.Driver == "" {
		return nil, errors.New("storage driver is required")
	}
	if cfg.DSN == "" {
		return nil, errors.New("storage dsn is required")
	}
	driver := normalizeDriver(cfg.Driver)
	if driver == "" {
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}

	gormDB, err := openGorm(driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	table := cfg.Table
	if table == "" {
		table = "jiraflows_subscribers"
	}
	store := &Store{
		db:    gormDB,
		table: table,
	}
	if cfg.AutoMigrate {
		if err := store.migrate(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// Close closes the underlying DB connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// List returns all subscribers registered for the event kind.
func (s *Store) List(ctx context.Context, kind internal.EventKind) ([]internal.Subscriber, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []row
	err := s.tableDB().
		WithContext(ctx).
		Where("event = ?", string(kind)).
		Find(&data).Error
	if err != nil {
		return nil, err
	}
	subs := make([]internal.Subscriber, 0, len(data))
	for _, item := range data {
		sub, err := fromRow(item)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// ListAll returns every registered subscriber regardless of event kind.
func (s *Store) ListAll(ctx context.Context) ([]internal.Subscriber, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	var data []row
	if err := s.tableDB().WithContext(ctx).Order("id").Find(&data).Error; err != nil {
		return nil, err
	}
	subs := make([]internal.Subscriber, 0, len(data))
	for _, item := range data {
		sub, err := fromRow(item)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// Upsert inserts or replaces a subscriber record keyed by ID.
func (s *Store) Upsert(ctx context.Context, sub internal.Subscriber) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	if sub.ID == "" {
		return errors.New("subscriber id is required")
	}
	data, err := toRow(sub)
	if err != nil {
		return err
	}
	return s.tableDB().
		WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"event", "filter_json", "when_expr", "updated_at"}),
		}).
		Create(&data).Error
}

// Delete removes a subscriber by ID. Deleting an unknown ID is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return errors.New("store is not initialized")
	}
	return s.tableDB().WithContext(ctx).Where("id = ?", id).Delete(&row{}).Error
}

func (s *Store) migrate() error {
	return s.tableDB().AutoMigrate(&row{})
}

func (s *Store) tableDB() *gorm.DB {
	return s.db.Table(s.table)
}

func toRow(sub internal.Subscriber) (row, error) {
	filterJSON, err := json.Marshal(sub.Filter)
	if err != nil {
		return row{}, err
	}
	return row{
		ID:         sub.ID,
		Event:      string(sub.Kind),
		FilterJSON: string(filterJSON),
		WhenExpr:   sub.When.String(),
	}, nil
}

func fromRow(data row) (internal.Subscriber, error) {
	kind, ok := internal.KindFromString(data.Event)
	if !ok {
		return internal.Subscriber{}, fmt.Errorf("subscriber %s: unknown event kind %q", data.ID, data.Event)
	}
	sub := internal.Subscriber{
		ID:   data.ID,
		Kind: kind,
	}
	if data.FilterJSON != "" {
		if err := json.Unmarshal([]byte(data.FilterJSON), &sub.Filter); err != nil {
			return internal.Subscriber{}, fmt.Errorf("subscriber %s: decode filter: %w", data.ID, err)
		}
	}
	if data.WhenExpr != "" {
		when, err := internal.CompileWhen(data.WhenExpr)
		if err != nil {
			return internal.Subscriber{}, fmt.Errorf("subscriber %s: %w", data.ID, err)
		}
		sub.When = when
	}
	return sub, nil
}

func normalizeDriver(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	switch value {
	case "postgres", "postgresql", "pgx":
		return "postgres"
	case "mysql":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	default:
		return ""
	}
}

func openGorm(driver, dsn string) (*gorm.DB, error) {
	switch driver {
	case "postgres":
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	case "sqlite":
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", driver)
	}
}
