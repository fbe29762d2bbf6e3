package gormstore

import (
	"context"
	"fmt"
	"strings"

	"batchsync/core/database"
	"batchsync/core/upsert"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Store is a GORM-backed upsert.Store for model type T. PT is T's pointer
// type and carries the field-access contract.
type Store[T any, PT interface {
	*T
	upsert.Record
}] struct {
	db     *gorm.DB
	logger *zap.Logger
	namer  schema.Namer
}

// New creates a Store for model T on the given connection. A nil logger
// disables logging.
func New[T any, PT interface {
	*T
	upsert.Record
}](db *gorm.DB, logger *zap.Logger) *Store[T, PT] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store[T, PT]{
		db:     db,
		logger: logger,
		namer:  schema.NamingStrategy{},
	}
}

// FindMatches returns every row of T's table whose match columns equal one of
// the given key tuples, using a single disjunctive query.
func (s *Store[T, PT]) FindMatches(ctx context.Context, matchFields []string, keys [][]any) ([]upsert.Record, error) {
	if len(keys) == 0 {
		// The engine never sends an empty key set; never query on one.
		return nil, nil
	}

	var cond *gorm.DB
	for _, key := range keys {
		group := s.db.Session(&gorm.Session{NewDB: true})
		for i, field := range matchFields {
			group = group.Where(fmt.Sprintf("`%s` = ?", s.column(field)), key[i])
		}
		if cond == nil {
			cond = group
		} else {
			cond = cond.Or(group)
		}
	}

	var rows []T
	if err := s.db.WithContext(ctx).Where(cond).Find(&rows).Error; err != nil {
		return nil, err
	}

	s.logger.Debug("existence query resolved",
		zap.Int("keys", len(keys)),
		zap.Int("matched", len(rows)))

	matched := make([]upsert.Record, len(rows))
	for i := range rows {
		matched[i] = PT(&rows[i])
	}
	return matched, nil
}

// UpdateFields persists the named fields of each record inside one
// transaction. Records must be rows previously returned by FindMatches, so
// their primary keys are set.
func (s *Store[T, PT]) UpdateFields(ctx context.Context, records []upsert.Record, fields []string) error {
	if len(records) == 0 {
		return nil
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			values := make(map[string]any, len(fields))
			for _, field := range fields {
				value, ok := rec.Field(field)
				if !ok {
					return fmt.Errorf("record has no field %q", field)
				}
				values[s.column(field)] = value
			}
			if err := tx.Model(rec).Updates(values).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Insert persists a single new row.
func (s *Store[T, PT]) Insert(ctx context.Context, record upsert.Record) error {
	return s.db.WithContext(ctx).Create(record).Error
}

// CheckColumns verifies that every given field resolves to an existing column
// of T's table. Meant as a preflight before a long sync run, so a typo in a
// match or update field surfaces before any row is touched.
func (s *Store[T, PT]) CheckColumns(fields ...string) error {
	table, err := s.tableName()
	if err != nil {
		return err
	}

	columns, err := database.GetTableColumns(s.db, table)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		known[col.Field] = struct{}{}
	}

	for _, field := range fields {
		col := s.column(field)
		if _, ok := known[strings.ToLower(col)]; !ok {
			return fmt.Errorf("table %s has no column %s for field %s", table, col, field)
		}
	}

	s.logger.Debug("column preflight passed",
		zap.String("table", table),
		zap.Strings("fields", fields))
	return nil
}

// column maps a record field name to its database column name.
func (s *Store[T, PT]) column(field string) string {
	return s.namer.ColumnName("", field)
}

// tableName resolves T's table through GORM's model parser.
func (s *Store[T, PT]) tableName() (string, error) {
	stmt := &gorm.Statement{DB: s.db}
	if err := stmt.Parse(new(T)); err != nil {
		return "", fmt.Errorf("failed to parse model: %w", err)
	}
	return stmt.Schema.Table, nil
}
