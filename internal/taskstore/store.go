// Package taskstore persists assimilated task documents in a local SQLite
// database so parsed calculations survive between runs and are queryable
// from the command line.
package taskstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"atomflow/internal/config"
)

// Store manages task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the task database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.StoreDir, "tasks.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Insert stores a record, replacing any earlier record for the same
// calculation directory. Re-ingesting a tree is idempotent.
func (s *Store) Insert(ctx context.Context, rec *Record) (*Record, error) {
	if rec == nil {
		return nil, errors.New("record is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO tasks (
            uuid, source, task_label, dir_name, state, formula, chemsys,
            energy, doc_json, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(dir_name) DO UPDATE SET
            uuid = excluded.uuid, source = excluded.source,
            task_label = excluded.task_label, state = excluded.state,
            formula = excluded.formula, chemsys = excluded.chemsys,
            energy = excluded.energy, doc_json = excluded.doc_json,
            updated_at = excluded.updated_at`,
		nullableString(rec.UUID),
		rec.Source,
		nullableString(rec.TaskLabel),
		rec.DirName,
		rec.State,
		nullableString(rec.Formula),
		nullableString(rec.Chemsys),
		rec.Energy,
		rec.DocJSON,
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}

	if id, err := res.LastInsertId(); err == nil && id > 0 {
		if stored, err := s.GetByID(ctx, id); err == nil && stored != nil {
			return stored, nil
		}
	}
	return s.GetByDirName(ctx, rec.DirName)
}

// GetByID fetches a record by identifier.
func (s *Store) GetByID(ctx context.Context, id int64) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM tasks WHERE id = ?`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return rec, nil
}

// GetByDirName fetches the record for a calculation directory.
func (s *Store) GetByDirName(ctx context.Context, dirName string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM tasks WHERE dir_name = ?`, dirName)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task by dir: %w", err)
	}
	return rec, nil
}

// Filter restricts List results. Empty fields do not filter.
type Filter struct {
	State   string
	Formula string
	Chemsys string
	Source  string
}

// List returns records matching the filter ordered by creation time.
func (s *Store) List(ctx context.Context, filter Filter) ([]*Record, error) {
	query := `SELECT ` + recordColumns + ` FROM tasks`
	var clauses []string
	var args []any
	if filter.State != "" {
		clauses = append(clauses, "state = ?")
		args = append(args, filter.State)
	}
	if filter.Formula != "" {
		clauses = append(clauses, "formula = ?")
		args = append(args, filter.Formula)
	}
	if filter.Chemsys != "" {
		clauses = append(clauses, "chemsys = ?")
		args = append(args, filter.Chemsys)
	}
	if filter.Source != "" {
		clauses = append(clauses, "source = ?")
		args = append(args, filter.Source)
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Stats returns a count of records grouped by state.
func (s *Store) Stats(ctx context.Context) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT state, COUNT(1) FROM tasks GROUP BY state`)
	if err != nil {
		return nil, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int)
	for rows.Next() {
		var state string
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, err
		}
		stats[state] = count
	}
	return stats, rows.Err()
}

// Remove deletes a record by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete task: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all records.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM tasks`)
	if err != nil {
		return 0, fmt.Errorf("clear tasks: %w", err)
	}
	return res.RowsAffected()
}

const recordColumns = "id, uuid, source, task_label, dir_name, state, formula, chemsys, energy, doc_json, created_at, updated_at"

func scanRecord(scanner interface{ Scan(dest ...any) error }) (*Record, error) {
	var (
		id         int64
		uuidStr    sql.NullString
		source     string
		taskLabel  sql.NullString
		dirName    string
		state      string
		formula    sql.NullString
		chemsys    sql.NullString
		energy     sql.NullFloat64
		docJSON    string
		createdRaw string
		updatedRaw string
	)

	if err := scanner.Scan(
		&id,
		&uuidStr,
		&source,
		&taskLabel,
		&dirName,
		&state,
		&formula,
		&chemsys,
		&energy,
		&docJSON,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	rec := &Record{
		ID:        id,
		UUID:      uuidStr.String,
		Source:    source,
		TaskLabel: taskLabel.String,
		DirName:   dirName,
		State:     state,
		Formula:   formula.String,
		Chemsys:   chemsys.String,
		Energy:    energy.Float64,
		DocJSON:   docJSON,
	}
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		rec.CreatedAt = created
	}
	if updated, err := time.Parse(time.RFC3339Nano, updatedRaw); err == nil {
		rec.UpdatedAt = updated
	}
	return rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
