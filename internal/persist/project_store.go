package persist

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/huangsam/delphi/internal/contract"
	"github.com/huangsam/delphi/schema"
)

// Table names for project storage.
const (
	modulesTable     = "delphi_modules"
	estimationsTable = "delphi_estimations"
)

// ProjectStoreImpl keeps modules and estimation records in a SQL database.
// Several projects share the tables and are told apart by the project column.
type ProjectStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
	connStr string
	project string
	now     func() time.Time
}

var _ contract.ProjectStore = &ProjectStoreImpl{} // Compile-time check

// NewProjectStore initializes and returns a new ProjectStore based on the backend type.
func NewProjectStore(backend schema.DatabaseBackend, connStr, project string) (contract.ProjectStore, error) {
	if project == "" {
		return nil, errors.New("project name cannot be empty")
	}
	if backend == schema.MemoryBackend {
		return NewMemoryStore(project), nil
	}
	for _, table := range []string{modulesTable, estimationsTable} {
		if err := validateTableName(table); err != nil {
			return nil, err
		}
	}

	db, err := openDB(backend, connStr, contract.GetStoreDBFilePath())
	if err != nil {
		return nil, err
	}
	if err := createProjectTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create project tables: %w", err)
	}

	return &ProjectStoreImpl{
		db:      db,
		backend: backend,
		connStr: connStr,
		project: project,
		now:     time.Now,
	}, nil
}

// createProjectTables creates the module and estimation tables.
func createProjectTables(db *sql.DB, backend schema.DatabaseBackend) error {
	tables := []struct {
		name  string
		query string
	}{
		{modulesTable, getCreateModulesQuery(backend)},
		{estimationsTable, getCreateEstimationsQuery(backend)},
	}
	for _, table := range tables {
		if _, err := db.Exec(table.query); err != nil {
			return fmt.Errorf("failed to create table %s: %w", table.name, err)
		}
	}
	return nil
}

// getCreateModulesQuery returns the CREATE TABLE query for delphi_modules.
func getCreateModulesQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(modulesTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project VARCHAR(255) NOT NULL,
				position INT NOT NULL,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL,
				PRIMARY KEY (project, position)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project TEXT NOT NULL,
				position INTEGER NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				PRIMARY KEY (project, position)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project TEXT NOT NULL,
				position INTEGER NOT NULL,
				name TEXT NOT NULL,
				description TEXT NOT NULL,
				PRIMARY KEY (project, position)
			);
		`, quotedTableName)
	}
}

// getCreateEstimationsQuery returns the CREATE TABLE query for delphi_estimations.
// Round columns hold a JSON array, or NULL while the round is pending.
func getCreateEstimationsQuery(backend schema.DatabaseBackend) string {
	quotedTableName := quoteTableName(estimationsTable, backend)
	switch backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project VARCHAR(255) NOT NULL,
				estimator_key VARCHAR(255) NOT NULL,
				estimator_name VARCHAR(255) NOT NULL,
				round1 TEXT NULL,
				round2 TEXT NULL,
				round3 TEXT NULL,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL,
				PRIMARY KEY (project, estimator_key)
			);
		`, quotedTableName)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project TEXT NOT NULL,
				estimator_key TEXT NOT NULL,
				estimator_name TEXT NOT NULL,
				round1 TEXT,
				round2 TEXT,
				round3 TEXT,
				created_at BIGINT NOT NULL,
				updated_at BIGINT NOT NULL,
				PRIMARY KEY (project, estimator_key)
			);
		`, quotedTableName)

	default: // SQLite
		return fmt.Sprintf(`
			CREATE TABLE IF NOT EXISTS %s (
				project TEXT NOT NULL,
				estimator_key TEXT NOT NULL,
				estimator_name TEXT NOT NULL,
				round1 TEXT,
				round2 TEXT,
				round3 TEXT,
				created_at INTEGER NOT NULL,
				updated_at INTEGER NOT NULL,
				PRIMARY KEY (project, estimator_key)
			);
		`, quotedTableName)
	}
}

// ListModules returns the modules of the project in display order.
func (ps *ProjectStoreImpl) ListModules(ctx context.Context) ([]schema.Module, error) {
	query := fmt.Sprintf("SELECT name, description FROM %s WHERE project = %s ORDER BY position",
		quoteTableName(modulesTable, ps.backend), placeholder(ps.backend, 1))
	rows, err := ps.db.QueryContext(ctx, query, ps.project)
	if err != nil {
		return nil, fmt.Errorf("failed to query modules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var modules []schema.Module
	for rows.Next() {
		var m schema.Module
		if err := rows.Scan(&m.Name, &m.Description); err != nil {
			return nil, fmt.Errorf("failed to scan module: %w", err)
		}
		modules = append(modules, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating modules: %w", err)
	}
	return modules, nil
}

// SaveModules replaces the module list of the project in one transaction.
func (ps *ProjectStoreImpl) SaveModules(ctx context.Context, modules []schema.Module) error {
	tx, err := ps.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	quoted := quoteTableName(modulesTable, ps.backend)
	deleteQuery := fmt.Sprintf("DELETE FROM %s WHERE project = %s", quoted, placeholder(ps.backend, 1))
	if _, err := tx.ExecContext(ctx, deleteQuery, ps.project); err != nil {
		return fmt.Errorf("failed to clear modules: %w", err)
	}

	insertQuery := fmt.Sprintf("INSERT INTO %s (project, position, name, description) VALUES (%s, %s, %s, %s)", quoted,
		placeholder(ps.backend, 1), placeholder(ps.backend, 2), placeholder(ps.backend, 3), placeholder(ps.backend, 4))
	for i, m := range modules {
		if _, err := tx.ExecContext(ctx, insertQuery, ps.project, i, m.Name, m.Description); err != nil {
			return fmt.Errorf("failed to insert module %q: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// ListEstimations returns every record of the project in first-submission order.
func (ps *ProjectStoreImpl) ListEstimations(ctx context.Context) ([]schema.EstimationRecord, error) {
	query := fmt.Sprintf("SELECT estimator_name, round1, round2, round3 FROM %s WHERE project = %s ORDER BY created_at, estimator_key",
		quoteTableName(estimationsTable, ps.backend), placeholder(ps.backend, 1))
	rows, err := ps.db.QueryContext(ctx, query, ps.project)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []schema.EstimationRecord
	for rows.Next() {
		rec, err := scanEstimation(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating estimations: %w", err)
	}
	return records, nil
}

// GetEstimation returns the record for name and whether it exists.
func (ps *ProjectStoreImpl) GetEstimation(ctx context.Context, name string) (schema.EstimationRecord, bool, error) {
	query := fmt.Sprintf("SELECT estimator_name, round1, round2, round3 FROM %s WHERE project = %s AND estimator_key = %s",
		quoteTableName(estimationsTable, ps.backend), placeholder(ps.backend, 1), placeholder(ps.backend, 2))
	row := ps.db.QueryRowContext(ctx, query, ps.project, schema.EstimatorKey(name))
	rec, err := scanEstimation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return schema.EstimationRecord{}, false, nil
	}
	if err != nil {
		return schema.EstimationRecord{}, false, err
	}
	return rec, true, nil
}

// PutEstimation inserts or replaces the record for its estimator.
// The creation time of an existing record is kept so listing order stays stable.
func (ps *ProjectStoreImpl) PutEstimation(ctx context.Context, rec schema.EstimationRecord) error {
	rounds := make([]any, 0, len(schema.AllRounds))
	for _, r := range schema.AllRounds {
		v, err := encodeRound(rec.Round(r))
		if err != nil {
			return err
		}
		rounds = append(rounds, v)
	}
	ts := ps.now().UnixNano()
	args := append([]any{ps.project, rec.Key(), rec.EstimatorName}, rounds...)
	args = append(args, ts, ts)

	if _, err := ps.db.ExecContext(ctx, ps.getUpsertQuery(), args...); err != nil {
		return fmt.Errorf("failed to store estimation for %q: %w", rec.EstimatorName, err)
	}
	return nil
}

// getUpsertQuery returns the UPSERT query for the backend.
func (ps *ProjectStoreImpl) getUpsertQuery() string {
	quotedTableName := quoteTableName(estimationsTable, ps.backend)
	columns := "(project, estimator_key, estimator_name, round1, round2, round3, created_at, updated_at)"
	switch ps.backend {
	case schema.MySQLBackend:
		return fmt.Sprintf(`INSERT INTO %s %s VALUES (?, ?, ?, ?, ?, ?, ?, ?) AS new
			ON DUPLICATE KEY UPDATE estimator_name = new.estimator_name, round1 = new.round1, round2 = new.round2, round3 = new.round3, updated_at = new.updated_at`,
			quotedTableName, columns)

	case schema.PostgreSQLBackend:
		return fmt.Sprintf(`INSERT INTO %s %s VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (project, estimator_key) DO UPDATE SET estimator_name = EXCLUDED.estimator_name, round1 = EXCLUDED.round1, round2 = EXCLUDED.round2, round3 = EXCLUDED.round3, updated_at = EXCLUDED.updated_at`,
			quotedTableName, columns)

	default: // SQLite
		return fmt.Sprintf(`INSERT INTO %s %s VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (project, estimator_key) DO UPDATE SET estimator_name = excluded.estimator_name, round1 = excluded.round1, round2 = excluded.round2, round3 = excluded.round3, updated_at = excluded.updated_at`,
			quotedTableName, columns)
	}
}

// DeleteEstimations removes every record of the project.
func (ps *ProjectStoreImpl) DeleteEstimations(ctx context.Context) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE project = %s", quoteTableName(estimationsTable, ps.backend), placeholder(ps.backend, 1))
	if _, err := ps.db.ExecContext(ctx, query, ps.project); err != nil {
		return fmt.Errorf("failed to delete estimations: %w", err)
	}
	return nil
}

// Close closes the underlying DB connection.
func (ps *ProjectStoreImpl) Close() error {
	if ps.db != nil {
		return ps.db.Close()
	}
	return nil
}

// GetStatus returns status information about the project store.
func (ps *ProjectStoreImpl) GetStatus() (schema.StoreStatus, error) {
	status := schema.StoreStatus{
		Backend:   string(ps.backend),
		Connected: ps.db != nil,
		Project:   ps.project,
	}
	if ps.db == nil {
		return status, nil
	}

	p := placeholder(ps.backend, 1)
	moduleQuery := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE project = %s", quoteTableName(modulesTable, ps.backend), p)
	if err := ps.db.QueryRow(moduleQuery, ps.project).Scan(&status.ModuleCount); err != nil {
		return status, fmt.Errorf("failed to count modules: %w", err)
	}

	estimationQuery := fmt.Sprintf("SELECT COUNT(*), COALESCE(MAX(updated_at), 0) FROM %s WHERE project = %s", quoteTableName(estimationsTable, ps.backend), p)
	var lastUpdate int64
	if err := ps.db.QueryRow(estimationQuery, ps.project).Scan(&status.EstimatorCount, &lastUpdate); err != nil {
		return status, fmt.Errorf("failed to count estimations: %w", err)
	}
	if lastUpdate > 0 {
		status.LastUpdateTime = time.Unix(0, lastUpdate)
	}

	// Estimate table size (approximate)
	fallback := int64(status.EstimatorCount) * 1000
	switch ps.backend {
	case schema.SQLiteBackend:
		sizeQuery := "SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()"
		if err := ps.db.QueryRow(sizeQuery).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = 0
		}
	case schema.MySQLBackend:
		status.TableSizeBytes = fallback
		cfg, err := mysql.ParseDSN(ps.connStr)
		if err != nil || cfg.DBName == "" {
			break
		}
		sizeQuery := "SELECT data_length + index_length FROM information_schema.tables WHERE table_schema = ? AND table_name = ?"
		if err := ps.db.QueryRow(sizeQuery, cfg.DBName, estimationsTable).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = fallback
		}
	case schema.PostgreSQLBackend:
		if err := ps.db.QueryRow("SELECT pg_total_relation_size($1)", estimationsTable).Scan(&status.TableSizeBytes); err != nil {
			status.TableSizeBytes = fallback
		}
	}
	return status, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEstimation(row rowScanner) (schema.EstimationRecord, error) {
	var rec schema.EstimationRecord
	var r1, r2, r3 sql.NullString
	if err := row.Scan(&rec.EstimatorName, &r1, &r2, &r3); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return rec, err
		}
		return rec, fmt.Errorf("failed to scan estimation: %w", err)
	}
	for i, raw := range []sql.NullString{r1, r2, r3} {
		data, err := decodeRound(raw)
		if err != nil {
			return rec, &schema.DataIntegrityError{
				Estimator: rec.EstimatorName,
				Reason:    fmt.Sprintf("round %d is not a valid estimate list: %v", i+1, err),
			}
		}
		rec = rec.WithRound(schema.AllRounds[i], data)
	}
	return rec, nil
}

func encodeRound(d schema.RoundData) (sql.NullString, error) {
	if !d.IsSubmitted() {
		return sql.NullString{}, nil
	}
	raw, err := json.Marshal(d)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode round: %w", err)
	}
	return sql.NullString{String: string(raw), Valid: true}, nil
}

func decodeRound(raw sql.NullString) (schema.RoundData, error) {
	if !raw.Valid || raw.String == "" {
		return schema.NotSubmitted(), nil
	}
	var d schema.RoundData
	if err := json.Unmarshal([]byte(raw.String), &d); err != nil {
		return schema.NotSubmitted(), err
	}
	return d, nil
}
