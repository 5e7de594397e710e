package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"instance-metrics-app/internal/domain"
)

// LocalStore is a SQLite-backed metric source used for development and tests.
// Stored 1-second samples are bucketed to the requested period with an avg
// aggregate, mimicking the provider's server-side aggregation.
type LocalStore struct {
	db     *sql.DB
	dbPath string
}

func NewLocalStore(path string) *LocalStore {
	return &LocalStore{dbPath: path}
}

func (s *LocalStore) Init() error {
	var err error

	s.db, err = sql.Open("sqlite3", s.dbPath)
	if err != nil {
		return fmt.Errorf("error opening database: %w", err)
	}

	if err = s.db.Ping(); err != nil {
		return fmt.Errorf("error connecting to database: %w", err)
	}

	createTablesSQL := `
	CREATE TABLE IF NOT EXISTS instances (
		id TEXT PRIMARY KEY,
		name TEXT,
		private_ip TEXT,
		public_ip TEXT,
		state TEXT,
		monitoring TEXT,
		termination_protected INTEGER DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS cpu_samples (
		instance_id TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		value REAL,
		PRIMARY KEY (instance_id, timestamp)
	);`

	_, err = s.db.Exec(createTablesSQL)
	if err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}

	return nil
}

func (s *LocalStore) FetchChunk(ctx context.Context, instanceID string, start, end time.Time, periodSeconds int) ([]domain.RawSample, error) {

	query := `
	SELECT (timestamp / ?) * ? AS bucket, AVG(value)
	FROM cpu_samples
	WHERE instance_id = ? AND timestamp >= ? AND timestamp < ?
	GROUP BY bucket
	ORDER BY bucket ASC`

	rows, err := s.db.QueryContext(ctx, query,
		periodSeconds, periodSeconds, instanceID, start.Unix(), end.Unix())
	if err != nil {
		return nil, fmt.Errorf("error querying samples: %w", err)
	}
	defer rows.Close()

	var samples []domain.RawSample
	for rows.Next() {
		var bucket int64
		var value sql.NullFloat64

		if err := rows.Scan(&bucket, &value); err != nil {
			return nil, fmt.Errorf("error scanning sample row: %w", err)
		}

		sample := domain.RawSample{Timestamp: time.Unix(bucket, 0).UTC()}
		if value.Valid {
			v := value.Float64
			sample.Value = &v
		}
		samples = append(samples, sample)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration: %w", err)
	}
	return samples, nil
}

func (s *LocalStore) ResolveInstance(ctx context.Context, identifier string) (domain.Instance, error) {

	query := "SELECT id, name, private_ip, public_ip, state, monitoring, termination_protected FROM instances WHERE "
	var args []interface{}

	if net.ParseIP(identifier) != nil {
		query += "private_ip = ? OR public_ip = ?"
		args = append(args, identifier, identifier)
	} else {
		query += "id = ?"
		args = append(args, identifier)
	}

	var instance domain.Instance
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&instance.ID, &instance.Name, &instance.PrivateIP, &instance.PublicIP,
		&instance.State, &instance.Monitoring, &instance.TerminationProtected)
	if err == sql.ErrNoRows {
		return domain.Instance{}, domain.ErrInstanceNotFound
	}
	if err != nil {
		return domain.Instance{}, fmt.Errorf("error querying instance: %w", err)
	}
	return instance, nil
}

func (s *LocalStore) SetTerminationProtection(ctx context.Context, instanceID string, enabled bool) error {

	result, err := s.db.ExecContext(ctx,
		"UPDATE instances SET termination_protected = ? WHERE id = ?", enabled, instanceID)
	if err != nil {
		return fmt.Errorf("error updating protection flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

// StoreInstance upserts instance metadata. Used by the seeder.
func (s *LocalStore) StoreInstance(ctx context.Context, instance domain.Instance) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR REPLACE INTO instances (id, name, private_ip, public_ip, state, monitoring, termination_protected)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		instance.ID, instance.Name, instance.PrivateIP, instance.PublicIP,
		instance.State, instance.Monitoring, instance.TerminationProtected)
	if err != nil {
		return fmt.Errorf("error inserting instance: %w", err)
	}
	return nil
}

// StoreSample inserts one raw CPU sample. Used by the seeder.
func (s *LocalStore) StoreSample(ctx context.Context, instanceID string, timestamp int64, value float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cpu_samples (instance_id, timestamp, value) VALUES (?, ?, ?)",
		instanceID, timestamp, value)
	if err != nil {
		return fmt.Errorf("error inserting sample: %w", err)
	}
	return nil
}

func (s *LocalStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
