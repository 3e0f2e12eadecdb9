package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	_ "github.com/mattn/go-sqlite3"

	"github.com/eytandecker/simsensors/pkg/types"
)

const initSchemaSQL = `
CREATE TABLE IF NOT EXISTS samples (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	recorded_at TEXT    NOT NULL,
	object      TEXT    NOT NULL,
	updates     INTEGER NOT NULL,
	data        TEXT    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_object ON samples (object, id);
`

const insertSampleSQL = `INSERT INTO samples (recorded_at, object, updates, data) VALUES (?, ?, ?, ?)`

// logEvery is how many inserted samples pass between progress log lines.
const logEvery = 10000

// Sample is one recorded object state.
type Sample struct {
	RecordedAt time.Time
	Object     string
	Updates    uint64
	Data       json.RawMessage
}

// WithLogger sets the logger for the recorder.
func WithLogger(logger *slog.Logger) func(r *Recorder) {
	return func(r *Recorder) {
		r.logger = logger.With(slog.String("sink", "recorder"))
	}
}

// Recorder stores bus snapshots in a SQLite database.
type Recorder struct {
	dbPath string
	logger *slog.Logger

	db     *sql.DB
	dbOnce sync.Once
	dbErr  error

	total atomic.Uint64
}

// New creates a Recorder. The database is opened and its schema created on
// first use.
func New(dbPath string, options ...func(r *Recorder)) *Recorder {
	r := &Recorder{
		dbPath: dbPath,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(r)
	}
	return r
}

func (r *Recorder) getDB() (*sql.DB, error) {
	r.dbOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", r.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			r.dbErr = fmt.Errorf("opening database: %w", err)
			return
		}

		if _, err = db.Exec(initSchemaSQL); err != nil {
			_ = db.Close()
			r.dbErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		r.db = db
	})

	return r.db, r.dbErr
}

// Name implements telemetry.Sink.
func (r *Recorder) Name() string {
	return "recorder"
}

// Write inserts every object that has been set at least once, in a single
// transaction.
func (r *Recorder) Write(ctx context.Context, snap types.Snapshot) (err error) {
	db, err := r.getDB()
	if err != nil {
		return err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, insertSampleSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := snap.Timestamp.UTC().Format(time.RFC3339Nano)
	var inserted uint64
	for _, obj := range snap.Objects {
		if obj.LastUpdated.IsZero() {
			continue
		}
		data, err := json.Marshal(obj.Data)
		if err != nil {
			return fmt.Errorf("encode %s: %w", obj.Name, err)
		}
		if _, err = stmt.ExecContext(ctx, recordedAt, obj.Name, int64(obj.Updates), string(data)); err != nil { //nolint:gosec // update counters stay far below MaxInt64
			return fmt.Errorf("insert %s: %w", obj.Name, err)
		}
		inserted++
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	before := r.total.Load()
	after := r.total.Add(inserted)
	if before/logEvery != after/logEvery {
		r.logger.Info("samples recorded", slog.String("total", humanize.Comma(int64(after)))) //nolint:gosec
	}
	return nil
}

// Count returns the number of stored samples.
func (r *Recorder) Count(ctx context.Context) (int64, error) {
	db, err := r.getDB()
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return n, nil
}

// Latest returns the most recent sample of the named object.
func (r *Recorder) Latest(ctx context.Context, object string) (Sample, error) {
	db, err := r.getDB()
	if err != nil {
		return Sample{}, err
	}

	var (
		recordedAt string
		updates    int64
		data       string
	)
	row := db.QueryRowContext(ctx,
		`SELECT recorded_at, updates, data FROM samples WHERE object = ? ORDER BY id DESC LIMIT 1`, object)
	if err := row.Scan(&recordedAt, &updates, &data); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Sample{}, fmt.Errorf("%w: %s", ErrNoSamples, object)
		}
		return Sample{}, fmt.Errorf("query latest %s: %w", object, err)
	}

	at, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return Sample{}, fmt.Errorf("parse recorded_at: %w", err)
	}
	return Sample{
		RecordedAt: at,
		Object:     object,
		Updates:    uint64(updates), //nolint:gosec // written from a uint64
		Data:       json.RawMessage(data),
	}, nil
}

// Close closes the database if it was opened.
func (r *Recorder) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}
