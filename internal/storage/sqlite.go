//go:build !mips64 && !mips64le && !ppc64 && !s390x

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go driver, no cgo
)

const schema = `
CREATE TABLE IF NOT EXISTS renders (
    id TEXT PRIMARY KEY,
    ts INTEGER NOT NULL,
    page TEXT NOT NULL,
    theme TEXT NOT NULL,
    status TEXT NOT NULL,
    http_status INTEGER DEFAULT 0,
    duration_ms INTEGER DEFAULT 0,
    bytes INTEGER DEFAULT 0,
    fallbacks INTEGER DEFAULT 0,
    error TEXT
);

CREATE INDEX IF NOT EXISTS idx_renders_ts ON renders(ts);
CREATE INDEX IF NOT EXISTS idx_renders_page_ts ON renders(page, ts);
`

const selectColumns = `id, ts, page, theme, status, http_status, duration_ms, bytes, fallbacks, error`

// SQLiteStore implements Store using SQLite in WAL mode.
type SQLiteStore struct {
	db      *sql.DB
	maxRows int
	pruneMu sync.Mutex
	pruneWg sync.WaitGroup
	logger  *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite store at path.
func NewSQLiteStore(path string, maxRows int, logger *slog.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create storage directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}

	// single writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &SQLiteStore{
		db:      db,
		maxRows: maxRows,
		logger:  logger,
	}, nil
}

// Insert records a render and schedules a prune check.
func (s *SQLiteStore) Insert(ev *RenderEvent) error {
	_, err := s.db.Exec(`
		INSERT INTO renders (`+selectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		ev.ID, ev.TS, ev.Page, ev.Theme, string(ev.Status), ev.HTTPStatus,
		ev.DurationMs, ev.Bytes, ev.Fallbacks, ev.Error,
	)
	if err != nil {
		return fmt.Errorf("insert render: %w", err)
	}

	s.pruneWg.Add(1)
	go func() {
		defer s.pruneWg.Done()
		s.maybePrune()
	}()
	return nil
}

// GetByID retrieves a single render.
func (s *SQLiteStore) GetByID(id string) (*RenderEvent, error) {
	row := s.db.QueryRow(`SELECT `+selectColumns+` FROM renders WHERE id = ?`, id)
	ev, err := scanRender(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get render: %w", err)
	}
	return ev, nil
}

// List retrieves renders with filtering.
func (s *SQLiteStore) List(opts ListOptions) ([]RenderEvent, error) {
	query := `SELECT ` + selectColumns + ` FROM renders WHERE 1=1`
	var args []any

	if opts.Status != nil {
		query += " AND status = ?"
		args = append(args, string(*opts.Status))
	}
	if opts.Page != "" {
		query += " AND page = ?"
		args = append(args, opts.Page)
	}
	if opts.Theme != "" {
		query += " AND theme = ?"
		args = append(args, opts.Theme)
	}
	if opts.Window > 0 {
		query += " AND ts >= ?"
		args = append(args, time.Now().UnixMilli()-opts.Window.Milliseconds())
	}

	query += " ORDER BY ts DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", opts.Limit)
	} else if opts.Offset > 0 {
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list renders: %w", err)
	}
	defer rows.Close()

	var events []RenderEvent
	for rows.Next() {
		ev, err := scanRender(rows)
		if err != nil {
			return nil, fmt.Errorf("scan render: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

// Overview returns aggregate statistics.
func (s *SQLiteStore) Overview(window time.Duration) (*Overview, error) {
	cutoff := time.Now().UnixMilli() - window.Milliseconds()

	row := s.db.QueryRow(`
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(duration_ms), 0),
			COALESCE(SUM(bytes), 0),
			COALESCE(SUM(fallbacks), 0),
			COALESCE(SUM(CASE WHEN theme = 'dark' THEN 1 ELSE 0 END), 0)
		FROM renders
		WHERE ts >= ?
	`, cutoff)

	var o Overview
	var avgDur float64
	var dark int
	if err := row.Scan(&o.TotalRenders, &o.ErrorCount, &avgDur, &o.TotalBytes, &o.Fallbacks, &dark); err != nil {
		return nil, fmt.Errorf("overview query: %w", err)
	}

	o.AvgDurationMs = int(avgDur)
	if o.TotalRenders == 0 {
		return &o, nil
	}
	o.SuccessRate = float64(o.TotalRenders-o.ErrorCount) / float64(o.TotalRenders)
	o.DarkShare = float64(dark) / float64(o.TotalRenders)

	// Ascending order at the p95 index matches the memory store.
	err := s.db.QueryRow(`
		SELECT duration_ms FROM renders
		WHERE ts >= ?
		ORDER BY duration_ms ASC
		LIMIT 1 OFFSET ?
	`, cutoff, p95Index(o.TotalRenders)).Scan(&o.P95DurationMs)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("p95 query: %w", err)
	}
	return &o, nil
}

// PageStats returns per-page rollups.
func (s *SQLiteStore) PageStats(window time.Duration) ([]PageStat, error) {
	cutoff := time.Now().UnixMilli() - window.Milliseconds()

	rows, err := s.db.Query(`
		SELECT
			page,
			COUNT(*) AS render_count,
			AVG(CASE WHEN status = 'ok' THEN 1.0 ELSE 0.0 END),
			AVG(duration_ms),
			AVG(bytes),
			SUM(fallbacks)
		FROM renders
		WHERE ts >= ? AND page != ''
		GROUP BY page
		ORDER BY render_count DESC, page ASC
	`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("page stats query: %w", err)
	}
	defer rows.Close()

	stats := []PageStat{}
	for rows.Next() {
		var ps PageStat
		var avgDur, avgBytes float64
		if err := rows.Scan(&ps.Page, &ps.RenderCount, &ps.SuccessRate, &avgDur, &avgBytes, &ps.Fallbacks); err != nil {
			return nil, fmt.Errorf("scan page stat: %w", err)
		}
		ps.AvgDurationMs = int(avgDur)
		ps.AvgBytes = int64(avgBytes)
		stats = append(stats, ps)
	}
	return stats, rows.Err()
}

// Series returns time-binned data.
func (s *SQLiteStore) Series(opts SeriesOptions) ([]DataPoint, error) {
	var column string
	switch opts.Metric {
	case MetricRenderCount:
		column = "1"
	case MetricDurationP95:
		column = "duration_ms"
	case MetricBytes:
		column = "bytes"
	default:
		return nil, fmt.Errorf("unknown series metric %q", opts.Metric)
	}

	cutoff := time.Now().Add(-opts.Window)
	query := fmt.Sprintf(`SELECT ts, %s FROM renders WHERE ts >= ?`, column)
	args := []any{cutoff.UnixMilli()}
	if opts.Page != "" {
		query += " AND page = ?"
		args = append(args, opts.Page)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("series query: %w", err)
	}
	defer rows.Close()

	var samples []sample
	for rows.Next() {
		var sm sample
		if err := rows.Scan(&sm.ts, &sm.value); err != nil {
			return nil, fmt.Errorf("scan series row: %w", err)
		}
		samples = append(samples, sm)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return binSeries(samples, cutoff, opts), nil
}

// Close waits for pending prunes and closes the database.
func (s *SQLiteStore) Close() error {
	s.pruneWg.Wait()
	return s.db.Close()
}

// maybePrune deletes the oldest rows once the table exceeds maxRows.
func (s *SQLiteStore) maybePrune() {
	s.pruneMu.Lock()
	defer s.pruneMu.Unlock()

	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM renders`).Scan(&count); err != nil {
		s.logger.Error("prune count query failed", "err", err)
		return
	}
	if count <= s.maxRows {
		return
	}

	toDelete := count - s.maxRows
	const batchSize = 500
	if toDelete > batchSize {
		toDelete = batchSize
	}

	_, err := s.db.Exec(`
		DELETE FROM renders WHERE id IN (
			SELECT id FROM renders ORDER BY ts ASC LIMIT ?
		)
	`, toDelete)
	if err != nil {
		s.logger.Error("prune failed", "err", err)
		return
	}
	s.logger.Debug("pruned old renders", "deleted", toDelete)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRender(row rowScanner) (*RenderEvent, error) {
	var ev RenderEvent
	var status string
	var errText sql.NullString
	err := row.Scan(&ev.ID, &ev.TS, &ev.Page, &ev.Theme, &status, &ev.HTTPStatus,
		&ev.DurationMs, &ev.Bytes, &ev.Fallbacks, &errText)
	if err != nil {
		return nil, err
	}
	ev.Status = Status(status)
	ev.Error = errText.String
	return &ev, nil
}
