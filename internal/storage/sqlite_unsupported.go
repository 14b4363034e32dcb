//go:build mips64 || mips64le || ppc64 || s390x

package storage

import (
	"errors"
	"log/slog"
	"time"
)

var errSQLiteUnavailable = errors.New("SQLite storage not available")

// SQLiteStore is a stub on platforms the pure Go driver does not support.
type SQLiteStore struct{}

// NewSQLiteStore always fails on this platform; callers fall back to memory.
func NewSQLiteStore(path string, maxRows int, logger *slog.Logger) (*SQLiteStore, error) {
	return nil, errors.New("SQLite storage is not supported on this platform, use memory storage instead")
}

func (s *SQLiteStore) Insert(ev *RenderEvent) error { return errSQLiteUnavailable }

func (s *SQLiteStore) GetByID(id string) (*RenderEvent, error) { return nil, errSQLiteUnavailable }

func (s *SQLiteStore) List(opts ListOptions) ([]RenderEvent, error) {
	return nil, errSQLiteUnavailable
}

func (s *SQLiteStore) Overview(window time.Duration) (*Overview, error) {
	return nil, errSQLiteUnavailable
}

func (s *SQLiteStore) PageStats(window time.Duration) ([]PageStat, error) {
	return nil, errSQLiteUnavailable
}

func (s *SQLiteStore) Series(opts SeriesOptions) ([]DataPoint, error) {
	return nil, errSQLiteUnavailable
}

func (s *SQLiteStore) Close() error { return nil }
