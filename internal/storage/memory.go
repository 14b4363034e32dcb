package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryStore implements Store using an in-memory ring buffer.
// Used when STORAGE=memory or as a fallback when SQLite cannot open.
type MemoryStore struct {
	mu      sync.RWMutex
	events  []RenderEvent
	byID    map[string]int // ID -> index in events
	maxRows int
	head    int // next write position
	count   int
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(maxRows int) *MemoryStore {
	if maxRows <= 0 {
		maxRows = 1
	}
	return &MemoryStore{
		events:  make([]RenderEvent, maxRows),
		byID:    make(map[string]int),
		maxRows: maxRows,
	}
}

// Insert adds a render, evicting the oldest when full.
func (s *MemoryStore) Insert(ev *RenderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == s.maxRows {
		delete(s.byID, s.events[s.head].ID)
	}

	s.events[s.head] = *ev
	s.byID[ev.ID] = s.head

	s.head = (s.head + 1) % s.maxRows
	if s.count < s.maxRows {
		s.count++
	}
	return nil
}

// GetByID retrieves a single render.
func (s *MemoryStore) GetByID(id string) (*RenderEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	ev := s.events[idx]
	return &ev, nil
}

// List returns renders matching the filter options.
func (s *MemoryStore) List(opts ListOptions) ([]RenderEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := int64(0)
	if opts.Window > 0 {
		cutoff = time.Now().UnixMilli() - opts.Window.Milliseconds()
	}

	var filtered []RenderEvent
	for _, ev := range s.collectOrdered() {
		if opts.Status != nil && ev.Status != *opts.Status {
			continue
		}
		if opts.Page != "" && ev.Page != opts.Page {
			continue
		}
		if opts.Theme != "" && ev.Theme != opts.Theme {
			continue
		}
		if cutoff > 0 && ev.TS < cutoff {
			continue
		}
		filtered = append(filtered, ev)
	}

	if opts.Offset >= len(filtered) {
		return nil, nil
	}
	filtered = filtered[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// Overview returns aggregate statistics.
func (s *MemoryStore) Overview(window time.Duration) (*Overview, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UnixMilli() - window.Milliseconds()

	var o Overview
	var durations []int
	dark := 0
	for _, ev := range s.collectOrdered() {
		if ev.TS < cutoff {
			continue
		}
		o.TotalRenders++
		if ev.Status == StatusError {
			o.ErrorCount++
		}
		if ev.Theme == "dark" {
			dark++
		}
		durations = append(durations, ev.DurationMs)
		o.TotalBytes += ev.Bytes
		o.Fallbacks += ev.Fallbacks
	}

	if o.TotalRenders > 0 {
		o.SuccessRate = float64(o.TotalRenders-o.ErrorCount) / float64(o.TotalRenders)
		o.DarkShare = float64(dark) / float64(o.TotalRenders)

		sort.Ints(durations)
		sum := 0
		for _, d := range durations {
			sum += d
		}
		o.AvgDurationMs = sum / len(durations)
		o.P95DurationMs = durations[p95Index(len(durations))]
	}
	return &o, nil
}

// PageStats returns per-page rollups.
func (s *MemoryStore) PageStats(window time.Duration) ([]PageStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().UnixMilli() - window.Milliseconds()

	byPage := make(map[string][]RenderEvent)
	for _, ev := range s.collectOrdered() {
		if ev.TS < cutoff || ev.Page == "" {
			continue
		}
		byPage[ev.Page] = append(byPage[ev.Page], ev)
	}

	stats := make([]PageStat, 0, len(byPage))
	for page, evs := range byPage {
		ps := PageStat{Page: page, RenderCount: len(evs)}
		var ok, durSum int
		var bytes int64
		for _, ev := range evs {
			if ev.Status == StatusOK {
				ok++
			}
			durSum += ev.DurationMs
			bytes += ev.Bytes
			ps.Fallbacks += ev.Fallbacks
		}
		ps.SuccessRate = float64(ok) / float64(ps.RenderCount)
		ps.AvgDurationMs = durSum / ps.RenderCount
		ps.AvgBytes = bytes / int64(ps.RenderCount)
		stats = append(stats, ps)
	}

	sort.Slice(stats, func(i, j int) bool {
		if stats[i].RenderCount != stats[j].RenderCount {
			return stats[i].RenderCount > stats[j].RenderCount
		}
		return stats[i].Page < stats[j].Page
	})
	return stats, nil
}

// Series returns time-binned data.
func (s *MemoryStore) Series(opts SeriesOptions) ([]DataPoint, error) {
	if !validMetric(opts.Metric) {
		return nil, fmt.Errorf("unknown series metric %q", opts.Metric)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cutoff := time.Now().Add(-opts.Window)
	var samples []sample
	for _, ev := range s.collectOrdered() {
		if ev.TS < cutoff.UnixMilli() {
			continue
		}
		if opts.Page != "" && ev.Page != opts.Page {
			continue
		}
		v := 1.0
		switch opts.Metric {
		case MetricDurationP95:
			v = float64(ev.DurationMs)
		case MetricBytes:
			v = float64(ev.Bytes)
		}
		samples = append(samples, sample{ts: ev.TS, value: v})
	}
	return binSeries(samples, cutoff, opts), nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error {
	return nil
}

// collectOrdered returns all renders newest first.
func (s *MemoryStore) collectOrdered() []RenderEvent {
	if s.count == 0 {
		return nil
	}
	result := make([]RenderEvent, 0, s.count)
	for i := 0; i < s.count; i++ {
		idx := (s.head - 1 - i + s.maxRows) % s.maxRows
		result = append(result, s.events[idx])
	}
	return result
}

func p95Index(n int) int {
	idx := int(float64(n) * 0.95)
	if idx >= n {
		idx = n - 1
	}
	return idx
}
