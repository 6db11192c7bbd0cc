package middleware

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gossip-lsp/toylsp/jsonrpc"
)

// Metrics holds message counts and duration statistics per method.
type Metrics struct {
	mu      sync.RWMutex
	methods map[string]*MethodMetrics
}

// MethodMetrics holds metrics for a single method.
type MethodMetrics struct {
	Count   atomic.Int64
	Errors  atomic.Int64
	Dropped atomic.Int64
	TotalNs atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{methods: make(map[string]*MethodMetrics)}
}

func (m *Metrics) getOrCreate(method string) *MethodMetrics {
	m.mu.RLock()
	mm, ok := m.methods[method]
	m.mu.RUnlock()
	if ok {
		return mm
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if mm, ok := m.methods[method]; ok {
		return mm
	}
	mm = &MethodMetrics{}
	m.methods[method] = mm
	return mm
}

// Snapshot returns a point-in-time copy of all method metrics.
func (m *Metrics) Snapshot() map[string]MethodSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]MethodSnapshot, len(m.methods))
	for name, mm := range m.methods {
		snap[name] = MethodSnapshot{
			Count:     mm.Count.Load(),
			Errors:    mm.Errors.Load(),
			Dropped:   mm.Dropped.Load(),
			TotalTime: time.Duration(mm.TotalNs.Load()),
		}
	}
	return snap
}

// LogValue groups the snapshot by method name, sorted.
func (m *Metrics) LogValue() slog.Value {
	snap := m.Snapshot()
	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	attrs := make([]slog.Attr, 0, len(names))
	for _, name := range names {
		s := snap[name]
		attrs = append(attrs, slog.Group(name,
			slog.Int64("count", s.Count),
			slog.Int64("errors", s.Errors),
			slog.Int64("dropped", s.Dropped),
			slog.Duration("total", s.TotalTime),
		))
	}
	return slog.GroupValue(attrs...)
}

// MethodSnapshot is a point-in-time copy of metrics for one method.
type MethodSnapshot struct {
	Count     int64
	Errors    int64
	Dropped   int64
	TotalTime time.Duration
}

// Telemetry returns middleware that collects message count and latency
// metrics. Messages dropped with jsonrpc.ErrNoResponse count as dropped,
// not as errors.
func Telemetry(metrics *Metrics) Middleware {
	return func(next Handler) Handler {
		return func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			mm := metrics.getOrCreate(method)
			start := time.Now()
			result, err := next(ctx, method, params)
			elapsed := time.Since(start)

			mm.Count.Add(1)
			mm.TotalNs.Add(int64(elapsed))
			switch {
			case err == nil:
			case errors.Is(err, jsonrpc.ErrNoResponse):
				mm.Dropped.Add(1)
			default:
				mm.Errors.Add(1)
			}

			return result, err
		}
	}
}
