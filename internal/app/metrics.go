package app

import (
	"sync/atomic"
	"time"
)

// Metrics counts document operations for the lifetime of the application.
type Metrics struct {
	opens     atomic.Uint64
	closes    atomic.Uint64
	reloads   atomic.Uint64
	conflicts atomic.Uint64

	saveCount    atomic.Uint64
	saveFailures atomic.Uint64
	saveTotalNs  atomic.Int64
	saveMaxNs    atomic.Int64

	startTime time.Time
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Opens        uint64
	Closes       uint64
	Reloads      uint64
	Conflicts    uint64
	Saves        uint64
	SaveFailures uint64
	SaveAvg      time.Duration
	SaveMax      time.Duration
	Uptime       time.Duration
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// RecordOpen counts an opened or restored document.
func (m *Metrics) RecordOpen() { m.opens.Add(1) }

// RecordClose counts a closed document.
func (m *Metrics) RecordClose() { m.closes.Add(1) }

// RecordReload counts a reload from disk.
func (m *Metrics) RecordReload() { m.reloads.Add(1) }

// RecordConflict counts an external change to a dirty document.
func (m *Metrics) RecordConflict() { m.conflicts.Add(1) }

// RecordSave records a save attempt and its duration.
func (m *Metrics) RecordSave(duration time.Duration, err error) {
	if err != nil {
		m.saveFailures.Add(1)
		return
	}
	ns := duration.Nanoseconds()
	m.saveCount.Add(1)
	m.saveTotalNs.Add(ns)
	for {
		old := m.saveMaxNs.Load()
		if ns <= old || m.saveMaxNs.CompareAndSwap(old, ns) {
			break
		}
	}
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	s := MetricsSnapshot{
		Opens:        m.opens.Load(),
		Closes:       m.closes.Load(),
		Reloads:      m.reloads.Load(),
		Conflicts:    m.conflicts.Load(),
		Saves:        m.saveCount.Load(),
		SaveFailures: m.saveFailures.Load(),
		SaveMax:      time.Duration(m.saveMaxNs.Load()),
		Uptime:       time.Since(m.startTime),
	}
	if s.Saves > 0 {
		s.SaveAvg = time.Duration(m.saveTotalNs.Load() / int64(s.Saves))
	}
	return s
}

// Metrics returns the application's metrics.
func (app *Application) Metrics() *Metrics {
	return app.metrics
}
