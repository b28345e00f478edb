// Package performance times hot paths of a designer session: per-frame
// placement validation, scene rendering and backend round trips.
package performance

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

// Metric names recorded by the layout server.
const (
	MetricValidate      = "layout.validate"
	MetricRenderSVG     = "render.svg"
	MetricRenderPDF     = "render.pdf"
	MetricBuildScene    = "render.scene"
	MetricWSMessage     = "ws.message"
	MetricBackendPrefix = "backend."
)

// Profiler collects timing statistics per operation name. A nil *Profiler
// is valid and records nothing.
type Profiler struct {
	mu        sync.RWMutex
	metrics   map[string]*Metric
	enabled   bool
	startTime time.Time
}

// Metric tracks statistics for a specific operation
type Metric struct {
	Name      string
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	LastTime  time.Duration
	LastCall  time.Time
	mu        sync.Mutex
}

// Operation is a single timed operation.
type Operation struct {
	profiler *Profiler
	name     string
	start    time.Time
}

// NewProfiler creates a new performance profiler
func NewProfiler(enabled bool) *Profiler {
	return &Profiler{
		metrics:   make(map[string]*Metric),
		enabled:   enabled,
		startTime: time.Now(),
	}
}

// Start begins timing an operation. It returns nil when profiling is off;
// calling End on a nil operation is a no-op.
func (p *Profiler) Start(name string) *Operation {
	if !p.IsEnabled() {
		return nil
	}
	return &Operation{
		profiler: p,
		name:     name,
		start:    time.Now(),
	}
}

// End completes timing an operation and records the metric
func (o *Operation) End() {
	if o == nil || !o.profiler.IsEnabled() {
		return
	}
	o.profiler.record(o.name, time.Since(o.start))
}

// Record directly records a duration for an operation
func (p *Profiler) Record(name string, duration time.Duration) {
	if !p.IsEnabled() {
		return
	}
	p.record(name, duration)
}

func (p *Profiler) record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	metric, exists := p.metrics[name]
	if !exists {
		metric = &Metric{
			Name:    name,
			MinTime: duration,
			MaxTime: duration,
		}
		p.metrics[name] = metric
	}

	metric.mu.Lock()
	defer metric.mu.Unlock()

	metric.Count++
	metric.TotalTime += duration
	metric.LastTime = duration
	metric.LastCall = time.Now()

	if duration < metric.MinTime {
		metric.MinTime = duration
	}
	if duration > metric.MaxTime {
		metric.MaxTime = duration
	}
}

// GetMetric returns a snapshot of the statistics for one operation, or nil.
func (p *Profiler) GetMetric(name string) *Metric {
	if p == nil {
		return nil
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	m, ok := p.metrics[name]
	if !ok {
		return nil
	}
	return m.snapshot()
}

// GetMetrics returns snapshots of all metrics.
func (p *Profiler) GetMetrics() map[string]*Metric {
	result := make(map[string]*Metric)
	if p == nil {
		return result
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	for name, metric := range p.metrics {
		result[name] = metric.snapshot()
	}
	return result
}

func (m *Metric) snapshot() *Metric {
	m.mu.Lock()
	defer m.mu.Unlock()
	return &Metric{
		Name:      m.Name,
		Count:     m.Count,
		TotalTime: m.TotalTime,
		MinTime:   m.MinTime,
		MaxTime:   m.MaxTime,
		LastTime:  m.LastTime,
		LastCall:  m.LastCall,
	}
}

// AverageTime returns the average time for a metric
func (m *Metric) AverageTime() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.TotalTime / time.Duration(m.Count)
}

// Reset clears all metrics
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.metrics = make(map[string]*Metric)
	p.startTime = time.Now()
}

func (p *Profiler) sortedNames() []string {
	names := make([]string, 0, len(p.metrics))
	for name := range p.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Report generates a human-readable performance report
func (p *Profiler) Report() string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if len(p.metrics) == 0 {
		return "No performance metrics recorded"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "\n=== Layout Server Performance (since %s) ===\n", p.startTime.Format(time.RFC3339))
	fmt.Fprintf(&b, "%-32s %10s %12s %12s %12s %12s\n", "Operation", "Count", "Avg", "Min", "Max", "Last")
	b.WriteString(strings.Repeat("-", 96) + "\n")

	for _, name := range p.sortedNames() {
		m := p.metrics[name].snapshot()
		fmt.Fprintf(&b, "%-32s %10d %12s %12s %12s %12s\n",
			name,
			m.Count,
			m.AverageTime().Round(time.Microsecond),
			m.MinTime.Round(time.Microsecond),
			m.MaxTime.Round(time.Microsecond),
			m.LastTime.Round(time.Microsecond),
		)
	}

	fmt.Fprintf(&b, "\nTotal runtime: %s\n", time.Since(p.startTime).Round(time.Second))
	return b.String()
}

// LogReport logs the performance report
func (p *Profiler) LogReport() {
	log.Print(p.Report())
}

// MetricReport is the JSON form of one metric. Durations are milliseconds.
type MetricReport struct {
	Name     string    `json:"name"`
	Count    int64     `json:"count"`
	TotalMS  float64   `json:"total_ms"`
	AvgMS    float64   `json:"avg_ms"`
	MinMS    float64   `json:"min_ms"`
	MaxMS    float64   `json:"max_ms"`
	LastMS   float64   `json:"last_ms"`
	LastCall time.Time `json:"last_call"`
}

// Report is the JSON form of the whole profiler.
type Report struct {
	Enabled   bool                     `json:"enabled"`
	StartTime time.Time                `json:"start_time"`
	RuntimeMS float64                  `json:"runtime_ms"`
	Metrics   map[string]*MetricReport `json:"metrics"`
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// JSONReport generates a JSON performance report
func (p *Profiler) JSONReport() ([]byte, error) {
	if p == nil {
		return json.Marshal(Report{Metrics: map[string]*MetricReport{}})
	}
	p.mu.RLock()
	defer p.mu.RUnlock()

	report := Report{
		Enabled:   p.enabled,
		StartTime: p.startTime,
		RuntimeMS: ms(time.Since(p.startTime)),
		Metrics:   make(map[string]*MetricReport, len(p.metrics)),
	}

	for name, metric := range p.metrics {
		m := metric.snapshot()
		report.Metrics[name] = &MetricReport{
			Name:     m.Name,
			Count:    m.Count,
			TotalMS:  ms(m.TotalTime),
			AvgMS:    ms(m.AverageTime()),
			MinMS:    ms(m.MinTime),
			MaxMS:    ms(m.MaxTime),
			LastMS:   ms(m.LastTime),
			LastCall: m.LastCall,
		}
	}

	return json.MarshalIndent(report, "", "  ")
}

// Enable enables profiling
func (p *Profiler) Enable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = true
}

// Disable disables profiling
func (p *Profiler) Disable() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.enabled = false
}

// IsEnabled returns whether profiling is enabled
func (p *Profiler) IsEnabled() bool {
	if p == nil {
		return false
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.enabled
}
