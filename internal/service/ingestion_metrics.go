package service

import (
	"fmt"
	"time"
)

// IngestionMetrics tracks statistics about one ingestion run
type IngestionMetrics struct {
	Source    string
	Symbol    string
	StartTime time.Time
	Duration  time.Duration
	Fetched   int
	Stored    int
	Rejected  int
	Pruned    int64
	Latest    time.Time
}

// NewIngestionMetrics creates a new metrics tracker
func NewIngestionMetrics(source, symbol string) *IngestionMetrics {
	return &IngestionMetrics{
		Source:    source,
		Symbol:    symbol,
		StartTime: time.Now(),
	}
}

// Finish records the run duration
func (m *IngestionMetrics) Finish() {
	m.Duration = time.Since(m.StartTime)
}

// String returns a formatted metrics summary
func (m *IngestionMetrics) String() string {
	return fmt.Sprintf("source=%s symbol=%s fetched=%d stored=%d rejected=%d pruned=%d duration=%v",
		m.Source, m.Symbol, m.Fetched, m.Stored, m.Rejected, m.Pruned, m.Duration)
}
