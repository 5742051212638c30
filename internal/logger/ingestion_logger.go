package logger

import (
	"time"

	"github.com/sirupsen/logrus"
)

// IngestionLogger provides dedicated logging for market data ingestion.
type IngestionLogger struct {
	*logrus.Entry
}

// NewIngestionLogger creates a new ingestion logger.
func NewIngestionLogger(baseLogger *logrus.Logger) *IngestionLogger {
	return &IngestionLogger{
		Entry: baseLogger.WithField("component", "ingestion"),
	}
}

// LogBarsIngested logs a completed ingestion run.
func (il *IngestionLogger) LogBarsIngested(source, symbol string, fetched, stored, rejected int, duration time.Duration) {
	il.WithFields(logrus.Fields{
		"event":       "bars_ingested",
		"source":      source,
		"symbol":      symbol,
		"fetched":     fetched,
		"stored":      stored,
		"rejected":    rejected,
		"duration_ms": duration.Milliseconds(),
	}).Info("Bars ingested")
}

// LogBarRejected logs a bar dropped by validation.
func (il *IngestionLogger) LogBarRejected(symbol string, date time.Time, reason string) {
	il.WithFields(logrus.Fields{
		"event":  "bar_rejected",
		"symbol": symbol,
		"date":   date.Format("2006-01-02"),
		"reason": reason,
	}).Warn("Bar rejected by validation")
}

// LogSourceError logs a failed provider call.
func (il *IngestionLogger) LogSourceError(source, symbol, code string, err error) {
	il.WithFields(logrus.Fields{
		"event":  "source_error",
		"source": source,
		"symbol": symbol,
		"code":   code,
	}).WithError(err).Error("Data source request failed")
}

// LogHistoryPruned logs removal of bars older than the history cutoff.
func (il *IngestionLogger) LogHistoryPruned(symbol string, cutoff time.Time, deleted int64) {
	il.WithFields(logrus.Fields{
		"event":   "history_pruned",
		"symbol":  symbol,
		"cutoff":  cutoff.Format("2006-01-02"),
		"deleted": deleted,
	}).Info("Pruned bars before history start")
}
