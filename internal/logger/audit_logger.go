package logger

import (
	"github.com/sirupsen/logrus"
)

// AuditLogger provides dedicated audit trail logging.
type AuditLogger struct {
	*logrus.Entry
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(baseLogger *logrus.Logger) *AuditLogger {
	return &AuditLogger{
		Entry: baseLogger.WithField("component", "audit"),
	}
}

// LogConfigurationLoaded records the effective run configuration.
func (al *AuditLogger) LogConfigurationLoaded(environment, symbol string, window int, strategies []string) {
	al.WithFields(logrus.Fields{
		"environment": environment,
		"symbol":      symbol,
		"window":      window,
		"strategies":  strategies,
	}).Info("Configuration loaded")
}

// LogBacktestResultSaved records a persisted backtest result.
func (al *AuditLogger) LogBacktestResultSaved(resultID, strategyID, strategyName, method, recommendation string) {
	al.WithFields(logrus.Fields{
		"result_id":      resultID,
		"strategy_id":    strategyID,
		"strategy_name":  strategyName,
		"method":         method,
		"recommendation": recommendation,
	}).Info("Backtest result saved")
}

// LogScheduledJob records a scheduler job outcome.
func (al *AuditLogger) LogScheduledJob(job, status string, err error) {
	entry := al.WithFields(logrus.Fields{
		"job":    job,
		"status": status,
	})
	if err != nil {
		entry.WithError(err).Error("Scheduled job failed")
		return
	}
	entry.Info("Scheduled job finished")
}
