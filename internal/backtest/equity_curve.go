package backtest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/yourusername/aurum/internal/models"
)

// EquityPoint represents a point in the equity curve
type EquityPoint struct {
	Date           time.Time     `json:"date"`
	Close          float64       `json:"close"`
	Signal         models.Signal `json:"signal"`
	StrategyReturn float64       `json:"strategy_return"`
	Value          float64       `json:"cumulative_return"`
	Drawdown       float64       `json:"drawdown"`
}

// EquityCurve represents a time-series of equity points
type EquityCurve []EquityPoint

// NewEquityCurve pairs evaluated rows with their performance series.
// rows and perf must come from the same Evaluate call.
func NewEquityCurve(rows []models.SignalRow, perf models.PerformanceResult) EquityCurve {
	n := len(rows)
	if len(perf.CumulativeReturn) < n {
		n = len(perf.CumulativeReturn)
	}
	drawdowns := drawdownSeries(perf.CumulativeReturn[:n])

	curve := make(EquityCurve, n)
	for i := 0; i < n; i++ {
		curve[i] = EquityPoint{
			Date:           rows[i].Date,
			Close:          rows[i].Close,
			Signal:         rows[i].Signal,
			StrategyReturn: perf.StrategyReturn[i],
			Value:          perf.CumulativeReturn[i],
			Drawdown:       drawdowns[i],
		}
	}
	return curve
}

// GetReturns returns the per-period strategy returns
func (e EquityCurve) GetReturns() []float64 {
	returns := make([]float64, len(e))
	for i, p := range e {
		returns[i] = p.StrategyReturn
	}
	return returns
}

// ToCSV exports equity curve to CSV string
func (e EquityCurve) ToCSV() string {
	var buf bytes.Buffer
	buf.WriteString("date,close,signal,strategy_return,cumulative_return,drawdown\n")
	for _, point := range e {
		buf.WriteString(point.Date.Format(models.DateLayout))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Close))
		buf.WriteString(",")
		buf.WriteString(strconv.Itoa(int(point.Signal)))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.StrategyReturn))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Value))
		buf.WriteString(",")
		buf.WriteString(formatFloat(point.Drawdown))
		buf.WriteString("\n")
	}
	return buf.String()
}

// ToJSON exports equity curve to JSON string
func (e EquityCurve) ToJSON() string {
	data, _ := json.Marshal(e)
	return string(data)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
