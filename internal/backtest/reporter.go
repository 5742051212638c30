package backtest

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"

	"github.com/moznion/go-optional"
)

const notAvailable = "n/a"

// GenerateConsoleReport formats ranked results for terminal output
func GenerateConsoleReport(results []AggregatedResult) string {
	var builder strings.Builder
	builder.WriteString("Backtest Report\n")
	builder.WriteString("================\n")
	for _, result := range results {
		builder.WriteString(fmt.Sprintf("\nStrategy: %s\n", result.Strategy))
		builder.WriteString(fmt.Sprintf("Periods: %d\n", result.Periods))
		builder.WriteString(fmt.Sprintf("Sharpe Ratio: %s\n", formatRatio(result.Sharpe)))
		builder.WriteString(fmt.Sprintf("Max Drawdown: %s\n", formatPercentage(result.MaxDrawdown)))
		builder.WriteString(fmt.Sprintf("Total Return: %s\n", formatPercentage(result.TotalReturn)))
		if mc := result.MonteCarloResult; mc != nil {
			builder.WriteString(fmt.Sprintf("Monte Carlo: mean %.2f%%, VaR95 %.2f%%, P(profit) %.1f%%\n",
				mc.MeanReturn*100, mc.VaR95*100, mc.ProbabilityOfProfit*100))
		}
		if wf := result.WalkForwardResult; wf != nil {
			builder.WriteString(fmt.Sprintf("Walk-Forward: %d windows, mean test return %s, consistency %.0f%%\n",
				len(wf.Windows), formatPercentage(wf.MeanTestReturn), wf.ConsistencyScore*100))
		}
		builder.WriteString(fmt.Sprintf("Composite Score: %.2f\n", result.CompositeScore))
		builder.WriteString(fmt.Sprintf("Recommendation: %s\n", result.Recommendation))
	}
	return builder.String()
}

// GenerateHTMLReport creates a simple HTML report
func GenerateHTMLReport(results []AggregatedResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}

	var rows strings.Builder
	for _, r := range results {
		rows.WriteString(fmt.Sprintf("<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%.2f</td><td>%s</td></tr>\n",
			html.EscapeString(r.Strategy),
			formatRatio(r.Sharpe),
			formatPercentage(r.MaxDrawdown),
			formatPercentage(r.TotalReturn),
			r.CompositeScore,
			r.Recommendation,
		))
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><title>Backtest Report</title></head>
<body>
<h1>Backtest Report</h1>
<table>
<tr><th>Strategy</th><th>Sharpe Ratio</th><th>Max Drawdown</th><th>Total Return</th><th>Composite Score</th><th>Recommendation</th></tr>
%s</table>
</body>
</html>`, rows.String())

	return os.WriteFile(outputPath, []byte(page), 0o644)
}

// GenerateCSVExport exports one summary line per strategy
func GenerateCSVExport(results []AggregatedResult, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString("strategy,periods,sharpe_ratio,max_drawdown,total_return,composite_score,recommendation\n")
	for _, r := range results {
		b.WriteString(fmt.Sprintf("%s,%d,%s,%s,%s,%.4f,%s\n",
			r.Strategy,
			r.Periods,
			formatCSVValue(r.Sharpe),
			formatCSVValue(r.MaxDrawdown),
			formatCSVValue(r.TotalReturn),
			r.CompositeScore,
			r.Recommendation,
		))
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0o644)
}

// WriteEquityCurveCSV writes a run's per-row signals and returns for plotting
func WriteEquityCurveCSV(run StrategyRun, outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(run.EquityCurve().ToCSV()), 0o644)
}

func formatRatio(v optional.Option[float64]) string {
	if v.IsNone() {
		return notAvailable
	}
	return fmt.Sprintf("%.2f", v.Unwrap())
}

func formatPercentage(v optional.Option[float64]) string {
	if v.IsNone() {
		return notAvailable
	}
	return fmt.Sprintf("%.2f%%", v.Unwrap()*100)
}

// formatCSVValue leaves undefined values empty
func formatCSVValue(v optional.Option[float64]) string {
	if v.IsNone() {
		return ""
	}
	return fmt.Sprintf("%.6f", v.Unwrap())
}
