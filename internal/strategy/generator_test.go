package strategy

import (
	"errors"
	"math"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/aurum/internal/indicator"
	"github.com/yourusername/aurum/internal/models"
	"github.com/yourusername/aurum/test/helpers"
)

func row(z, vol, dailyRange float64) models.IndicatorRow {
	return models.IndicatorRow{
		LogReturn:  optional.Some(0.0),
		Volatility: optional.Some(vol),
		SMA:        optional.Some(100.0),
		ZScore:     optional.Some(z),
		DailyRange: dailyRange,
	}
}

func signals(rows []models.SignalRow) []models.Signal {
	out := make([]models.Signal, len(rows))
	for i, r := range rows {
		out[i] = r.Signal
	}
	return out
}

// volatilityOnly fires buy whenever volatility exceeds its median
func volatilityOnly(mode PercentileMode, lookback int) Config {
	return Config{
		Name: "vol",
		Rules: []Rule{{
			Name:       "buy",
			Signal:     models.SignalBuy,
			Conditions: []Condition{{Field: models.FieldVolatility, Op: OpGreaterThan, Percentile: optional.Some(0.5)}},
		}},
		PercentileMode:     mode,
		PercentileLookback: lookback,
	}
}

func TestPercentile(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		q        float64
		expected float64
	}{
		{"median of even sample", []float64{4, 1, 3, 2}, 0.5, 2.5},
		{"upper quartile", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"minimum", []float64{3, 1, 2}, 0, 1},
		{"maximum", []float64{3, 1, 2}, 1, 3},
		{"single value", []float64{7}, 0.9, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percentile(tt.values, tt.q)
			require.True(t, ok)
			assert.InDelta(t, tt.expected, got, 1e-12)
		})
	}

	_, ok := Percentile(nil, 0.5)
	assert.False(t, ok)
}

func TestPercentileDoesNotReorderInput(t *testing.T) {
	values := []float64{3, 1, 2}
	_, _ = Percentile(values, 0.5)
	assert.Equal(t, []float64{3, 1, 2}, values)
}

func TestGenerateZScoreRules(t *testing.T) {
	rows := []models.IndicatorRow{
		row(-2.5, 1, 1),
		row(-2.5, 10, 1),
		row(2.5, 10, 1),
		row(0.0, 10, 1),
		row(-2.0, 10, 1),
		row(2.0, 10, 1),
		row(2.5, 2, 1),
		row(-2.5, 2, 1),
	}

	// volatility p75 is 10, so no row exceeds it
	out, err := Generate(rows, ZScore(DefaultParams()))
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{0, 0, 0, 0, 0, 0, 0, 0}, signals(out))

	params := DefaultParams()
	params.VolPercentile = 0.25
	out, err = Generate(rows, ZScore(params))
	require.NoError(t, err)

	// p25 is 2; z thresholds are strict so exactly -2 or 2 stays flat
	assert.Equal(t, []models.Signal{0, 1, -1, 0, 0, 0, 0, 0}, signals(out))
	assert.Equal(t, "buy", out[1].Rule)
	assert.Equal(t, "sell", out[2].Rule)
	assert.Empty(t, out[3].Rule)
}

func TestGenerateCombinedRequiresRangeFilter(t *testing.T) {
	rows := []models.IndicatorRow{
		row(0, 1, 1),
		row(0, 1, 1),
		row(-3, 9, 5),
		row(-3, 9, 0.5),
		row(3, 9, 5),
	}

	params := DefaultParams()
	params.VolPercentile = 0.25
	out, err := Generate(rows, Combined(params))
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{0, 0, 1, 0, -1}, signals(out))
}

func TestGenerateFirstRuleWins(t *testing.T) {
	cfg := Config{
		Name: "overlap",
		Rules: []Rule{
			{Name: "first", Signal: models.SignalSell, Conditions: []Condition{{Field: models.FieldZScore, Op: OpLessThan, Value: 0}}},
			{Name: "second", Signal: models.SignalBuy, Conditions: []Condition{{Field: models.FieldZScore, Op: OpLessThan, Value: 1}}},
		},
	}

	out, err := Generate([]models.IndicatorRow{row(-1, 1, 1), row(0.5, 1, 1)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, models.SignalSell, out[0].Signal)
	assert.Equal(t, "first", out[0].Rule)
	assert.Equal(t, models.SignalBuy, out[1].Signal)
	assert.Equal(t, "second", out[1].Rule)
}

func TestGenerateUndefinedInputIsFlat(t *testing.T) {
	rows := []models.IndicatorRow{
		row(-5, 10, 1),
		row(-5, 1, 1),
		row(-5, 1, 1),
	}
	rows[0].ZScore = optional.None[float64]()

	out, err := Generate(rows, ZScore(DefaultParams()))
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, models.SignalFlat, out[0].Signal)
	assert.Equal(t, rows[0], out[0].IndicatorRow)
}

func TestGenerateEmptyRows(t *testing.T) {
	out, err := Generate(nil, Combined(DefaultParams()))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestGeneratePercentileModes(t *testing.T) {
	rows := []models.IndicatorRow{row(0, 1, 1), row(0, 2, 1), row(0, 3, 1), row(0, 4, 1), row(0, 5, 1)}

	tests := []struct {
		name     string
		cfg      Config
		expected []models.Signal
	}{
		{"static", volatilityOnly(PercentileStatic, 0), []models.Signal{0, 0, 0, 1, 1}},
		{"default is static", volatilityOnly("", 0), []models.Signal{0, 0, 0, 1, 1}},
		{"expanding", volatilityOnly(PercentileExpanding, 0), []models.Signal{0, 1, 1, 1, 1}},
		{"rolling", volatilityOnly(PercentileRolling, 2), []models.Signal{0, 1, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Generate(rows, tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, signals(out))
		})
	}
}

func TestGenerateWithReferenceUsesReferenceThresholds(t *testing.T) {
	reference := []models.IndicatorRow{row(0, 10, 1), row(0, 20, 1), row(0, 30, 1)}
	rows := []models.IndicatorRow{row(0, 15, 1), row(0, 25, 1)}

	out, err := GenerateWithReference(rows, reference, volatilityOnly(PercentileExpanding, 0))
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{0, 1}, signals(out))

	out, err = GenerateWithReference(rows, nil, volatilityOnly(PercentileStatic, 0))
	require.NoError(t, err)
	assert.Equal(t, []models.Signal{0, 0}, signals(out))
}

func TestGenerateRisingSeriesNeverBuys(t *testing.T) {
	bars := helpers.BarsFromCloses(helpers.TrendingCloses(250, 100, 0.5))
	rows, err := indicator.Compute(bars, indicator.DefaultWindow)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	for _, cfg := range []Config{Combined(DefaultParams()), ZScore(DefaultParams())} {
		out, err := Generate(rows, cfg)
		require.NoError(t, err)
		for _, r := range out {
			assert.NotEqual(t, models.SignalBuy, r.Signal, "%s bought on %s", cfg.Name, r.DateString())
		}
	}
}

func TestConfigValidate(t *testing.T) {
	valid := ZScore(DefaultParams())

	tests := []struct {
		name string
		mut  func(c *Config)
	}{
		{"missing name", func(c *Config) { c.Name = "" }},
		{"no rules", func(c *Config) { c.Rules = nil }},
		{"unknown field", func(c *Config) {
			c.Rules = []Rule{{Name: "r", Signal: models.SignalBuy, Conditions: []Condition{{Field: "volume", Op: OpLessThan}}}}
		}},
		{"unknown operator", func(c *Config) {
			c.Rules = []Rule{{Name: "r", Signal: models.SignalBuy, Conditions: []Condition{{Field: models.FieldZScore, Op: "le"}}}}
		}},
		{"percentile above one", func(c *Config) {
			c.Rules = []Rule{{Name: "r", Signal: models.SignalBuy, Conditions: []Condition{{Field: models.FieldZScore, Op: OpLessThan, Percentile: optional.Some(1.5)}}}}
		}},
		{"percentile is NaN", func(c *Config) {
			c.Rules = []Rule{{Name: "r", Signal: models.SignalBuy, Conditions: []Condition{{Field: models.FieldZScore, Op: OpLessThan, Percentile: optional.Some(math.NaN())}}}}
		}},
		{"invalid signal", func(c *Config) {
			c.Rules = []Rule{{Name: "r", Signal: 3, Conditions: []Condition{{Field: models.FieldZScore, Op: OpLessThan}}}}
		}},
		{"unknown mode", func(c *Config) { c.PercentileMode = "weekly" }},
		{"rolling without lookback", func(c *Config) { c.PercentileMode = PercentileRolling }},
	}

	require.NoError(t, valid.Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ZScore(DefaultParams())
			tt.mut(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInvalidConfig))

			_, err = Generate([]models.IndicatorRow{row(0, 1, 1)}, cfg)
			assert.Error(t, err)
		})
	}
}

func TestGenerateRejectsNaNPercentile(t *testing.T) {
	bars := helpers.BarsFromCloses([]float64{1, 2, 3, 2, 1, 2, 3, 4, 3, 2, 1, 2})
	rows, err := indicator.Compute(bars, 3)
	require.NoError(t, err)
	require.NotEmpty(t, rows)

	p := DefaultParams()
	p.VolPercentile = math.NaN()
	assert.NotPanics(t, func() {
		_, err = Generate(rows, ZScore(p))
	})
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestFromKind(t *testing.T) {
	z, err := FromKind("zscore", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, KindZScore, z.Kind)
	assert.Len(t, z.Rules[0].Conditions, 2)

	c, err := FromKind("combined", DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, KindCombined, c.Kind)
	assert.Len(t, c.Rules[0].Conditions, 3)
	assert.Equal(t, models.FieldDailyRange, c.Rules[1].Conditions[2].Field)

	// building combined must not mutate a separately built zscore config
	assert.Len(t, ZScore(DefaultParams()).Rules[1].Conditions, 2)

	_, err = FromKind("momentum", DefaultParams())
	assert.True(t, errors.Is(err, models.ErrInvalidConfig))
}

func TestMetadataIsDeterministic(t *testing.T) {
	a := ZScore(DefaultParams()).Metadata()
	b := ZScore(DefaultParams()).Metadata()
	c := Combined(DefaultParams()).Metadata()

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, "zscore", a.Parameters["kind"])
	assert.Equal(t, "static", a.Parameters["percentile_mode"])
}
