package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yourusername/aurum/internal/models"
)

type fakeSource struct {
	bars  []models.PriceBar
	err   error
	calls int
}

func (f *fakeSource) Name() string { return "fake" }

func (f *fakeSource) FetchDaily(ctx context.Context, symbol string) ([]models.PriceBar, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.PriceBar, len(f.bars))
	copy(out, f.bars)
	return out, nil
}

type fakePriceRepo struct {
	mu        sync.Mutex
	bars      map[time.Time]models.PriceBar
	upsertErr error
	loadErr   error
}

func newFakePriceRepo(bars ...models.PriceBar) *fakePriceRepo {
	r := &fakePriceRepo{bars: make(map[time.Time]models.PriceBar)}
	for _, b := range bars {
		r.bars[b.Date] = b
	}
	return r
}

func (r *fakePriceRepo) UpsertBars(ctx context.Context, symbol, source string, bars []models.PriceBar) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return 0, r.upsertErr
	}
	for _, b := range bars {
		r.bars[b.Date] = b
	}
	return int64(len(bars)), nil
}

func (r *fakePriceRepo) GetByDateRange(ctx context.Context, symbol string, start, end time.Time) ([]models.PriceBar, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	var out []models.PriceBar
	for d, b := range r.bars {
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakePriceRepo) GetLatestDate(ctx context.Context, symbol string) (time.Time, error) {
	bars, _ := r.GetByDateRange(ctx, symbol, time.Time{}, time.Time{})
	if len(bars) == 0 {
		return time.Time{}, models.ErrNotFound
	}
	return bars[len(bars)-1].Date, nil
}

func (r *fakePriceRepo) Count(ctx context.Context, symbol string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.bars)), nil
}

func (r *fakePriceRepo) DeleteBefore(ctx context.Context, symbol string, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for d := range r.bars {
		if d.Before(cutoff) {
			delete(r.bars, d)
			n++
		}
	}
	return n, nil
}

type fakeIndicatorRepo struct {
	rows []models.IndicatorRow
}

func (r *fakeIndicatorRepo) UpsertRows(ctx context.Context, symbol string, rows []models.IndicatorRow) (int64, error) {
	r.rows = append(r.rows, rows...)
	return int64(len(rows)), nil
}

func (r *fakeIndicatorRepo) GetByDateRange(ctx context.Context, symbol string, window int, start, end time.Time) ([]models.IndicatorRow, error) {
	return r.rows, nil
}

type fakeResultRepo struct {
	saved []*models.BacktestResult
}

func (r *fakeResultRepo) SaveResult(ctx context.Context, result *models.BacktestResult) error {
	r.saved = append(r.saved, result)
	return nil
}

func (r *fakeResultRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BacktestResult, error) {
	for _, s := range r.saved {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *fakeResultRepo) GetByStrategyName(ctx context.Context, name string, limit int) ([]*models.BacktestResult, error) {
	var out []*models.BacktestResult
	for _, s := range r.saved {
		if s.StrategyName == name {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeResultRepo) GetLatest(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	return r.saved, nil
}

func (r *fakeResultRepo) GetByDateRange(ctx context.Context, start, end time.Time) ([]*models.BacktestResult, error) {
	return r.saved, nil
}

func (r *fakeResultRepo) GetTopPerforming(ctx context.Context, limit int) ([]*models.BacktestResult, error) {
	return r.saved, nil
}
