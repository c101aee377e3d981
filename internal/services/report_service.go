package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"finapp/internal/cache"
	"finapp/internal/core"
	"finapp/internal/metrics"
	"finapp/internal/report"
)

// LedgerReader is the read side of the ledger the reports need.
type LedgerReader interface {
	Wallets() []core.Wallet
	Transactions(walletID string) ([]core.Transaction, error)
	Generation() uint64
}

type ReportQuery struct {
	// WalletID restricts the report to one wallet; empty means all wallets.
	WalletID string
	Window   report.Window
	Now      time.Time
}

type Overview struct {
	WalletID      string
	Window        report.Window
	Range         report.Range
	Income        core.Money
	Expenses      core.Money
	Net           core.Money
	SpendingRatio float64
	Breakdown     []core.CategoryAmount
	Recent        []core.Transaction
}

type TrendPage struct {
	Points     []report.MonthPoint
	Page       int
	TotalPages int
	Scale      core.Money
}

type MonthDetail struct {
	Overview core.MonthOverview
	Income   []core.Transaction
	Expenses []core.Transaction
}

type Dashboard struct {
	TotalBalance     core.Money
	WalletCount      int
	Income           core.Money
	Expenses         core.Money
	SpendingRatio    float64
	HighSpending     bool
	AverageDaily     core.Money
	ByCategory       []core.CategoryAmount
	MonthlySpending  []core.CategoryAmount
	RecentActivities []core.Transaction
}

// ReportService computes read-only views of the ledger. Results are cached
// per ledger generation, so any mutation invalidates them.
type ReportService struct {
	ledger    LedgerReader
	cache     cache.Cache[any]
	group     singleflight.Group
	metrics   *metrics.Metrics
	weekStart time.Weekday
}

// NewReportService builds the service. A nil cache disables caching.
func NewReportService(ledger LedgerReader, c cache.Cache[any], m *metrics.Metrics, weekStart time.Weekday) *ReportService {
	if m == nil {
		m = metrics.New()
	}
	return &ReportService{ledger: ledger, cache: c, metrics: m, weekStart: weekStart}
}

func (s *ReportService) Overview(ctx context.Context, q ReportQuery) (Overview, error) {
	if q.Window == "" {
		q.Window = report.Month
	}
	r := report.Bounds(q.Now, q.Window, s.weekStart)
	key := fmt.Sprintf("overview|%s|%s|%d", q.WalletID, q.Window, r.Start.Unix())

	return cached(s, key, func() (Overview, error) {
		txs, err := s.ledger.Transactions(q.WalletID)
		if err != nil {
			return Overview{}, err
		}
		t := report.TotalsIn(txs, r)
		recent := core.SortByDateDesc(txs)
		if len(recent) > core.DefaultRecentLimit {
			recent = recent[:core.DefaultRecentLimit]
		}
		return Overview{
			WalletID:      q.WalletID,
			Window:        q.Window,
			Range:         r,
			Income:        t.Income,
			Expenses:      t.Expenses,
			Net:           t.Net(),
			SpendingRatio: report.SpendingRatio(t.Income, t.Expenses),
			Breakdown:     report.ByCategory(txs, r, core.Expense),
			Recent:        recent,
		}, nil
	})
}

// Trend returns one page of the trailing months, current month first.
func (s *ReportService) Trend(ctx context.Context, walletID string, now time.Time, page int) (TrendPage, error) {
	y, m, _ := now.Date()
	key := fmt.Sprintf("trend|%s|%d-%02d|%d", walletID, y, m, page)

	return cached(s, key, func() (TrendPage, error) {
		txs, err := s.ledger.Transactions(walletID)
		if err != nil {
			return TrendPage{}, err
		}
		points := report.Trend(txs, now, report.DefaultTrendMonths)
		return TrendPage{
			Points:     report.Paginate(points, page, report.DefaultPageSize),
			Page:       page,
			TotalPages: report.TotalPages(len(points), report.DefaultPageSize),
			Scale:      report.ChartScale(points),
		}, nil
	})
}

func (s *ReportService) Month(ctx context.Context, walletID string, year int, month time.Month, loc *time.Location) (MonthDetail, error) {
	if month < time.January || month > time.December {
		return MonthDetail{}, invalid("month", fmt.Errorf("must be between 1 and 12"))
	}
	if loc == nil {
		loc = time.Local
	}
	key := fmt.Sprintf("month|%s|%d-%02d|%s", walletID, year, month, loc)

	return cached(s, key, func() (MonthDetail, error) {
		txs, err := s.ledger.Transactions(walletID)
		if err != nil {
			return MonthDetail{}, err
		}
		in := core.SortByDateDesc(report.Filter(txs, report.MonthRange(year, month, loc)))
		d := MonthDetail{Overview: report.MonthOverview(txs, year, month, loc)}
		for _, tx := range in {
			if tx.Type == core.Income {
				d.Income = append(d.Income, tx)
			} else {
				d.Expenses = append(d.Expenses, tx)
			}
		}
		return d, nil
	})
}

// Dashboard summarises all wallets: balances, spending health and breakdowns.
func (s *ReportService) Dashboard(ctx context.Context, now time.Time) (Dashboard, error) {
	// now only matters through the day count behind the daily average.
	days := report.SpendingDays(core.AllTransactions(s.ledger.Wallets()), now)
	key := fmt.Sprintf("dashboard|%d", days)

	return cached(s, key, func() (Dashboard, error) {
		wallets := s.ledger.Wallets()
		txs := core.AllTransactions(wallets)
		d := Dashboard{WalletCount: len(wallets)}
		for _, w := range wallets {
			d.TotalBalance = d.TotalBalance.Add(w.Balance)
			d.Income = d.Income.Add(w.TotalIncome)
			d.Expenses = d.Expenses.Add(w.TotalExpenses)
		}
		d.SpendingRatio = report.SpendingRatio(d.Income, d.Expenses)
		d.HighSpending = report.IsHighSpending(d.Income, d.Expenses)
		if days > 0 {
			d.AverageDaily = report.Sum(txs).Expenses.Div(days)
		}
		d.ByCategory = report.ByCategory(txs, report.AllTime, core.Expense)
		d.MonthlySpending = report.MonthlySpending(txs)
		d.RecentActivities = core.SortByDateDesc(txs)
		if len(d.RecentActivities) > core.DefaultRecentLimit {
			d.RecentActivities = d.RecentActivities[:core.DefaultRecentLimit]
		}
		return d, nil
	})
}

// cached serves key from the cache or builds it once, even under concurrent
// misses. Keys are scoped to the current ledger generation.
func cached[T any](s *ReportService, key string, build func() (T, error)) (T, error) {
	if s.cache == nil {
		return build()
	}
	key = fmt.Sprintf("%d|%s", s.ledger.Generation(), key)
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			s.metrics.IncReportCache(true)
			return t, nil
		}
	}
	s.metrics.IncReportCache(false)

	v, err, _ := s.group.Do(key, func() (any, error) {
		t, err := build()
		if err != nil {
			return nil, err
		}
		s.cache.Set(key, t)
		return t, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
