package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"tradlyst/internal/domain"
)

const (
	dayLayout   = "2006-01-02"
	monthLayout = "2006-01"
)

// Summary holds journal performance metrics over closed trades
type Summary struct {
	// Basic Metrics
	TotalTrades  int
	Wins         int
	Losses       int
	WinRate      float64 // Percent of closed trades with positive net P&L
	NetPnL       decimal.Decimal
	GrossProfit  decimal.Decimal
	GrossLoss    decimal.Decimal // Positive magnitude
	ProfitFactor float64         // +Inf when there is profit and no loss
	AverageWin   decimal.Decimal
	AverageLoss  decimal.Decimal // Positive magnitude
	WinLossRatio float64         // +Inf when there are wins and no losses

	// Advanced Metrics
	MaxConsecutiveWins   int
	MaxConsecutiveLosses int
	Expectancy           decimal.Decimal // Average net P&L per closed trade
	TopWinners           []TradeResult
	TopLosers            []TradeResult
	DailyPnL             map[string]decimal.Decimal // Keyed by exit date, YYYY-MM-DD
	Monthly              []MonthlyPnL
}

// TradeResult pairs a closed trade with its net P&L
type TradeResult struct {
	Trade  *domain.Trade
	NetPnL decimal.Decimal
}

// MonthlyPnL is the net P&L realised in one calendar month
type MonthlyPnL struct {
	Month time.Time
	PnL   decimal.Decimal
}

// NetPnL returns (exit - entry) * qty, sign-flipped for shorts, minus brokerage
// and other fees. qty is the exited quantity when one was recorded. Open trades
// have zero P&L.
func NetPnL(t *domain.Trade) decimal.Decimal {
	if !t.IsClosed() {
		return decimal.Zero
	}
	qty := decimal.NewFromFloat(t.ExitedQuantity())
	move := decimal.NewFromFloat(*t.ExitPrice).Sub(decimal.NewFromFloat(t.EntryPrice))
	if t.Direction == domain.Short {
		move = move.Neg()
	}
	fees := decimal.NewFromFloat(t.Brokerage).Add(decimal.NewFromFloat(t.OtherFees))
	return move.Mul(qty).Sub(fees)
}

// Summarize calculates journal metrics from trades. Open trades are ignored.
// topN bounds the winner and loser lists.
func Summarize(trades []*domain.Trade, topN int) *Summary {
	s := &Summary{
		DailyPnL:   make(map[string]decimal.Decimal),
		TopWinners: make([]TradeResult, 0),
		TopLosers:  make([]TradeResult, 0),
		Monthly:    make([]MonthlyPnL, 0),
	}

	results := make([]TradeResult, 0, len(trades))
	for _, t := range trades {
		if t.IsClosed() {
			results = append(results, TradeResult{Trade: t, NetPnL: NetPnL(t)})
		}
	}
	if len(results) == 0 {
		return s
	}

	// Streaks follow the order trades were closed in
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i].Trade, results[j].Trade
		if !a.ExitDate.Equal(*b.ExitDate) {
			return a.ExitDate.Before(*b.ExitDate)
		}
		return a.EntryDate.Before(b.EntryDate)
	})

	monthly := make(map[string]decimal.Decimal)
	var consecutiveWins, consecutiveLosses int
	for _, r := range results {
		s.TotalTrades++
		s.NetPnL = s.NetPnL.Add(r.NetPnL)

		switch r.NetPnL.Sign() {
		case 1:
			s.Wins++
			s.GrossProfit = s.GrossProfit.Add(r.NetPnL)
			consecutiveWins++
			consecutiveLosses = 0
		case -1:
			s.Losses++
			s.GrossLoss = s.GrossLoss.Add(r.NetPnL.Abs())
			consecutiveLosses++
			consecutiveWins = 0
		default:
			// Breakeven ends both streaks
			consecutiveWins, consecutiveLosses = 0, 0
		}
		if consecutiveWins > s.MaxConsecutiveWins {
			s.MaxConsecutiveWins = consecutiveWins
		}
		if consecutiveLosses > s.MaxConsecutiveLosses {
			s.MaxConsecutiveLosses = consecutiveLosses
		}

		dayKey := r.Trade.ExitDate.Format(dayLayout)
		s.DailyPnL[dayKey] = s.DailyPnL[dayKey].Add(r.NetPnL)
		monthKey := r.Trade.ExitDate.Format(monthLayout)
		monthly[monthKey] = monthly[monthKey].Add(r.NetPnL)
	}

	// Calculate final metrics
	total := decimal.NewFromInt(int64(s.TotalTrades))
	s.WinRate = float64(s.Wins) / float64(s.TotalTrades) * 100
	s.Expectancy = s.NetPnL.Div(total)
	if s.Wins > 0 {
		s.AverageWin = s.GrossProfit.Div(decimal.NewFromInt(int64(s.Wins)))
	}
	if s.Losses > 0 {
		s.AverageLoss = s.GrossLoss.Div(decimal.NewFromInt(int64(s.Losses)))
	}
	s.ProfitFactor = ratio(s.GrossProfit, s.GrossLoss)
	s.WinLossRatio = ratio(s.AverageWin, s.AverageLoss)

	s.TopWinners, s.TopLosers = rank(results, topN)
	s.Monthly = monthlySeries(monthly)
	return s
}

// ratio divides gain by loss; no loss with some gain is +Inf, neither is 0.
func ratio(gain, loss decimal.Decimal) float64 {
	if loss.IsPositive() {
		return gain.Div(loss).InexactFloat64()
	}
	if gain.IsPositive() {
		return math.Inf(1)
	}
	return 0
}

func rank(results []TradeResult, topN int) (winners, losers []TradeResult) {
	if topN < 0 {
		topN = 0
	}
	sorted := append([]TradeResult(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].NetPnL.GreaterThan(sorted[j].NetPnL)
	})

	winners = make([]TradeResult, 0, topN)
	for _, r := range sorted {
		if len(winners) == topN || !r.NetPnL.IsPositive() {
			break
		}
		winners = append(winners, r)
	}
	losers = make([]TradeResult, 0, topN)
	for i := len(sorted) - 1; i >= 0; i-- {
		if len(losers) == topN || !sorted[i].NetPnL.IsNegative() {
			break
		}
		losers = append(losers, sorted[i])
	}
	return winners, losers
}

func monthlySeries(monthly map[string]decimal.Decimal) []MonthlyPnL {
	series := make([]MonthlyPnL, 0, len(monthly))
	for month, pnl := range monthly {
		date, _ := time.Parse(monthLayout, month)
		series = append(series, MonthlyPnL{Month: date, PnL: pnl})
	}
	sort.Slice(series, func(i, j int) bool {
		return series[i].Month.Before(series[j].Month)
	})
	return series
}
