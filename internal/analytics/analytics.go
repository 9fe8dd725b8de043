// Package analytics derives performance summaries from a trade snapshot.
// Everything here is a pure function over the store's current state; nothing
// is persisted or cached.
package analytics

import (
	"errors"
	"time"

	"trade-journal-go/internal/models"
)

// TagMetrics is the per-tag performance summary.
type TagMetrics struct {
	PNL       float64 `json:"pnl"`
	ReturnPct float64 `json:"return_pct"`
	Trades    int     `json:"trades"`
}

// Metrics holds profit and loss statistics for a single closed trade.
type Metrics struct {
	PNL       float64 `json:"pnl"`
	ReturnPct float64 `json:"return_pct"`
}

// ErrOpenTrade is returned when per-trade metrics are requested for a trade
// without an exit price.
var ErrOpenTrade = errors.New("exit_price is required to compute P&L")

// direction is +1 for long trades and -1 for short trades: longs gain when
// price rises, shorts gain when price falls.
func direction(side string) float64 {
	if side == models.SideSell {
		return -1
	}
	return 1
}

func fees(t *models.Trade) float64 {
	if t.Fees == nil {
		return 0
	}
	return *t.Fees
}

// Summarize groups trades by tag and aggregates realized PNL, return on
// notional and trade count per tag.
//
// A trade tagged "scalp, momentum" contributes its full figures to both tags;
// the fan-out is intentional. Trades without tags are excluded entirely.
// Open trades (no exit price) are counted and their notional enters the
// return denominator, but they contribute zero realized PNL.
func Summarize(trades []models.Trade) map[string]TagMetrics {
	type accum struct {
		pnl      float64
		notional float64
		count    int
	}
	groups := make(map[string]*accum)

	for i := range trades {
		t := &trades[i]
		var pnl float64
		if t.ExitPrice != nil {
			pnl = (*t.ExitPrice-t.EntryPrice)*t.Qty*direction(t.Side) - fees(t)
		}
		notional := t.EntryPrice * t.Qty

		for _, tag := range t.TagList() {
			g := groups[tag]
			if g == nil {
				g = &accum{}
				groups[tag] = g
			}
			g.pnl += pnl
			g.notional += notional
			g.count++
		}
	}

	out := make(map[string]TagMetrics, len(groups))
	for tag, g := range groups {
		m := TagMetrics{PNL: g.pnl, Trades: g.count}
		if g.notional != 0 {
			m.ReturnPct = g.pnl / g.notional
		}
		out[tag] = m
	}
	return out
}

// TradeMetrics computes net PNL and percentage return for one closed trade.
// Return is 0 when the invested notional is 0.
func TradeMetrics(t models.Trade) (Metrics, error) {
	if t.ExitPrice == nil {
		return Metrics{}, ErrOpenTrade
	}
	gross := (*t.ExitPrice - t.EntryPrice) * t.Qty * direction(t.Side)
	net := gross - fees(&t)
	invested := t.EntryPrice * t.Qty

	m := Metrics{PNL: net}
	if invested != 0 {
		m.ReturnPct = net / invested
	}
	return m, nil
}

// StatsSummary aggregates a filtered slice of the journal.
type StatsSummary struct {
	TradeCount    int     `json:"trade_count"`
	TotalQuantity float64 `json:"total_quantity"`
	AveragePrice  float64 `json:"average_price"`
}

// Stats aggregates trades whose entry time falls within [start, end] and
// whose tag set contains every requested tag. Nil bounds and an empty tag
// list mean no filtering. Trades with unparseable entry times never match a
// time bound.
func Stats(trades []models.Trade, start, end *time.Time, tags []string) StatsSummary {
	var sum StatsSummary
	var totalValue float64

	for i := range trades {
		t := &trades[i]
		if start != nil || end != nil {
			entry, err := ParseTime(t.EntryTime)
			if err != nil {
				continue
			}
			if start != nil && entry.Before(*start) {
				continue
			}
			if end != nil && entry.After(*end) {
				continue
			}
		}
		if !hasAllTags(t, tags) {
			continue
		}
		sum.TradeCount++
		sum.TotalQuantity += t.Qty
		totalValue += t.EntryPrice * t.Qty
	}

	if sum.TotalQuantity != 0 {
		sum.AveragePrice = totalValue / sum.TotalQuantity
	}
	return sum
}

func hasAllTags(t *models.Trade, tags []string) bool {
	if len(tags) == 0 {
		return true
	}
	have := make(map[string]bool)
	for _, tag := range t.TagList() {
		have[tag] = true
	}
	for _, tag := range tags {
		if !have[tag] {
			return false
		}
	}
	return true
}

// ParseTime accepts the timestamp shapes the journal stores: RFC 3339 with
// or without offset, and a bare date.
func ParseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.New("unrecognized timestamp: " + s)
}
