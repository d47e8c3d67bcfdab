package sla

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/sla-engine/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Summarize computes compliance statistics. Status counts cover unresolved
// records; breach counts and the compliance rate cover every record. With
// no records the rate is 100.
func Summarize(records []domain.SLARecord) domain.SLAStats {
	var stats domain.SLAStats
	breachedAllTime := 0
	for _, rec := range records {
		if rec.ResponseBreached {
			stats.ResponseBreaches++
		}
		if rec.ResolutionBreached {
			stats.ResolutionBreaches++
		}
		if rec.Breached() {
			breachedAllTime++
		}
		if rec.Resolved() {
			continue
		}
		stats.Total++
		switch {
		case rec.Breached() || rec.Status == domain.SLAStatusBreached:
			stats.Breached++
		case rec.Status == domain.SLAStatusAtRisk:
			stats.AtRisk++
		default:
			stats.OnTrack++
		}
	}
	stats.ComplianceRate = complianceRate(len(records), breachedAllTime)
	return stats
}

func complianceRate(total, breached int) decimal.Decimal {
	if total == 0 {
		return hundred.Round(1)
	}
	compliant := decimal.NewFromInt(int64(total - breached))
	return compliant.Mul(hundred).Div(decimal.NewFromInt(int64(total))).Round(1)
}

// Aggregator computes statistics from the SLA store.
type Aggregator struct {
	records SLAStore
}

// NewAggregator creates an aggregator.
func NewAggregator(records SLAStore) *Aggregator {
	return &Aggregator{records: records}
}

// Stats summarizes every stored record.
func (a *Aggregator) Stats(ctx context.Context) (domain.SLAStats, error) {
	records, err := a.records.ListAll(ctx)
	if err != nil {
		return domain.SLAStats{}, fmt.Errorf("list sla records: %w", err)
	}
	return Summarize(records), nil
}
