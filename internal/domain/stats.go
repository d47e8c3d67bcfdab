package domain

import "github.com/shopspring/decimal"

// SLAStats is the fleet-wide compliance summary. Total, OnTrack, AtRisk and
// Breached cover unresolved records only; the breach counters and the
// compliance rate cover all records.
type SLAStats struct {
	Total              int
	OnTrack            int
	AtRisk             int
	Breached           int
	ResponseBreaches   int
	ResolutionBreaches int
	ComplianceRate     decimal.Decimal
}
