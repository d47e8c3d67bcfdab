package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/sla-engine/internal/domain"
)

var started = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

// newRecord mirrors a medium policy of 60 minutes to respond and 480 to
// resolve, on the wall clock.
func newRecord() domain.SLARecord {
	return domain.SLARecord{
		ID:                 "rec-1",
		TicketID:           "ticket-1",
		PolicyID:           "policy-medium",
		StartedAt:          started,
		ResponseDeadline:   started.Add(60 * time.Minute),
		ResolutionDeadline: started.Add(480 * time.Minute),
		Status:             domain.SLAStatusOnTrack,
	}
}

func after(minutes int) time.Time {
	return started.Add(time.Duration(minutes) * time.Minute)
}

func TestEvaluate_OnTrack(t *testing.T) {
	got := NewEvaluator(DefaultAtRiskFraction).Evaluate(newRecord(), after(30))

	assert.Equal(t, domain.SLAStatusOnTrack, got.Status)
	assert.False(t, got.ResponseBreached)
	assert.False(t, got.ResolutionBreached)
}

func TestEvaluate_ResponseBreachOnly(t *testing.T) {
	got := NewEvaluator(DefaultAtRiskFraction).Evaluate(newRecord(), after(90))

	assert.True(t, got.ResponseBreached)
	assert.False(t, got.ResolutionBreached)
	assert.Equal(t, domain.SLAStatusBreached, got.Status)
}

func TestEvaluate_DeadlineInstantIsNotBreach(t *testing.T) {
	got := NewEvaluator(DefaultAtRiskFraction).Evaluate(newRecord(), after(60))

	assert.False(t, got.ResponseBreached)
	assert.Equal(t, domain.SLAStatusAtRisk, got.Status)
}

func TestEvaluate_AtRisk(t *testing.T) {
	e := NewEvaluator(DefaultAtRiskFraction)

	// The last 15 of 60 response minutes are the warning band.
	assert.Equal(t, domain.SLAStatusOnTrack, e.Evaluate(newRecord(), after(44)).Status)
	assert.Equal(t, domain.SLAStatusAtRisk, e.Evaluate(newRecord(), after(45)).Status)

	responded := newRecord()
	at := after(20)
	responded.FirstResponseAt = &at

	// Once responded only the resolution deadline counts: its band starts
	// 120 minutes before the 480 minute mark.
	assert.Equal(t, domain.SLAStatusOnTrack, e.Evaluate(responded, after(50)).Status)
	assert.Equal(t, domain.SLAStatusOnTrack, e.Evaluate(responded, after(359)).Status)
	assert.Equal(t, domain.SLAStatusAtRisk, e.Evaluate(responded, after(360)).Status)
}

func TestEvaluate_CustomFraction(t *testing.T) {
	e := NewEvaluator(0.5)

	assert.Equal(t, domain.SLAStatusAtRisk, e.Evaluate(newRecord(), after(30)).Status)
	assert.Equal(t, domain.SLAStatusOnTrack, e.Evaluate(newRecord(), after(29)).Status)
}

func TestNewEvaluator_InvalidFractionFallsBack(t *testing.T) {
	assert.Equal(t, NewEvaluator(DefaultAtRiskFraction), NewEvaluator(0))
	assert.Equal(t, NewEvaluator(DefaultAtRiskFraction), NewEvaluator(1.5))
}

func TestEvaluate_ResponseAfterDeadlineDoesNotUnbreach(t *testing.T) {
	e := NewEvaluator(DefaultAtRiskFraction)
	breached := e.Evaluate(newRecord(), after(90))
	require.True(t, breached.ResponseBreached)

	at := after(100)
	breached.FirstResponseAt = &at
	got := e.Evaluate(breached, after(110))

	assert.True(t, got.ResponseBreached)
	assert.Equal(t, domain.SLAStatusBreached, got.Status)
}

func TestEvaluate_BreachFlagsAreMonotonic(t *testing.T) {
	e := NewEvaluator(DefaultAtRiskFraction)
	breached := e.Evaluate(newRecord(), after(500))
	require.True(t, breached.ResponseBreached)
	require.True(t, breached.ResolutionBreached)

	// An evaluation with an earlier clock, as a lagging worker might run it.
	got := e.Evaluate(breached, after(10))

	assert.True(t, got.ResponseBreached)
	assert.True(t, got.ResolutionBreached)
	assert.Equal(t, domain.SLAStatusBreached, got.Status)
}

func TestEvaluate_ResolvedRecordIsFrozen(t *testing.T) {
	rec := newRecord()
	resolvedAt := after(30)
	rec.ResolvedAt = &resolvedAt

	got := NewEvaluator(DefaultAtRiskFraction).Evaluate(rec, after(1000))

	assert.True(t, got.Equal(rec))
	assert.False(t, got.Breached())
}

func TestDetectEscalations(t *testing.T) {
	e := NewEvaluator(DefaultAtRiskFraction)

	t.Run("first warning", func(t *testing.T) {
		prev := newRecord()
		next := e.Evaluate(prev, after(50))

		escs := DetectEscalations(prev, next, after(50))

		require.Len(t, escs, 1)
		assert.Equal(t, domain.SLAStatusOnTrack, escs[0].PreviousStatus)
		assert.Equal(t, domain.SLAStatusAtRisk, escs[0].NewStatus)
		assert.Equal(t, domain.DeadlineResponse, escs[0].DeadlineType)
		assert.Equal(t, "ticket-1", escs[0].TicketID)
	})

	t.Run("warning sent only once", func(t *testing.T) {
		prev := newRecord()
		prev.WarningsSent = 1

		escs := DetectEscalations(prev, e.Evaluate(prev, after(50)), after(50))

		assert.Empty(t, escs)
	})

	t.Run("no repeat while at risk", func(t *testing.T) {
		prev := e.Evaluate(newRecord(), after(50))

		escs := DetectEscalations(prev, e.Evaluate(prev, after(55)), after(55))

		assert.Empty(t, escs)
	})

	t.Run("each breach escalates", func(t *testing.T) {
		prev := newRecord()
		next := e.Evaluate(prev, after(500))

		escs := DetectEscalations(prev, next, after(500))

		require.Len(t, escs, 2)
		assert.Equal(t, domain.DeadlineResponse, escs[0].DeadlineType)
		assert.Equal(t, domain.DeadlineResolution, escs[1].DeadlineType)
		for _, esc := range escs {
			assert.Equal(t, domain.SLAStatusBreached, esc.NewStatus)
		}
	})

	t.Run("breach already known", func(t *testing.T) {
		prev := e.Evaluate(newRecord(), after(90))

		escs := DetectEscalations(prev, e.Evaluate(prev, after(120)), after(120))

		assert.Empty(t, escs)
	})
}

func TestApplyEscalations(t *testing.T) {
	rec := newRecord()

	ApplyEscalations(&rec, []domain.Escalation{{NewStatus: domain.SLAStatusAtRisk}})
	assert.Equal(t, 1, rec.WarningsSent)
	assert.False(t, rec.Escalated)

	ApplyEscalations(&rec, []domain.Escalation{{NewStatus: domain.SLAStatusBreached}})
	assert.Equal(t, 1, rec.WarningsSent)
	assert.True(t, rec.Escalated)
}
