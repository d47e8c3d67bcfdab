package domain

import (
	"errors"
	"fmt"
	"time"
)

// Policy is a priority-keyed SLA contract. Policies are deactivated, never
// deleted, so historical records keep a valid reference.
type Policy struct {
	ID                    string
	Name                  string
	Priority              Priority
	ResponseTimeMinutes   int
	ResolutionTimeMinutes int
	BusinessHoursOnly     bool
	IsActive              bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Validate checks the invariants a policy must satisfy before it is stored.
func (p Policy) Validate() error {
	if !p.Priority.Valid() {
		return fmt.Errorf("unknown priority %q", p.Priority)
	}
	if p.ResponseTimeMinutes <= 0 {
		return errors.New("response time must be positive")
	}
	if p.ResolutionTimeMinutes <= 0 {
		return errors.New("resolution time must be positive")
	}
	if p.ResolutionTimeMinutes < p.ResponseTimeMinutes {
		return errors.New("resolution time must not be shorter than response time")
	}
	return nil
}
