package sla

import "errors"

var (
	ErrPolicyNotFound  = errors.New("no active sla policy")
	ErrRecordNotFound  = errors.New("sla record not found")
	ErrDuplicateRecord = errors.New("sla record already exists for ticket")
	ErrStaleRecord     = errors.New("sla record modified concurrently")
)
