package repository

import "errors"

var (
	ErrPolicyNotFound     = errors.New("policy not found")
	ErrActivePolicyExists = errors.New("an active policy already exists for this priority")
	ErrUnknownTicket      = errors.New("ticket does not exist")
)
