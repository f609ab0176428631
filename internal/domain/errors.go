package domain

import "errors"

var (
	// ErrInvalidArgument is returned for malformed or missing input, before any store access.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrIllegalTransition is returned when a requested status change violates
	// the resource's state machine.
	ErrIllegalTransition = errors.New("illegal status transition")

	// ErrNotOwner is returned when a caller references a resource owned by a
	// different customer.
	ErrNotOwner = errors.New("resource not owned by customer")
)
