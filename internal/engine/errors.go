package engine

import "errors"

// Run-fatal errors. They wrap the underlying store error when there is one.
var (
	ErrFetchSubscriptions = errors.New("failed to fetch subscriptions")
	ErrFetchProblems      = errors.New("failed to fetch problems")
	ErrNoProblems         = errors.New("no active problems")
	ErrFetchState         = errors.New("failed to fetch delivery state")
)

// ErrEmptyProblemList fails a single subscription whose list has no problems
var ErrEmptyProblemList = errors.New("problem list has no active problems")
