package batch

import "errors"

var (
	ErrBatchNotFound      = errors.New("settlement batch not found")
	ErrBatchNotProcessing = errors.New("settlement batch is not processing")
	ErrBatchNotCompleted  = errors.New("settlement batch is not completed")
	ErrAlreadyApproved    = errors.New("settlement batch already approved")
	// ErrCounterContention means the optimistic counter update kept losing
	// races past the retry budget.
	ErrCounterContention = errors.New("settlement batch counter contention")
)
