package errors

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidURLFormat     = errors.New("invalid url format")
	ErrAlreadyVoted         = errors.New("already voted")
	ErrGroupCapReached      = errors.New("group vote limit reached")
	ErrMissingConfiguration = errors.New("voting configuration is missing")
	ErrPersistenceFailure   = errors.New("ledger is unavailable")
	ErrVotingClosed         = errors.New("voting is closed")
	ErrWrongPhase           = errors.New("operation not allowed in current phase")
	ErrResultsSealed        = errors.New("results are sealed until voting ends")
)
