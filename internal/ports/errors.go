package ports

import "errors"

// Standard application-level errors.
// Adapters and core stages wrap underlying errors with these standard errors
// so that callers can branch with errors.Is.
var (
	// ErrInvalidConfiguration signals a bad period, ratio or symbol set.
	// Surfaced before any computation starts.
	ErrInvalidConfiguration = errors.New("invalid or missing configuration")

	// ErrDataUnavailable signals that a symbol has no price data for the
	// requested range. Recovered per symbol; a run never aborts because of it,
	// except when the reference pair itself has no data.
	ErrDataUnavailable = errors.New("no price data available")

	// ErrInsufficientHistory signals fewer aligned points than the RSI period
	// requires. A reportable outcome, not a failure.
	ErrInsufficientHistory = errors.New("not enough history for the requested period")

	// ErrMisalignedSeries signals that a converter received two series whose
	// date sets differ. This is a contract breach between the aligner and the
	// converter and is surfaced, never silently recovered.
	ErrMisalignedSeries = errors.New("series date sets are not aligned")

	// Storage errors.
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
)
