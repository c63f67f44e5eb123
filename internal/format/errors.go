package format

import "errors"

// Sentinel errors returned by the checked readers and cell parsers in this
// package. Callers typically wrap these with offset/context via fmt.Errorf's
// %w verb rather than returning them bare.
var (
	// ErrBoundsCheck is returned when a read would step outside the supplied
	// buffer, or when a length-prefixed field's declared size doesn't fit.
	ErrBoundsCheck = errors.New("format: bounds check failed")

	// ErrTruncated is returned when a buffer is shorter than a fixed-size
	// structure requires (e.g. an nk cell payload shorter than its minimum
	// header size).
	ErrTruncated = errors.New("format: truncated structure")

	// ErrBadSignature is returned when a cell's two-byte signature doesn't
	// match any recognized cell kind for the context it was read in.
	ErrBadSignature = errors.New("format: unrecognized signature")

	// ErrBadMagic is returned when the REGF base block's magic number is
	// missing or doesn't match "regf".
	ErrBadMagic = errors.New("format: bad base block magic")
)
