// Package errs defines the sentinel errors returned by stepflow packages.
//
// Errors are compared with errors.Is. Call sites wrap them with
// fmt.Errorf("%w: ...") to add context, so callers must not compare with ==.
package errs

import "errors"

// Measurement envelope errors.
var (
	// ErrInvalidHeader is returned when a header carries an undefined or reserved
	// type/unit code, an unsupported scale, or reserved flag bits.
	ErrInvalidHeader = errors.New("invalid measurement header")
	// ErrUnknownType is returned when a type code has no known element width.
	ErrUnknownType = errors.New("unknown measurement type")
	// ErrPayloadSizeMismatch is returned when a payload size differs from
	// element width * sample count.
	ErrPayloadSizeMismatch = errors.New("payload size mismatch")
	// ErrInvalidHeaderSize is returned when header bytes are shorter than HeaderSize.
	ErrInvalidHeaderSize = errors.New("invalid header size")
	// ErrFrameTruncated is returned when a wire frame ends before its declared length.
	ErrFrameTruncated = errors.New("frame truncated")
	// ErrChecksumMismatch is returned when a wire frame checksum does not match its payload.
	ErrChecksumMismatch = errors.New("frame checksum mismatch")
	// ErrIndexOutOfRange is returned when an element index is beyond the sample count.
	ErrIndexOutOfRange = errors.New("element index out of range")
	// ErrUnsupportedType is returned when an element type has no scalar representation.
	ErrUnsupportedType = errors.New("unsupported element type")
	// ErrUnsupportedCompression is returned for a compression code with no codec.
	ErrUnsupportedCompression = errors.New("unsupported compression")
)

// Filter evaluation errors.
var (
	ErrNullChain           = errors.New("filter chain is nil")
	ErrNullMeasurement     = errors.New("measurement is nil")
	ErrChainTooLong        = errors.New("filter chain too long")
	ErrUnsupportedOperator = errors.New("unsupported filter operator")
	ErrUnsupportedField    = errors.New("unsupported filter field")
)

// Registry and scheduler errors.
var (
	ErrRegistryFull   = errors.New("process node registry full")
	ErrNodeNotFound   = errors.New("process node not found")
	ErrNodeQueueFull  = errors.New("process node queue full")
	ErrInvalidMode    = errors.New("invalid execution mode")
	ErrNilCallback    = errors.New("process node callback is nil")
	ErrRegistryClosed = errors.New("process node registry closed")
	ErrCallbackPanic  = errors.New("process node callback panicked")
	ErrDuplicateName  = errors.New("process node name in use")
)

// Sample pool errors.
var (
	ErrPoolExhausted   = errors.New("sample pool exhausted")
	ErrDoubleFree      = errors.New("sample slot double free")
	ErrForeignSample   = errors.New("sample does not belong to this pool")
	ErrPayloadTooLarge = errors.New("payload exceeds sample slot size")
)

// Configuration errors.
var (
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidConfig   = errors.New("invalid configuration")
)
