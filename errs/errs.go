// Package errs holds the sentinel errors returned throughout this module.
//
// Every fallible operation returns one of these wrapped with call-specific
// context via fmt.Errorf("...: %w", ...), so callers can test the failure
// category with errors.Is while still getting a human-readable message.
// Nothing in this module retries or swallows an error; a failed operation
// surfaces it to the caller, per spec.md §7.
package errs

import "errors"

var (
	// ErrCodecFailure means the underlying compress/decompress call
	// reported an error, or returned a nonsense size (e.g. a decompressed
	// byte count that isn't a positive multiple of sizeof(T)).
	ErrCodecFailure = errors.New("codec failure")

	// ErrSizeMismatch means an input buffer's length was inconsistent with
	// the declared dimensions: channel data vs width*height, names vs
	// channel count, or an update buffer vs the chunk it replaces.
	ErrSizeMismatch = errors.New("size mismatch")

	// ErrIndexOutOfRange means a chunk index, channel index, or iterator
	// advance went past the end of its container.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrUnknownChannel means a channel name or index requested from a
	// scanline source was not found. Image lookups report ErrUnknownName
	// (by name) or ErrIndexOutOfRange (by index) instead.
	ErrUnknownChannel = errors.New("unknown channel")

	// ErrUnknownName means a channel name lookup on an Image failed.
	ErrUnknownName = errors.New("unknown name")

	// ErrInvalidArgument means a constructor or option received a value
	// that violates a structural precondition: a zero stride, a chunk
	// size that isn't a multiple of sizeof(T), a block size not smaller
	// than the chunk size, or a negative count.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidState means an operation was attempted on a value that
	// cannot service it: a zero-value iterator, or a container that was
	// moved out of.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnsupportedFormat means the external scanline source described
	// something this engine cannot ingest, most notably a tiled image.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrIoNotFound means the external scanline source could not locate
	// the requested resource.
	ErrIoNotFound = errors.New("io: not found")

	// ErrIoOpen means the external scanline source failed to open the
	// requested resource for a reason other than it not existing.
	ErrIoOpen = errors.New("io: open failed")
)
