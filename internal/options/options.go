// Package options provides a small generic functional-options mechanism
// used by channel.Channel construction.
//
// channel.Config collects the optional knobs (codec, level, block size,
// chunk size, thread count, logger) on top of a constructor's required
// positional parameters (data, width, height), and each channel.WithXxx
// returns an Option applied against it. image's constructors and bulk-read
// functions have no config type of their own: they take the same
// channel.Option values and forward them, while postprocess callbacks and
// channel selectors are positional parameters.
package options

// Option represents a functional option for configuring a value of type T.
type Option[T any] interface {
	apply(T) error
}

// Func is a functional option that wraps a plain function.
type Func[T any] struct {
	applyFunc func(T) error
}

func (f *Func[T]) apply(target T) error {
	return f.applyFunc(target)
}

// New creates an Option from a function that can fail, e.g. validating
// that a thread count is positive or a logger is non-nil.
func New[T any](fn func(T) error) *Func[T] {
	return &Func[T]{applyFunc: fn}
}

// NoError creates an Option from a function that cannot fail, e.g. clamping
// a compression level into range.
func NoError[T any](fn func(T)) *Func[T] {
	return &Func[T]{
		applyFunc: func(target T) error {
			fn(target)

			return nil
		},
	}
}

// Apply applies options to target in order, stopping at the first error.
func Apply[T any](target T, opts ...Option[T]) error {
	for _, opt := range opts {
		if err := opt.apply(target); err != nil {
			return err
		}
	}

	return nil
}
