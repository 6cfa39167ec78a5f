// internal/common/result/result.go

// Package result models the outcome of a fallible provider call as a value,
// so fallback chains compose at the orchestrator level instead of scattering
// try/catch-style handling across every call site.
package result

// Result holds either a value or the error that prevented producing one.
type Result[T any] struct {
	value T
	err   error
}

// Ok wraps a successful value.
func Ok[T any](value T) Result[T] {
	return Result[T]{value: value}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// IsOk reports whether the result carries a value.
func (r Result[T]) IsOk() bool {
	return r.err == nil
}

// Unwrap returns the value and error in Go's usual pair form.
func (r Result[T]) Unwrap() (T, error) {
	return r.value, r.err
}

// Value returns the carried value; the zero value when the result is an error.
func (r Result[T]) Value() T {
	return r.value
}

// ErrValue returns the carried error, nil on success.
func (r Result[T]) ErrValue() error {
	return r.err
}

// OrElse returns r unchanged on success, otherwise the result produced by
// fallback. The original error is handed to fallback so it can be logged or
// folded into the substitute value.
func (r Result[T]) OrElse(fallback func(err error) Result[T]) Result[T] {
	if r.err == nil {
		return r
	}
	return fallback(r.err)
}
