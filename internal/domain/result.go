package domain

// Result is the tri-state envelope emitted by sync operations.
// The variant set is closed: Loading, Success and Failure are the only
// implementations, so a type switch over them is exhaustive.
type Result[T any] interface {
	// Value returns the payload carried by this state, if any.
	Value() (T, bool)

	isResult()
}

// Loading means work is in flight. Data holds previously cached data, if any.
type Loading[T any] struct {
	Data *T
}

// Success is a terminal state carrying authoritative data.
type Success[T any] struct {
	Data T
}

// Failure is a terminal state. Data holds previously cached data, if any;
// never partial fetch results.
type Failure[T any] struct {
	Message string
	Data    *T
}

func (r Loading[T]) Value() (T, bool) {
	if r.Data == nil {
		var zero T
		return zero, false
	}
	return *r.Data, true
}

func (r Success[T]) Value() (T, bool) { return r.Data, true }

func (r Failure[T]) Value() (T, bool) {
	if r.Data == nil {
		var zero T
		return zero, false
	}
	return *r.Data, true
}

func (Loading[T]) isResult() {}
func (Success[T]) isResult() {}
func (Failure[T]) isResult() {}

// IsTerminal reports whether r ends a result stream.
func IsTerminal[T any](r Result[T]) bool {
	switch r.(type) {
	case Success[T], Failure[T]:
		return true
	default:
		return false
	}
}

// Collect drains a result stream and returns every emission in order.
func Collect[T any](ch <-chan Result[T]) []Result[T] {
	var out []Result[T]
	for r := range ch {
		out = append(out, r)
	}
	return out
}

// Last drains a result stream and returns its terminal emission.
func Last[T any](ch <-chan Result[T]) Result[T] {
	var last Result[T]
	for r := range ch {
		last = r
	}
	return last
}
