package tracker

// Result is the outcome of an optimistic command. The new value is applied
// to State before the write; when the write fails it is rolled back, Err is
// set and Current equals Previous.
type Result[T any] struct {
	Applied  bool
	Err      error
	Previous T
	Current  T
}

func applied[T any](prev, cur T) Result[T] {
	return Result[T]{Applied: true, Previous: prev, Current: cur}
}

func failed[T any](prev T, err error) Result[T] {
	return Result[T]{Err: err, Previous: prev, Current: prev}
}

// unchanged is a successful command that had nothing to write.
func unchanged[T any](cur T) Result[T] {
	return Result[T]{Previous: cur, Current: cur}
}
