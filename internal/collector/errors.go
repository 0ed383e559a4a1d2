package collector

import "fmt"

// ReadFailure reports that one entry could not be read. It aborts the whole
// collection.
type ReadFailure struct {
	Name string
	Path string
	Err  error
}

func (e *ReadFailure) Error() string {
	return fmt.Sprintf("failed to read %s (%s): %v", e.Name, e.Path, e.Err)
}

func (e *ReadFailure) Unwrap() error { return e.Err }

// PathCollision reports two entries normalizing to the same archive path
// under the strict collision policy.
type PathCollision struct {
	Path   string
	First  string
	Second string
}

func (e *PathCollision) Error() string {
	return fmt.Sprintf("path collision on %q: %s and %s", e.Path, e.First, e.Second)
}
