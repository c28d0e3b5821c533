package pathstore

import "fmt"

// PathCreationError reports a directory level that could not be created.
// It is the only fatal error the store returns.
type PathCreationError struct {
	Path string
	Err  error
}

func (e *PathCreationError) Error() string {
	return fmt.Sprintf("unable to create directory: %s: %v", e.Path, e.Err)
}

func (e *PathCreationError) Unwrap() error { return e.Err }
