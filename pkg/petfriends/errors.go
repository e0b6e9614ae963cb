package petfriends

import "fmt"

// TransportError reports a call that never produced an HTTP status: the request could not
// be built, the photo could not be read, or the connection failed.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("petfriends %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
