package convert

import "fmt"

// AssemblyError is a structural failure while building or serializing
// document. Nothing is written when it is returned.
type AssemblyError struct {
	Op  string
	Err error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("unable to assemble document, %s: %v", e.Op, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
