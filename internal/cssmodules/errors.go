package icm

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyName        = errors.New("style record has no name")
	ErrSelfDependency   = errors.New("style record depends on itself")
	ErrAlreadyFinalized = errors.New("bundle already finalized")
)

// FetchTransformError is returned by FileFetcher when a module could not
// be read or transformed.
type FetchTransformError struct {
	Name string
	Err  error
}

func (e *FetchTransformError) Error() string {
	return fmt.Sprintf("error fetching CSS module %s: %v", e.Name, e.Err)
}

func (e *FetchTransformError) Unwrap() error { return e.Err }

// CyclicDependencyError reports a dependency cycle among registered
// modules. Cycle starts and ends with the same name.
type CyclicDependencyError struct {
	Cycle []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic CSS module dependency: %s", strings.Join(e.Cycle, " -> "))
}

// ResourceMaterializationError is returned when an external resource
// handle could not be created for a record.
type ResourceMaterializationError struct {
	Name string
	Err  error
}

func (e *ResourceMaterializationError) Error() string {
	return fmt.Sprintf("error materializing CSS resource for %s: %v", e.Name, e.Err)
}

func (e *ResourceMaterializationError) Unwrap() error { return e.Err }
