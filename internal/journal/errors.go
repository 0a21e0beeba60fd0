package journal

import (
	"errors"
	"fmt"
)

var (
	// ErrCorruptStore matches any *CorruptStoreError.
	ErrCorruptStore = errors.New("corrupt journal store")
	// ErrWrite matches any *WriteError.
	ErrWrite = errors.New("journal write failed")
	// ErrDuplicateID is returned when adding an entry whose ID is taken.
	ErrDuplicateID = errors.New("duplicate entry ID")
)

// CorruptStoreError reports a backing file that exists but cannot be parsed.
type CorruptStoreError struct {
	Path string
	Err  error
}

func (e *CorruptStoreError) Error() string {
	return fmt.Sprintf("corrupt journal %s: %v", e.Path, e.Err)
}

func (e *CorruptStoreError) Unwrap() error { return e.Err }

func (e *CorruptStoreError) Is(target error) bool { return target == ErrCorruptStore }

// WriteError reports an I/O failure while saving the backing file.
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("saving journal %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

func (e *WriteError) Is(target error) bool { return target == ErrWrite }
