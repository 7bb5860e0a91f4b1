package messenger

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrStoreUnavailable = errors.New("store unavailable")
	ErrSubscriptionLost = errors.New("subscription lost")
	ErrSessionClosed    = errors.New("session closed")
	ErrUnknownReceiver  = errors.New("receiver of the conversation is unknown")
	ErrAlreadyStarted   = errors.New("session already started")
)

// StoreError is a failed store call; it matches ErrStoreUnavailable.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
