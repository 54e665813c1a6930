package schedule

import (
	"github.com/google/uuid"
)

// ValidationError indicates input that violates a documented precondition.
// It is raised before any persistence call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return "invalid " + e.Field + ": " + e.Reason
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	if t.Field == "" {
		return true
	}
	return e.Field == t.Field
}

// StateConflict indicates the persisted state of a schedule no longer permits
// the requested operation.
type StateConflict struct {
	ScheduleID uuid.UUID
	Reason     string
}

func (e StateConflict) Error() string {
	return "state conflict for scheduled payment " + e.ScheduleID.String() + ": " + e.Reason
}

// Is implements the errors.Is interface for StateConflict
func (e StateConflict) Is(target error) bool {
	t, ok := target.(StateConflict)
	if !ok {
		return false
	}
	// If the target ScheduleID is empty, consider it a match for any StateConflict
	if t.ScheduleID == uuid.Nil {
		return true
	}
	return e.ScheduleID == t.ScheduleID
}

// ErrScheduleNotFound indicates missing scheduled payment
type ErrScheduleNotFound struct {
	ScheduleID uuid.UUID
}

func (e ErrScheduleNotFound) Error() string {
	return "scheduled payment not found: " + e.ScheduleID.String()
}

// Is implements the errors.Is interface for ErrScheduleNotFound
func (e ErrScheduleNotFound) Is(target error) bool {
	t, ok := target.(ErrScheduleNotFound)
	if !ok {
		return false
	}
	if t.ScheduleID == uuid.Nil {
		return true
	}
	return e.ScheduleID == t.ScheduleID
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	ScheduleID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for scheduled payment: " + e.ScheduleID.String()
}

// Is implements the errors.Is interface for ErrConcurrentModification
func (e ErrConcurrentModification) Is(target error) bool {
	t, ok := target.(ErrConcurrentModification)
	if !ok {
		return false
	}
	if t.ScheduleID == uuid.Nil {
		return true
	}
	return e.ScheduleID == t.ScheduleID
}

// PersistenceError wraps a failure of the storage layer. The schedule is
// guaranteed unchanged when one is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e PersistenceError) Error() string {
	return "persistence failure during " + e.Op + ": " + e.Err.Error()
}

func (e PersistenceError) Unwrap() error {
	return e.Err
}

// Is implements the errors.Is interface for PersistenceError
func (e PersistenceError) Is(target error) bool {
	t, ok := target.(PersistenceError)
	if !ok {
		return false
	}
	return t.Op == "" || t.Op == e.Op
}
