package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")
	ErrDuplicateRecord  = errors.New("duplicate record")
)

var (
	// ErrMissingParameter is returned when a todo completion lacks a field its event requires.
	ErrMissingParameter = errors.New("missing required parameter")
	// ErrUnrecognizedEvent is returned for event values outside the todo list enumeration.
	ErrUnrecognizedEvent = errors.New("unrecognized todo list event")
	ErrTodoAlreadyDone   = errors.New("todo list already done")
	ErrEventMismatch     = errors.New("event does not match todo list")
	// ErrTransactionTimeout covers lock wait timeouts and deadlines hit inside a transaction.
	ErrTransactionTimeout = errors.New("transaction timed out")
	ErrScanInProgress     = errors.New("threshold scan already in progress")
)

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
