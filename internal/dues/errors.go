package dues

import (
	"errors"
	"strings"
)

// Kind names a failure class reported to callers.
type Kind string

const (
	KindInvalidPayload         Kind = "InvalidPayload"
	KindHouseholdInvalid       Kind = "HouseholdInvalid"
	KindWaterBillFieldsInvalid Kind = "WaterBillFieldsInvalid"
	KindDuplicateDue           Kind = "DuplicateDue"
	KindFiscalPeriodInvalid    Kind = "FiscalPeriodInvalid"
	KindAmountTooLow           Kind = "AmountTooLow"
	KindDueDateInPast          Kind = "DueDateInPast"
	KindProtectedFieldsLocked  Kind = "ProtectedFieldsLocked"
	KindDueNotFound            Kind = "DueNotFound"
	KindPersistence            Kind = "PersistenceFailure"
)

var (
	ErrInvalidPayload         = errors.New("dues: invalid payload")
	ErrHouseholdInvalid       = errors.New("dues: household invalid")
	ErrWaterBillFieldsInvalid = errors.New("dues: water bill fields invalid")
	ErrDuplicateDue           = errors.New("dues: duplicate due for period")
	ErrFiscalPeriodInvalid    = errors.New("dues: fiscal period invalid")
	ErrAmountTooLow           = errors.New("dues: amount too low")
	ErrDueDateInPast          = errors.New("dues: due date in past")
	ErrProtectedFieldsLocked  = errors.New("dues: protected fields locked")
	ErrDueNotFound            = errors.New("dues: due not found")
	ErrPersistence            = errors.New("dues: persistence failure")
)

var kindSentinels = map[Kind]error{
	KindInvalidPayload:         ErrInvalidPayload,
	KindHouseholdInvalid:       ErrHouseholdInvalid,
	KindWaterBillFieldsInvalid: ErrWaterBillFieldsInvalid,
	KindDuplicateDue:           ErrDuplicateDue,
	KindFiscalPeriodInvalid:    ErrFiscalPeriodInvalid,
	KindAmountTooLow:           ErrAmountTooLow,
	KindDueDateInPast:          ErrDueDateInPast,
	KindProtectedFieldsLocked:  ErrProtectedFieldsLocked,
	KindDueNotFound:            ErrDueNotFound,
	KindPersistence:            ErrPersistence,
}

// ValidationError is a rejected submission with a human readable message.
type ValidationError struct {
	Kind    Kind
	Message string
	Fields  []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Unwrap exposes the sentinel for the kind so errors.Is works.
func (e *ValidationError) Unwrap() error {
	return kindSentinels[e.Kind]
}

func invalid(kind Kind, message string, fields ...string) *ValidationError {
	return &ValidationError{Kind: kind, Message: message, Fields: fields}
}

// PersistenceError wraps a store failure raised while writing.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return "dues: " + e.Op + ": " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() []error {
	return []error{ErrPersistence, e.Err}
}

// KindOf classifies err. Unknown errors are persistence failures.
func KindOf(err error) Kind {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Kind
	}
	for kind, sentinel := range kindSentinels {
		if kind != KindPersistence && errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindPersistence
}

func joinFields(fields []string) string {
	return strings.Join(fields, ", ")
}
