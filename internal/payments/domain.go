package payments

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/kylemastercoder14/HomeownersAssociation/internal/dues"
	"github.com/kylemastercoder14/HomeownersAssociation/internal/shared"
)

// Input is a payment received at the association office.
type Input struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentDate   string          `json:"paymentDate" validate:"required"`
	PaymentMethod string          `json:"paymentMethod" validate:"required,max=50"`
	ReferenceNo   *string         `json:"referenceNo" validate:"omitempty,max=100"`
	ReceivedBy    *string         `json:"receivedBy" validate:"omitempty,max=100"`
}

// Receipt is the outcome of recording a payment.
type Receipt struct {
	Payment     dues.Payment    `json:"payment"`
	Due         dues.Due        `json:"due"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

var (
	// ErrInvalid indicates the payment input failed validation.
	ErrInvalid = errors.New("payments: invalid input")
	// ErrNotPayable indicates the due no longer accepts payments.
	ErrNotPayable = errors.New("payments: due does not accept payments")
	// ErrOverpayment indicates the amount exceeds the outstanding balance.
	ErrOverpayment = errors.New("payments: amount exceeds outstanding balance")
)

// ValidationError carries per-field messages for a rejected payment.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return shared.FirstMessage(e.Fields)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalid
}
