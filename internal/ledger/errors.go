package ledger

import "errors"

var (
	// ErrInvalidAmount is returned for a payment amount that is zero or negative.
	ErrInvalidAmount = errors.New("payment amount must be greater than zero")
	// ErrOverpayment is returned when a payment exceeds the outstanding balance.
	// Credit balances are not supported.
	ErrOverpayment = errors.New("payment exceeds remaining balance")
	// ErrUnknownCustomer is returned when the customer has no open credit records.
	ErrUnknownCustomer = errors.New("customer has no open utang")
	// ErrInvalidFilter is returned when a status filter or sort key is not recognised.
	ErrInvalidFilter = errors.New("invalid filter")
)
