package service

import (
	"errors"
	"fmt"

	"kasa-pos/internal/event"
	"kasa-pos/internal/session"
	"kasa-pos/pkg/validator"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrProductNotFound      = errors.New("product not found")
	ErrDuplicateBarcode     = errors.New("barcode already exists")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrSaleNotFound         = errors.New("sale not found")
	ErrThresholdNotFound    = errors.New("threshold not found")
	ErrForbidden            = errors.New("insufficient privileges")
)

// ValidationError is returned for bad input. Err, when set, names the
// underlying rule so callers can still match it with errors.Is.
type ValidationError struct {
	Msg    string
	Fields []*validator.ErrorResponse
	Err    error
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(err error, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// validate runs the struct tags and folds failures into a ValidationError.
func validate(v interface{}) error {
	errs := validator.ValidateStruct(v)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return &ValidationError{
		Msg:    fmt.Sprintf("Validation failed: Field '%s' failed on tag '%s'", first.FailedField, first.Tag),
		Fields: errs,
	}
}

func actor(s session.Session) *event.Actor {
	return &event.Actor{ID: s.UserID.String(), Username: s.Username}
}
