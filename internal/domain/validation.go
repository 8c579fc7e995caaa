package domain

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

const (
	MaxSymbolLen    = 10
	MaxNotesLen     = 500
	MaxCreatedByLen = 100
	// MaxPriceLen bounds the plain-text form of a target price.
	MaxPriceLen = 40
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// decimals are checked on their plain-text form
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("positive", func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && d.Sign() > 0
	})
	v.RegisterAlias("alert_symbol", fmt.Sprintf("required,max=%d", MaxSymbolLen))
	v.RegisterAlias("alert_price", fmt.Sprintf("positive,max=%d", MaxPriceLen))
	v.RegisterAlias("alert_notes", fmt.Sprintf("max=%d", MaxNotesLen))
	v.RegisterAlias("alert_creator", fmt.Sprintf("required,max=%d", MaxCreatedByLen))
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Fields are the user-editable parts of an alert.
type Fields struct {
	Symbol      string
	TargetPrice decimal.Decimal
	Direction   Direction
	Notes       string
}

// Normalize trims and upper-cases the symbol and canonicalizes the direction.
func (f Fields) Normalize() Fields {
	f.Symbol = NormalizeSymbol(f.Symbol)
	f.Direction = NormalizeDirection(string(f.Direction))
	return f
}

func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// field names follow the external alert shape
type fieldRules struct {
	Symbol      string          `json:"symbol" validate:"alert_symbol"`
	TargetPrice decimal.Decimal `json:"targetPrice" validate:"alert_price"`
	Direction   Direction       `json:"direction" validate:"required,oneof=Above Below"`
	Notes       string          `json:"notes" validate:"alert_notes"`
}

type createRules struct {
	Symbol      string          `json:"symbol" validate:"alert_symbol"`
	TargetPrice decimal.Decimal `json:"targetPrice" validate:"alert_price"`
	Direction   Direction       `json:"direction" validate:"required,oneof=Above Below"`
	CreatedBy   string          `json:"createdBy" validate:"alert_creator"`
	Notes       string          `json:"notes" validate:"alert_notes"`
}

// Validate checks already-normalized fields and reports every violation.
func (f Fields) Validate() error {
	return check(fieldRules{
		Symbol:      f.Symbol,
		TargetPrice: f.TargetPrice,
		Direction:   f.Direction,
		Notes:       f.Notes,
	})
}

// ValidateCreate checks the fields of a new alert together with its creator.
func ValidateCreate(createdBy string, f Fields) error {
	return check(createRules{
		Symbol:      f.Symbol,
		TargetPrice: f.TargetPrice,
		Direction:   f.Direction,
		CreatedBy:   strings.TrimSpace(createdBy),
		Notes:       f.Notes,
	})
}

// ValidateID checks the shape of an alert id.
func ValidateID(id string) error {
	err := validate.Var(id, "required,uuid")
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, violation("id", fe.ActualTag(), fe.Param()))
	}
	return &ValidationError{Violations: violations}
}

func check(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, violation(fe.Field(), fe.ActualTag(), fe.Param()))
	}
	return &ValidationError{Violations: violations}
}

func violation(field, tag, param string) Violation {
	var msg string
	switch tag {
	case "required":
		msg = fmt.Sprintf("%s is required", field)
	case "max":
		msg = fmt.Sprintf("%s cannot be longer than %s characters", field, param)
	case "positive":
		msg = fmt.Sprintf("%s must be greater than 0", field)
	case "oneof":
		msg = fmt.Sprintf("%s must be one of [%s]", field, param)
	case "uuid":
		msg = fmt.Sprintf("%s must be a valid UUID", field)
	default:
		msg = fmt.Sprintf("%s failed rule %s", field, tag)
	}
	return Violation{Field: field, Rule: tag, Message: msg}
}
