package validation

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"auction-lifecycle/internal/auctionerrors"
	"auction-lifecycle/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// ValidationError lists the rejected fields of an auction input, keyed by json name
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return fmt.Sprintf("%s: %s", auctionerrors.ErrInvalidAuction, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return auctionerrors.ErrInvalidAuction
}

// Validator checks auction inputs before they reach the repository
type Validator struct {
	validate *validator.Validate
}

// NewValidator builds a Validator with the auction rules registered
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterStructValidation(auctionInputRules, models.AuctionInput{})
	return &Validator{validate: v}
}

// ValidateAuction returns a *ValidationError when the input breaks a rule
func (v *Validator) ValidateAuction(in models.AuctionInput) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate auction: %w", err)
	}

	verr := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := verr.Fields[fe.Field()]; seen {
			continue
		}
		verr.Fields[fe.Field()] = describe(fe)
	}
	return verr
}

// cross-field rules that tags cannot express on a pointer
func auctionInputRules(sl validator.StructLevel) {
	in := sl.Current().Interface().(models.AuctionInput)

	if !in.StartTime.IsZero() && !in.EndTime.IsZero() && !in.StartTime.Before(in.EndTime) {
		sl.ReportError(in.StartTime, "start_time", "StartTime", "ltfield", "end_time")
	}
	if in.ReservePrice != nil && *in.ReservePrice < in.InitialPrice {
		sl.ReportError(in.ReservePrice, "reserve_price", "ReservePrice", "gtefield", "initial_price")
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "notblank":
		return "must not be blank"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "ltfield":
		return fmt.Sprintf("must be before %s", fe.Param())
	case "gtefield":
		return fmt.Sprintf("must be at least %s", fe.Param())
	default:
		return "is invalid"
	}
}
