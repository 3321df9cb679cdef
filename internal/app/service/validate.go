package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"algo_tracker/internal/common"
	"algo_tracker/internal/domain/model"
)

// Transactor runs fn inside one database transaction.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		return model.ProblemDifficulty(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("attempt_status", func(fl validator.FieldLevel) bool {
		return model.AttemptStatus(fl.Field().String()).IsValid()
	})
	v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		return model.ValidDate(fl.Field().String())
	})
	v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return model.ValidEmail(fl.Field().String())
	})
	return v
}

// validateStruct runs the struct tags of s and folds every failure into
// one ErrValidation.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%v: %w", err, common.ErrValidation)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("%s: %w", strings.Join(msgs, "; "), common.ErrValidation)
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "difficulty":
		return field + " must be one of Easy, Medium, Hard"
	case "attempt_status":
		return field + " must be one of Completed, Attempted, Skipped"
	case "isodate":
		return field + " must be an ISO-8601 date"
	case "email_address":
		return "please provide a valid email"
	case "url":
		return field + " must be a valid URL"
	}
	return field + " is invalid"
}
