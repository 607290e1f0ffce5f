package http

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	// report json names so clients see the fields they sent
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// ReadAndValidateRequest reads and validates request body.
func ReadAndValidateRequest(c echo.Context, req interface{}) []ValidationError {
	// Bind request
	if err := c.Bind(req); err != nil {
		return validatorDefaultRules(err)
	}

	// Set default values
	if err := defaults.Set(req); err != nil {
		return validatorDefaultRules(err)
	}

	// Validate struct
	if err := validate.StructCtx(c.Request().Context(), req); err != nil {
		return validatorDefaultRules(err)
	}

	return nil
}

// ValidateStruct applies defaults and validation rules to v outside of an
// HTTP request. It returns nil or the same []ValidationError payload the
// handlers send.
func ValidateStruct(ctx context.Context, v interface{}) []ValidationError {
	if err := defaults.Set(v); err != nil {
		return validatorDefaultRules(err)
	}
	if err := validate.StructCtx(ctx, v); err != nil {
		return validatorDefaultRules(err)
	}
	return nil
}

func validatorDefaultRules(err error) []ValidationError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]ValidationError, len(verrs))
		for i, fe := range verrs {
			out[i] = toValidationError(fe)
		}
		return out
	}

	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg = fmt.Sprint(he.Message)
	}
	return []ValidationError{{Code: "ERR_UNKNOWN", Message: msg}}
}

// rule describes how a validator tag is reported: the message after the
// field name and the params key its argument goes under.
type rule struct {
	text  string
	param string
}

var rules = map[string]rule{
	"required": {text: "is required"},
	"min":      {text: "must be at least %s", param: "min"},
	"gte":      {text: "must be greater than or equal to %s", param: "min"},
	"max":      {text: "must be at most %s", param: "max"},
	"lte":      {text: "must be less than or equal to %s", param: "max"},
	"gt":       {text: "must be greater than %s", param: "value"},
	"lt":       {text: "must be less than %s", param: "value"},
	"oneof":    {text: "must be one of: %s", param: "options"},
}

func toValidationError(fe validator.FieldError) ValidationError {
	ve := ValidationError{
		Code:   "ERR_" + strings.ToUpper(fe.Tag()),
		Field:  fe.Field(),
		Params: map[string]interface{}{},
	}

	r, ok := rules[fe.Tag()]
	if !ok {
		ve.Message = fmt.Sprintf("%s failed validation: %s", fe.Field(), fe.Tag())
		return ve
	}

	arg := fe.Param()
	switch {
	case fe.Tag() == "oneof":
		ve.Params[r.param] = strings.Fields(arg)
		arg = strings.Join(strings.Fields(arg), ", ")
	case r.param != "":
		ve.Params[r.param] = arg
	}
	if strings.Contains(r.text, "%s") {
		ve.Message = fe.Field() + " " + fmt.Sprintf(r.text, arg)
	} else {
		ve.Message = fe.Field() + " " + r.text
	}
	if (fe.Tag() == "min" || fe.Tag() == "max") && fe.Kind() == reflect.String {
		ve.Message += " characters"
	}
	return ve
}
