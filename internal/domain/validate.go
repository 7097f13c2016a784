package domain

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// fieldValidator returns the shared validator. Decimal fields are exposed to
// tags as float64 so numeric rules like gte=0 apply to them.
func fieldValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterCustomTypeFunc(func(v reflect.Value) interface{} {
			d, ok := v.Interface().(decimal.Decimal)
			if !ok {
				return nil
			}
			f, _ := d.Float64()
			return f
		}, decimal.Decimal{})
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("field"), ",", 2)[0]
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// checkStruct runs tag validation and converts failures into ValidationErrors.
func checkStruct(s any, messages map[string]string) error {
	err := fieldValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return validationf("%v", err)
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		key := fe.Field() + "." + fe.Tag()
		msg, ok := messages[key]
		if !ok {
			msg = "failed " + fe.Tag() + " check"
		}
		if _, exists := out[fe.Field()]; !exists {
			out[fe.Field()] = msg
		}
	}
	return out
}
