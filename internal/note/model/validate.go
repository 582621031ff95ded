package model

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func noteValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		// Report JSON names so messages match the request payload.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		err := validate.RegisterValidation("nonempty", func(fl validator.FieldLevel) bool {
			return fl.Field().String() != ""
		})
		if err != nil {
			panic(err)
		}
	})
	return validate
}

// Validate checks n against the note schema. Violations are returned as a
// *ValidationError.
func Validate(n Note) error {
	err := noteValidator().Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := &ValidationError{}
	for _, fe := range verrs {
		field := fieldName(fe)
		out.Fields = append(out.Fields, FieldError{Field: field, Message: message(field, fe)})
	}
	return out
}

// fieldName strips the struct prefix and any element index, e.g.
// "Note.content[2]" becomes "content".
func fieldName(fe validator.FieldError) string {
	name := fe.Field()
	if i := strings.IndexByte(name, '['); i >= 0 {
		name = name[:i]
	}
	return name
}

func message(field string, fe validator.FieldError) string {
	switch field {
	case "subject":
		if fe.Tag() == "max" {
			return fmt.Sprintf("Subject cannot exceed %d characters", MaxSubjectLength)
		}
		return "Subject is required"
	case "subHeader":
		return fmt.Sprintf("Subheader cannot exceed %d characters", MaxSubHeaderLength)
	case "content":
		if fe.Tag() == "nonempty" {
			return "Bullet points cannot be empty"
		}
		return "At least one bullet point is required"
	case "updatedAt":
		return "updatedAt cannot precede createdAt"
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
