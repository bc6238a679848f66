// Package validate provides a process-wide struct validator with english
// translations, used to reject malformed configuration before any pipeline
// stage runs.
package validate

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// FieldError aliases validator.FieldError
type FieldError = validator.FieldError

// Svc holds a singleton validator and translator
type Svc struct {
	Validator  *validator.Validate
	Translator ut.Translator
}

var (
	once sync.Once
	svc  *Svc
)

// Init initializes the singleton validator with english translations and json tag names
func Init() *Svc {
	once.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())

		// prefer json tag names in messages
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})

		_ = en_translations.RegisterDefaultTranslations(v, trans)
		registerShortMin(v, trans)
		registerShortMax(v, trans)

		svc = &Svc{Validator: v, Translator: trans}
	})
	return svc
}

// Get returns the validator singleton, initializing on first use
func Get() *Svc {
	if svc == nil {
		return Init()
	}
	return svc
}

// Struct validates s and returns the first failing field and a translated message,
// or ("", "") if s is valid
func Struct(s any) (field, message string, err error) {
	verr := Get().Validator.Struct(s)
	if verr == nil {
		return "", "", nil
	}
	if inv, ok := verr.(*validator.InvalidValidationError); ok {
		return "", inv.Error(), verr
	}
	if verrs, ok := verr.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			return fe.Field(), fe.Translate(Get().Translator), verr
		}
	}
	return "", verr.Error(), verr
}

// RegisterStructValidation registers a cross-field struct-level check fn for
// every value type in types, translated under tag with the fixed message
// msg. Use this for invariants a single field's validate tag can't express,
// e.g. several fields that must sum to a constant within tolerance
func RegisterStructValidation(tag, msg string, fn validator.StructLevelFunc, types ...any) {
	svc := Get()
	svc.Validator.RegisterStructValidation(fn, types...)
	_ = svc.Validator.RegisterTranslation(tag, svc.Translator,
		func(ut ut.Translator) error {
			return ut.Add(tag, msg, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			m, _ := ut.T(tag)
			return m
		},
	)
}

func registerShortMin(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterTranslation("min", trans,
		func(ut ut.Translator) error {
			return ut.Add("min", "{0} must be at least {1}", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("min", fe.Field(), fe.Param())
			return msg
		},
	)
}

func registerShortMax(v *validator.Validate, trans ut.Translator) {
	_ = v.RegisterTranslation("max", trans,
		func(ut ut.Translator) error {
			return ut.Add("max", "{0} must be at most {1}", true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			msg, _ := ut.T("max", fe.Field(), fe.Param())
			return msg
		},
	)
}
