package core

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/pt_BR"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	ptbr_translations "github.com/go-playground/validator/v10/translations/pt_BR"
)

var (
	// custom validation tags & texts
	inepTag   = "inep"
	inepText  = "código INEP inválido"
	inepRegex = regexp.MustCompile(`^\d{8}$`)

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "este campo é obrigatório"
)

// NewTranslator returns the pt-BR translator used for validation messages.
func NewTranslator() ut.Translator {
	ptBR := pt_BR.New()
	uni := ut.New(ptBR, ptBR)
	translator, _ := uni.GetTranslator("pt_BR")
	return translator
}

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = ptbr_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(inepTag, inepValidation)
	RegisterCustomTranslation(validate, translator, inepTag, inepText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsINEP reports whether code looks like an INEP school code (8 digits).
func IsINEP(code string) bool {
	return inepRegex.MatchString(code)
}

// Custom Global Validators

// inepValidation only allows 8 digit INEP codes.
func inepValidation(fl validator.FieldLevel) bool {
	return IsINEP(fl.Field().String())
}
