package settings

import (
	"net/url"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/censo/core"
)

var (
	socialURLTag  = "socialurl"
	socialURLText = "informe # ou um endereço http(s) válido"

	fieldTypeTag  = "fieldtype"
	fieldTypeText = "tipo de campo inválido"
)

// InitValidators registers the settings validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(socialURLTag, socialURLValidation)
	core.RegisterCustomTranslation(validate, translator, socialURLTag, socialURLText)

	_ = validate.RegisterValidation(fieldTypeTag, fieldTypeValidation)
	core.RegisterCustomTranslation(validate, translator, fieldTypeTag, fieldTypeText)
}

func IsSocialURL(s string) bool {
	if s == "" || s == "#" {
		return true
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func IsFieldType(s string) bool {
	for _, t := range FieldTypes {
		if t == s {
			return true
		}
	}
	return false
}

func socialURLValidation(fl validator.FieldLevel) bool {
	return IsSocialURL(fl.Field().String())
}

func fieldTypeValidation(fl validator.FieldLevel) bool {
	return IsFieldType(fl.Field().String())
}
