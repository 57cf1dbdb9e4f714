package census

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/censo/core"
)

var (
	modalityTag  = "modality"
	modalityText = "modalidade de ensino inválida"
)

// InitValidators registers the census validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(modalityTag, modalityValidation)
	core.RegisterCustomTranslation(validate, translator, modalityTag, modalityText)
}

func modalityValidation(fl validator.FieldLevel) bool {
	return IsModality(fl.Field().String())
}
