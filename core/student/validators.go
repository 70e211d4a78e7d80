package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/kulliya/core"
)

var (
	dateTag  = "datetime"
	dateText = "invalid date, expected YYYY-MM-DD"
)

// InitValidators registers the translations of the validations used on applications.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	core.RegisterCustomTranslation(validate, translator, dateTag, dateText, true)
}
