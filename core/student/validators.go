package student

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/bolsa/core"
)

var (
	cohortTag  = "cohort"
	cohortText = "must be one of tuition, sponsorship"
)

// RegisterValidators registers the student validation tags on validate.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(cohortTag, cohortValidation)
	core.RegisterCustomTranslation(validate, translator, cohortTag, cohortText)
}

func cohortValidation(fl validator.FieldLevel) bool {
	cohort := fl.Field().String()
	for _, c := range Cohorts {
		if c == cohort {
			return true
		}
	}
	return false
}
