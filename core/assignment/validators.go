package assignment

import (
	"github.com/go-playground/validator/v10"

	"github.com/chendurkumaran/eduresource/core"
)

var (
	assignmentTypeTag  = "assignmenttype"
	assignmentTypeText = "invalid assignment type"
)

func init() {
	_ = core.Validate.RegisterValidation(assignmentTypeTag, assignmentTypeValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, assignmentTypeTag, assignmentTypeText)
}

// assignmentTypeValidation checks that the provided type is in Types.
func assignmentTypeValidation(fl validator.FieldLevel) bool {
	return Type(fl.Field().String()).Valid()
}
