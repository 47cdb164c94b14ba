package course

import (
	"github.com/go-playground/validator/v10"

	"github.com/chendurkumaran/eduresource/core"
)

var (
	courseLevelTag  = "courselevel"
	courseLevelText = "invalid course level"

	materialTypeTag  = "materialtype"
	materialTypeText = "invalid material type"
)

func init() {
	_ = core.Validate.RegisterValidation(courseLevelTag, courseLevelValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, courseLevelTag, courseLevelText)

	_ = core.Validate.RegisterValidation(materialTypeTag, materialTypeValidation)
	core.RegisterCustomTranslation(core.Validate, core.Translator, materialTypeTag, materialTypeText)
}

// courseLevelValidation checks that the provided level is in Levels.
func courseLevelValidation(fl validator.FieldLevel) bool {
	return Level(fl.Field().String()).Valid()
}

// materialTypeValidation checks that the provided type is in MaterialTypes.
func materialTypeValidation(fl validator.FieldLevel) bool {
	return MaterialType(fl.Field().String()).Valid()
}
