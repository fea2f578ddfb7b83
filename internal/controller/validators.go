package controller

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/lshigami/Classtrail/internal/service"
)

const accessCodeTag = "accesscode"

// RegisterValidators installs the custom binding tags on gin's validator.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	// Report JSON names in validation errors instead of Go field names.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v.RegisterValidation(accessCodeTag, accessCodeValidation)
}

func accessCodeValidation(fl validator.FieldLevel) bool {
	_, err := service.NormalizeAccessCode(fl.Field().String())
	return err == nil
}
