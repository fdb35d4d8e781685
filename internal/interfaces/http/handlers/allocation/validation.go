package allocation

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Shortnames become POSIX group names and fileset names, so the character
// set is restricted to lowercase alphanumerics and hyphens.
var shortnamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,30}[a-z0-9]$`)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("shortname", validShortname)
	}
}

func validShortname(fl validator.FieldLevel) bool {
	return shortnamePattern.MatchString(fl.Field().String())
}
