package interfaces

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nimda/password-tester/pkg/utils"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct tag rules and converts the first failure
// into a ConfigurationError naming the offending field.
func validateStruct(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return utils.NewConfigurationError(
			strings.ToLower(fe.Field()),
			fmt.Sprintf("failed %q rule (value %v)", fe.Tag(), fe.Value()),
			err,
		)
	}
	return utils.NewConfigurationError("config", "invalid configuration", err)
}

func configError(field, message string) error {
	return utils.NewConfigurationError(field, message, nil)
}

// ValidateFile checks if a file exists and is readable.
func ValidateFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &utils.NotFoundError{Path: path}
		}
		return utils.NewIOError(path, err)
	}
	if info.IsDir() {
		return utils.NewIOError(path, fmt.Errorf("path is a directory, not a file"))
	}
	return nil
}
