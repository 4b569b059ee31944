package marketplace

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateRecord checks decoded API records against their struct tags.
func validateRecord(v any) error {
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: invalid record: %w", ErrFetchFailed, err)
	}
	return nil
}
