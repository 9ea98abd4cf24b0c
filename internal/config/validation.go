package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	types := make(map[string]bool)
	for i, it := range cfg.ItemTypes {
		if types[it.Name] {
			return fmt.Errorf("item_types[%d]: duplicate item type name %q", i, it.Name)
		}
		types[it.Name] = true
	}

	names := make(map[string]bool)
	for i, lib := range cfg.Libraries {
		if names[lib.Name] {
			return fmt.Errorf("libraries[%d]: duplicate library name %q", i, lib.Name)
		}
		names[lib.Name] = true

		for j, q := range lib.Queries {
			if err := q.Validate(); err != nil {
				return fmt.Errorf("libraries[%d].queries[%d]: %w", i, j, err)
			}
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
