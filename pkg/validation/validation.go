package validation

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	MinWorkers = 1
	MaxWorkers = 20
)

func ValidateWorkerCount(workers int) error {
	if workers < MinWorkers || workers > MaxWorkers {
		return fmt.Errorf("worker count must be between %d and %d, got %d", MinWorkers, MaxWorkers, workers)
	}
	return nil
}

// ValidateID checks a folder or card identifier. what names the resource in the message.
func ValidateID(what string, id int) error {
	if id <= 0 {
		return fmt.Errorf("%s ID must be a positive integer, got %d", what, id)
	}
	return nil
}

// ValidateNonEmptyString rejects empty and whitespace-only values.
func ValidateNonEmptyString(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s cannot be empty", fieldName)
	}
	return nil
}

func ValidateFolderName(name string) error {
	return ValidateNonEmptyString("folder name", name)
}

func ValidateCardDescription(description string) error {
	return ValidateNonEmptyString("card description", description)
}

// ValidateCardUpdate requires a new description, a new image, or both.
func ValidateCardUpdate(description string, hasImage bool) error {
	if strings.TrimSpace(description) == "" && !hasImage {
		return fmt.Errorf("a new description or image is required")
	}
	return nil
}

// ValidateBaseURL accepts absolute http and https URLs.
func ValidateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid API URL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API URL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API URL %q: missing host", raw)
	}
	return nil
}
