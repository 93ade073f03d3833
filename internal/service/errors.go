package service

import "fmt"

// ValidationError reports a rejected input. It is returned synchronously
// and never persisted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func validateComposition(content string, platformList []string) error {
	if content == "" {
		return &ValidationError{Field: "content", Reason: "cannot be empty"}
	}
	if len(platformList) == 0 {
		return &ValidationError{Field: "platforms", Reason: "select at least one platform"}
	}

	seen := make(map[string]struct{}, len(platformList))
	for _, p := range platformList {
		if _, dup := seen[p]; dup {
			return &ValidationError{Field: "platforms", Reason: fmt.Sprintf("platform %s listed twice", p)}
		}
		seen[p] = struct{}{}
	}
	return nil
}
