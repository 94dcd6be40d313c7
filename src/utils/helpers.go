package utils

import (
	"fmt"
	"os"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "prod"
}

// WithSuffix appends the environment name to a queue or resource name
// outside production, e.g. BookingEmails-staging.
func WithSuffix(name string) string {
	env := os.Getenv("API_ENV")
	if env == "" || IsProd() {
		return name
	}
	return fmt.Sprintf("%s-%s", name, env)
}
