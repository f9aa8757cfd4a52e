// Package testing prepares the process environment for packages that import
// it for side effects.
package testing

import (
	"os"
	stdtesting "testing"
)

var defaults = map[string]string{
	"HOA_TEST_MODE":  "1",
	"SESSION_SECRET": "test-secret",
	"APP_TIMEZONE":   "UTC",
}

func init() {
	for key, value := range defaults {
		if key == "HOA_TEST_MODE" || os.Getenv(key) == "" {
			_ = os.Setenv(key, value)
		}
	}
}

func TestMain(m *stdtesting.M) {
	os.Exit(m.Run())
}
