package testutil

import (
	"os"
	"testing"
)

// RequireIntegration skips the test unless FARMCART_INTEGRATION=1, since the
// helpers in this package need a Docker daemon.
func RequireIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("FARMCART_INTEGRATION") != "1" {
		t.Skip("set FARMCART_INTEGRATION=1 to run container-backed tests")
	}
}
