package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("SKUBOARD_TEST_MODE", "1")
		if os.Getenv("ALLOWED_EMAILS") == "" {
			_ = os.Setenv("ALLOWED_EMAILS", "tester@example.com")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
