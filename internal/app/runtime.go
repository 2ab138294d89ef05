package app

import (
	"os"
	"strings"
	"sync/atomic"
)

// testModeEnv is set by the primavera/testing package on import.
const testModeEnv = "PRIMAVERA_TEST_MODE"

var testMode atomic.Pointer[bool]

// InTestMode reports whether binaries run under go test, in which case the
// main functions return before dialing Postgres or Redis.
func InTestMode() bool {
	if v := testMode.Load(); v != nil {
		return *v
	}
	return RefreshTestMode()
}

// RefreshTestMode re-reads the environment and returns the new value.
func RefreshTestMode() bool {
	v := os.Getenv(testModeEnv)
	enabled := v == "1" || strings.EqualFold(v, "true")
	testMode.Store(&enabled)
	return enabled
}
