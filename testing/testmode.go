// Package testing puts primavera binaries into test mode. Test packages that
// exercise a main function import it for its side effect:
//
//	import _ "github.com/primavera-events/primavera/testing"
package testing

import "os"

// Env lists the variables applied on import. Existing values are kept.
var Env = map[string]string{
	"PRIMAVERA_TEST_MODE": "1",
	"GOTENBERG_URL":       "http://127.0.0.1:0",
}

func init() {
	for key, value := range Env {
		if _, ok := os.LookupEnv(key); !ok {
			_ = os.Setenv(key, value)
		}
	}
}
