package logging

import (
	"os"
)

// DebugEnabled returns true if debug mode is enabled via the TS_DEBUG environment variable
func DebugEnabled() bool {
	return os.Getenv("TS_DEBUG") != ""
}
