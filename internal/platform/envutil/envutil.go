// Package envutil reads the few settings that live outside the koanf config
// tree: storage credentials, Temporal dial tuning and logging switches.
// Malformed values fall back to the default instead of failing startup.
package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func String(name string) string {
	return strings.TrimSpace(os.Getenv(name))
}

func Int(name string, def int) int {
	v := String(name)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

// Seconds reads a whole number of seconds. Zero and negative values keep def.
func Seconds(name string, def int) time.Duration {
	n := Int(name, def)
	if n <= 0 {
		n = def
	}
	return time.Duration(n) * time.Second
}

// Bool accepts 1/0, true/false, yes/no and on/off in any case.
func Bool(name string, def bool) bool {
	switch strings.ToLower(String(name)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}
