package build

import (
	"os"
	"strings"
)

// allowedEnv is the allowlist of ambient variables a build may see. Compiler
// wrappers, linker flags and other toolchain configuration from the invoking
// user's shell must not leak into the produced keg.
var allowedEnv = []string{
	"HOME",
	"PATH",
	"TMPDIR",
	"TERM",
	"USER",
	"LOGNAME",
	"LANG",
	"LC_ALL",
}

// sanitizedEnv builds the hermetic environment handed to build tools.
func sanitizedEnv() []string {
	env := make([]string, 0, len(allowedEnv)+1)
	for _, key := range allowedEnv {
		if value, ok := os.LookupEnv(key); ok {
			env = append(env, key+"="+value)
		}
	}
	if !containsKey(env, "LC_ALL") {
		env = append(env, "LC_ALL=C")
	}
	return env
}

func containsKey(env []string, key string) bool {
	for _, entry := range env {
		if strings.HasPrefix(entry, key+"=") {
			return true
		}
	}
	return false
}
