package main

import (
	"os"
	"runtime/debug"
	"strings"

	"loudctl/log"
)

// initCrashLog sends Go runtime crash output to crash_log.txt. It runs
// before flags are parsed, so it digs --logpath out of the raw arguments.
func initCrashLog() {
	dir, err := log.ResolveDir(argValue(os.Args[1:], "--logpath"))
	if err != nil {
		return
	}
	log.SetDir(dir)
	if err := log.EnsureDir(); err != nil {
		return
	}
	f, err := log.CrashFile()
	if err != nil {
		return
	}
	debug.SetCrashOutput(f, debug.CrashOptions{})
}

// argValue finds "--name value" or "--name=value".
func argValue(args []string, name string) string {
	for i, a := range args {
		if v, ok := strings.CutPrefix(a, name+"="); ok {
			return v
		}
		if a == name && i+1 < len(args) {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name || a == name+"=true" {
			return true
		}
	}
	return false
}
