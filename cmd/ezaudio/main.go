package main

import (
	"runtime"
)

const version = "0.1.0"

func init() {
	// The tray and hotkey event loops must run on the main thread on macOS
	runtime.LockOSThread()
}

func main() {
	Execute()
}
