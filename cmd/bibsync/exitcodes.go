package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, interrupted run)
	ExitConfigError = 2 // Configuration error (bad config file, env var or flag)
	ExitDataError   = 3 // Data error (unreadable or malformed bibliography)
	ExitOutputError = 4 // Output error (output directory missing or not writable)
)
