// Package logging provides opt-in file-based logging with rotation for
// trailstore. When the --debug flag is set, structured JSON logs are written
// to ~/.trailstore/logs/ for debugging and troubleshooting.
//
// Without --debug, logging is minimal and goes to stderr only.
package logging
