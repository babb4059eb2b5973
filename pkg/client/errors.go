package client

import "errors"

// Sentinel errors callers match with errors.Is to print friendlier hints.
var (
	// ErrDaemonNotRunning means the unix socket does not exist.
	ErrDaemonNotRunning = errors.New("daemon not running")

	// ErrPermissionDenied means the socket exists but is not accessible to
	// this user.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound is a 404 from the daemon, usually a client/daemon version
	// mismatch.
	ErrNotFound = errors.New("404 not found")
)
