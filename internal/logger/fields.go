package logger

// Standard field keys for structured logging. Use these keys consistently
// across log statements so output stays queryable.
const (
	// Repository & artifacts
	KeyRepository = "repository" // repository name: releases, snapshots, ...
	KeyPath       = "path"       // artifact path inside a repository
	KeySize       = "size"       // payload size in bytes

	// HTTP
	KeyMethod   = "method"    // HTTP method
	KeyStatus   = "status"    // HTTP status code
	KeyClientIP = "client_ip" // client address
	KeyDuration = "duration"  // request duration

	// Auth
	KeyAlias = "alias" // access token alias

	// Runtime
	KeyOrigin  = "origin"  // failure origin, e.g. "<executor>"
	KeyCommand = "command" // console command line
	KeyUptime  = "uptime"  // process uptime
)
