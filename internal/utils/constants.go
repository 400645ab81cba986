package utils

// LoggerInitializationFailedMessageFormat is used when the application logger cannot be built.
const LoggerInitializationFailedMessageFormat = "failed to initialize logger: %w"

// ApplicationExecutionFailedMessage prefixes fatal errors returned by the command tree.
const ApplicationExecutionFailedMessage = "digest failed"

// Byte size units.
const (
	Kilobyte int64 = 1024
	Megabyte       = 1024 * Kilobyte
)
