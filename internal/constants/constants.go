// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// Event channel constants
const (
	// EventChannelBuffer is the buffer size for session event channels
	EventChannelBuffer = 100
)

// Upload constants
const (
	// MaxUploadSize is the maximum size in bytes of an uploaded image or frame (20MB)
	MaxUploadSize = 20 << 20

	// MaxJSONBodySize is the maximum size in bytes of a JSON request body
	MaxJSONBodySize = 1 << 20
)

// Processing constants
const (
	// WorkerPoolSize is the default number of parallel workers for batch enrollment
	WorkerPoolSize = 4

	// EnrollImageExtensions are the file extensions picked up by batch enrollment
	EnrollImageExtensions = ".jpg,.jpeg,.png,.webp,.bmp"
)

// Report constants
const (
	// DefaultHistoryDays is the number of days of attendance generated for the demo seed
	DefaultHistoryDays = 60

	// SessionRetention is the number of ended sessions kept for inspection
	SessionRetention = 50
)
