// Package emoji provides symbol constants for CLI output.
package emoji

// Symbol constants for CLI output provide a consistent visual language across commands.
const (
	// Success represents successful completion of an operation.
	// Used for: loaded sources, passing validation.
	Success = "✓"

	// Error represents failures.
	// Used for: rejected sources, validation errors.
	Error = "✗"
)
