package shared

import "errors"

// ErrNotConfigured is returned by optional collaborators that were not wired.
var ErrNotConfigured = errors.New("dependency not configured")
