// Package artifact exports generated story skeletons to object storage so
// downstream content and rendering services can fetch them without going
// through the gateway.
package artifact

import "errors"

var ErrNotFound = errors.New("artifact not found")
