package app

import (
	"errors"
	"fmt"
)

var (
	ErrScanFailed    = errors.New("artifact scan failed")
	ErrStatusMessage = errors.New("status message failed")
	ErrUploadFailed  = errors.New("artifact upload failed")
)

// FailureMessage turns whatever a run failed with into the single line
// reported to the CI host.
func FailureMessage(failure any) string {
	switch v := failure.(type) {
	case nil:
		return "unknown failure"
	case string:
		return v
	case error:
		return v.Error()
	default:
		return fmt.Sprint(v)
	}
}
