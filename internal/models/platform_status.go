package models

// PlatformStatus is the transient per-platform state of an active publish
// pass. It lives in a map owned by the running operation and is discarded
// once the post's results are durably recorded.
type PlatformStatus struct {
	State   string `json:"state"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

const (
	PlatformStateIdle    = "idle"
	PlatformStatePosting = "posting"
	PlatformStateSuccess = "success"
	PlatformStateError   = "error"
)
