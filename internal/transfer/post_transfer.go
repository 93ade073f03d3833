package transfer

import (
	"github.com/sambecker/postdeck/pkg/imaging"
)

// PostSubmission is the payload for an immediate publish.
type PostSubmission struct {
	Content   string           `json:"content"`
	Platforms []string         `json:"platforms"`
	Image     *imaging.Payload `json:"image,omitempty"`
	// DraftID, when set, names the draft this submission was seeded from.
	// The draft is left alone unless DeleteDraft is also set.
	DraftID     string `json:"draft_id,omitempty"`
	DeleteDraft bool   `json:"delete_draft,omitempty"`
}

// ScheduleRequest is the payload for a future-dated publish. ScheduledTime
// uses the HTML datetime-local format, e.g. 2026-09-01T18:30.
type ScheduleRequest struct {
	Content       string           `json:"content"`
	Platforms     []string         `json:"platforms"`
	Image         *imaging.Payload `json:"image,omitempty"`
	ScheduledTime string           `json:"scheduled_time"`
	DraftID       string           `json:"draft_id,omitempty"`
	DeleteDraft   bool             `json:"delete_draft,omitempty"`
}

// DraftSave upserts a draft; an empty ID creates a new one.
type DraftSave struct {
	ID        string           `json:"id,omitempty"`
	Content   string           `json:"content"`
	Platforms []string         `json:"platforms"`
	Image     *imaging.Payload `json:"image,omitempty"`
}

// PublishReport is what a publish or retry pass returns to the caller.
type PublishReport struct {
	PostID    string   `json:"post_id"`
	Status    string   `json:"status"`
	Succeeded []string `json:"succeeded"`
	Failed    []string `json:"failed"`
}
