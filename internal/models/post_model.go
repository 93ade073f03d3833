package models

import (
	"time"

	"github.com/sambecker/postdeck/pkg/imaging"
)

// Post is a content item committed to immediate or scheduled publishing.
// Its status is always derived from PostResults, never set directly.
type Post struct {
	ID              string                `db:"id" json:"id"`
	UserID          int64                 `db:"user_id" json:"user_id"`
	Content         string                `db:"content" json:"content"`
	Platforms       []string              `db:"platforms" json:"platforms"`
	Image           *imaging.Payload      `db:"image" json:"image,omitempty"`
	ScheduledTime   time.Time             `db:"scheduled_time" json:"scheduled_time"`
	Status          string                `db:"status" json:"status"`
	PlatformPostIDs map[string]string     `db:"platform_post_ids" json:"platform_post_ids"`
	PostResults     map[string]PostResult `db:"post_results" json:"post_results"`
	CreatedAt       time.Time             `db:"created_at" json:"created_at"`
	PostedAt        *time.Time            `db:"posted_at" json:"posted_at,omitempty"`
}

// PostResult is the durable outcome of one platform's delivery attempt.
type PostResult struct {
	Success        bool      `json:"success"`
	PlatformPostID string    `json:"platform_post_id,omitempty"`
	FailureCode    string    `json:"failure_code,omitempty"`
	Message        string    `json:"message,omitempty"`
	AttemptedAt    time.Time `json:"attempted_at"`
}

const (
	PostStatusPending       = "pending"
	PostStatusPosted        = "posted"
	PostStatusFailedPartial = "failed-partial"
)

// DeriveStatus maps per-platform outcomes to the post-level status. With no
// success recorded the post stays pending (nothing has landed anywhere yet);
// once every recorded attempt succeeded it is posted; a mix of successes and
// failures is failed-partial. Map input makes it order-independent, and
// feeding the same results twice yields the same status.
func DeriveStatus(results map[string]PostResult) string {
	var succeeded, failed int
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			failed++
		}
	}

	switch {
	case succeeded == 0:
		return PostStatusPending
	case failed == 0:
		return PostStatusPosted
	default:
		return PostStatusFailedPartial
	}
}

// FailedPlatforms returns the platforms whose latest recorded attempt
// failed, in the order they appear in the post's platform list.
func (p *Post) FailedPlatforms() []string {
	var failed []string
	for _, platform := range p.Platforms {
		if r, ok := p.PostResults[platform]; ok && !r.Success {
			failed = append(failed, platform)
		}
	}
	return failed
}

// SucceededPlatforms mirrors FailedPlatforms for successful attempts.
func (p *Post) SucceededPlatforms() []string {
	var ok []string
	for _, platform := range p.Platforms {
		if r, found := p.PostResults[platform]; found && r.Success {
			ok = append(ok, platform)
		}
	}
	return ok
}
