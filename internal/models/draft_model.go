package models

import (
	"time"

	"github.com/sambecker/postdeck/pkg/imaging"
)

// Draft is unpublished, freely editable content. It has no status and no
// schedule; submitting it creates a Post without touching the draft.
type Draft struct {
	ID        string           `db:"id" json:"id"`
	UserID    int64            `db:"user_id" json:"user_id"`
	Content   string           `db:"content" json:"content"`
	Platforms []string         `db:"platforms" json:"platforms"`
	Image     *imaging.Payload `db:"image" json:"image,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// IsEmpty reports whether the draft carries neither text nor an image.
func (d *Draft) IsEmpty() bool {
	return d.Content == "" && d.Image == nil
}
