package queue

import (
	"github.com/sambecker/postdeck/internal/service"
)

type Queue struct {
	pub service.PublisherService
}

func NewQueue(pub service.PublisherService) *Queue {
	return &Queue{pub: pub}
}

const TaskTypePublishPost = "publish:post"

type PublishPostPayload struct {
	PostID string `json:"post_id"`
}
