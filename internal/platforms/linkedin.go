package platforms

import (
	"context"
	"fmt"

	"github.com/sambecker/postdeck/pkg/imaging"
)

type linkedinPublisher struct {
	api     *apiClient
	apiBase string
	userID  int64
}

func (p *linkedinPublisher) Platform() string { return PlatformLinkedin }

type linkedinShareRequest struct {
	Author     string `json:"author"`
	Commentary string `json:"commentary"`
	Visibility string `json:"visibility"`
	Image      string `json:"image,omitempty"`
}

func (p *linkedinPublisher) Publish(ctx context.Context, content string, image *imaging.Payload) (*PublishResult, error) {
	conn, err := p.api.connection(ctx, p.userID, PlatformLinkedin)
	if err != nil {
		return nil, err
	}

	body := linkedinShareRequest{
		Author:     fmt.Sprintf("urn:li:person:%s", conn.AccountUsername),
		Commentary: content,
		Visibility: "PUBLIC",
	}
	if image != nil {
		body.Image = image.DataURI()
	}

	resp, err := p.api.postJSON(ctx, PlatformLinkedin, p.apiBase+"/rest/posts", conn.AccessToken, body)
	if err != nil {
		return nil, err
	}
	return successResult(PlatformLinkedin, resp)
}
