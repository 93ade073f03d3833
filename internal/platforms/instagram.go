package platforms

import (
	"context"

	"github.com/sambecker/postdeck/pkg/imaging"
)

type instagramPublisher struct {
	api     *apiClient
	apiBase string
	userID  int64
}

func (p *instagramPublisher) Platform() string { return PlatformInstagram }

type instagramMediaRequest struct {
	Caption  string `json:"caption"`
	ImageURL string `json:"image_url,omitempty"`
}

func (p *instagramPublisher) Publish(ctx context.Context, content string, image *imaging.Payload) (*PublishResult, error) {
	conn, err := p.api.connection(ctx, p.userID, PlatformInstagram)
	if err != nil {
		return nil, err
	}

	body := instagramMediaRequest{Caption: content}
	if image != nil {
		body.ImageURL = image.DataURI()
	}

	resp, err := p.api.postJSON(ctx, PlatformInstagram, p.apiBase+"/me/media_publish", conn.AccessToken, body)
	if err != nil {
		return nil, err
	}
	return successResult(PlatformInstagram, resp)
}
