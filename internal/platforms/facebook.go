package platforms

import (
	"context"

	"github.com/sambecker/postdeck/pkg/imaging"
)

type facebookPublisher struct {
	api     *apiClient
	apiBase string
	userID  int64
}

func (p *facebookPublisher) Platform() string { return PlatformFacebook }

type facebookFeedRequest struct {
	Message string `json:"message"`
	Image   string `json:"url,omitempty"`
}

func (p *facebookPublisher) Publish(ctx context.Context, content string, image *imaging.Payload) (*PublishResult, error) {
	conn, err := p.api.connection(ctx, p.userID, PlatformFacebook)
	if err != nil {
		return nil, err
	}

	endpoint := p.apiBase + "/me/feed"
	body := facebookFeedRequest{Message: content}
	if image != nil {
		endpoint = p.apiBase + "/me/photos"
		body.Image = image.DataURI()
	}

	resp, err := p.api.postJSON(ctx, PlatformFacebook, endpoint, conn.AccessToken, body)
	if err != nil {
		return nil, err
	}
	return successResult(PlatformFacebook, resp)
}
