package platforms

import (
	"context"

	"github.com/sambecker/postdeck/pkg/imaging"
)

type twitterPublisher struct {
	api     *apiClient
	apiBase string
	userID  int64
}

func (p *twitterPublisher) Platform() string { return PlatformTwitter }

type tweetRequest struct {
	Text  string `json:"text"`
	Media string `json:"media,omitempty"`
}

func (p *twitterPublisher) Publish(ctx context.Context, content string, image *imaging.Payload) (*PublishResult, error) {
	conn, err := p.api.connection(ctx, p.userID, PlatformTwitter)
	if err != nil {
		return nil, err
	}

	body := tweetRequest{Text: content}
	if image != nil {
		body.Media = image.DataURI()
	}

	// v2 responses nest the created tweet under data.
	resp, err := p.api.postJSON(ctx, PlatformTwitter, p.apiBase+"/2/tweets", conn.AccessToken, body)
	if err != nil {
		return nil, err
	}
	return successResult(PlatformTwitter, resp)
}
