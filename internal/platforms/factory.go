package platforms

import (
	"net/http"
	"time"

	config "github.com/sambecker/postdeck/configs"
)

// Factory builds per-user registries. Adapter values are cheap; the HTTP
// client and connection source are shared across all of them.
type Factory struct {
	cfg config.Config
	api *apiClient
}

func NewFactory(cfg config.Config, conns ConnectionSource) *Factory {
	return &Factory{
		cfg: cfg,
		api: &apiClient{
			http:  &http.Client{Timeout: 30 * time.Second},
			conns: conns,
		},
	}
}

// ForUser returns a registry with every supported platform bound to the
// given user's connections.
func (f *Factory) ForUser(userID int64) *Registry {
	return NewRegistry(
		&linkedinPublisher{api: f.api, apiBase: f.cfg.LinkedinAPIBase, userID: userID},
		&facebookPublisher{api: f.api, apiBase: f.cfg.FacebookAPIBase, userID: userID},
		&twitterPublisher{api: f.api, apiBase: f.cfg.TwitterAPIBase, userID: userID},
		&instagramPublisher{api: f.api, apiBase: f.cfg.InstagramAPIBase, userID: userID},
	)
}
