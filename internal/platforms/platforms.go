package platforms

import (
	"context"
	"fmt"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/pkg/imaging"
)

const (
	PlatformLinkedin  = "linkedin"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
)

// Delivery failure codes. Each failed attempt carries exactly one.
const (
	CodeNotConnected = "not_connected"
	CodeTokenExpired = "token_expired"
	CodeNetworkError = "network_error"
	CodeRejected     = "rejected"
	CodeUnknown      = "unknown"
)

// DeliveryError is the typed failure of one platform's publish call.
type DeliveryError struct {
	Platform string
	Code     string
	Message  string
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Platform, e.Message, e.Code)
}

// PublishResult is the single typed success shape all adapters normalize
// to, whatever field the platform returned its post id under.
type PublishResult struct {
	PlatformPostID string
}

// Publisher delivers one post to one platform. The call is assumed atomic:
// it either returns the platform-assigned id or a *DeliveryError.
type Publisher interface {
	Platform() string
	Publish(ctx context.Context, content string, image *imaging.Payload) (*PublishResult, error)
}

// ConnectionSource answers whether a user has authorized a platform and
// with what credentials. A nil connection means not connected.
type ConnectionSource interface {
	GetByUserPlatform(ctx context.Context, userID int64, platform string) (*models.Connection, error)
}

// Registry holds one Publisher per supported platform, keyed by name.
type Registry struct {
	byName map[string]Publisher
	order  []string
}

func NewRegistry(publishers ...Publisher) *Registry {
	r := &Registry{byName: make(map[string]Publisher)}
	for _, p := range publishers {
		if _, exists := r.byName[p.Platform()]; !exists {
			r.order = append(r.order, p.Platform())
		}
		r.byName[p.Platform()] = p
	}
	return r
}

func (r *Registry) Get(platform string) (Publisher, bool) {
	p, ok := r.byName[platform]
	return p, ok
}

// Names lists the registered platforms in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}
