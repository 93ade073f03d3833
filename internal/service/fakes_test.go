package service

import (
	"context"
	"sync"
	"time"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/platforms"
	"github.com/sambecker/postdeck/pkg/imaging"
)

type fakePostRepo struct {
	mu        sync.Mutex
	posts     map[string]*models.Post
	upsertErr error
	upserts   int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{posts: make(map[string]*models.Post)}
}

func (r *fakePostRepo) Upsert(_ context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upserts++
	if r.upsertErr != nil {
		return r.upsertErr
	}
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

func (r *fakePostRepo) GetByID(_ context.Context, id string) (*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	if !ok {
		return nil, nil
	}
	copied := *post
	return &copied, nil
}

func (r *fakePostRepo) GetByUserID(_ context.Context, userID int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) GetPendingByUserID(_ context.Context, userID int64) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.UserID == userID && post.Status == models.PostStatusPending {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) GetUnfiredDueBefore(_ context.Context, cutoff time.Time) ([]*models.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var posts []*models.Post
	for _, post := range r.posts {
		if post.Status == models.PostStatusPending && post.ScheduledTime.Before(cutoff) && len(post.PostResults) == 0 {
			copied := *post
			posts = append(posts, &copied)
		}
	}
	return posts, nil
}

func (r *fakePostRepo) CheckByUserID(_ context.Context, id string, userID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	post, ok := r.posts[id]
	return ok && post.UserID == userID, nil
}

func (r *fakePostRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.posts, id)
	return nil
}

func (r *fakePostRepo) Watch(_ context.Context, _ int64) (<-chan []*models.Post, error) {
	ch := make(chan []*models.Post)
	close(ch)
	return ch, nil
}

type fakeDraftRepo struct {
	drafts map[string]*models.Draft
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: make(map[string]*models.Draft)}
}

func (r *fakeDraftRepo) Upsert(_ context.Context, draft *models.Draft) error {
	stored := *draft
	r.drafts[draft.ID] = &stored
	return nil
}

func (r *fakeDraftRepo) GetByID(_ context.Context, id string) (*models.Draft, error) {
	draft, ok := r.drafts[id]
	if !ok {
		return nil, nil
	}
	copied := *draft
	return &copied, nil
}

func (r *fakeDraftRepo) GetByUserID(_ context.Context, userID int64) ([]*models.Draft, error) {
	var drafts []*models.Draft
	for _, draft := range r.drafts {
		if draft.UserID == userID {
			copied := *draft
			drafts = append(drafts, &copied)
		}
	}
	return drafts, nil
}

func (r *fakeDraftRepo) CheckByUserID(_ context.Context, id string, userID int64) (bool, error) {
	draft, ok := r.drafts[id]
	return ok && draft.UserID == userID, nil
}

func (r *fakeDraftRepo) Remove(_ context.Context, id string) error {
	delete(r.drafts, id)
	return nil
}

// fakePublisher answers with a queue of canned outcomes, one per call.
type fakePublisher struct {
	name    string
	publish func(ctx context.Context, content string, image *imaging.Payload) (*platforms.PublishResult, error)
	calls   int
}

func (p *fakePublisher) Platform() string { return p.name }

func (p *fakePublisher) Publish(ctx context.Context, content string, image *imaging.Payload) (*platforms.PublishResult, error) {
	p.calls++
	return p.publish(ctx, content, image)
}

func succeedWith(id string) func(context.Context, string, *imaging.Payload) (*platforms.PublishResult, error) {
	return func(context.Context, string, *imaging.Payload) (*platforms.PublishResult, error) {
		return &platforms.PublishResult{PlatformPostID: id}, nil
	}
}

func failWith(platform, code, message string) func(context.Context, string, *imaging.Payload) (*platforms.PublishResult, error) {
	return func(context.Context, string, *imaging.Payload) (*platforms.PublishResult, error) {
		return nil, &platforms.DeliveryError{Platform: platform, Code: code, Message: message}
	}
}

type fakeRegistry struct {
	registry *platforms.Registry
}

func (f *fakeRegistry) ForUser(int64) *platforms.Registry { return f.registry }

func registryOf(pubs ...platforms.Publisher) *fakeRegistry {
	return &fakeRegistry{registry: platforms.NewRegistry(pubs...)}
}

type emitted struct {
	userID   int64
	severity string
	message  string
}

type fakeNotifier struct {
	events []emitted
}

func (n *fakeNotifier) Emit(_ context.Context, userID int64, severity, message string) {
	n.events = append(n.events, emitted{userID: userID, severity: severity, message: message})
}
