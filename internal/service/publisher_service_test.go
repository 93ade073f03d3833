package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/platforms"
	"github.com/sambecker/postdeck/internal/transfer"
	"github.com/sambecker/postdeck/pkg/imaging"
)

func newTestPublisher(repo *fakePostRepo, notifier *fakeNotifier, pubs ...platforms.Publisher) PublisherService {
	return NewPublisherService(repo, registryOf(pubs...), notifier)
}

func TestPublishNowPartialFailure(t *testing.T) {
	repo := newFakePostRepo()
	notifier := &fakeNotifier{}
	linkedin := &fakePublisher{name: "linkedin", publish: succeedWith("urn:123")}
	facebook := &fakePublisher{name: "facebook", publish: failWith("facebook", platforms.CodeTokenExpired, "access token has expired")}

	svc := newTestPublisher(repo, notifier, linkedin, facebook)

	post, err := svc.PublishNow(context.Background(), 7, &transfer.PostSubmission{
		Content:   "Launch day!",
		Platforms: []string{"linkedin", "facebook"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	if post.Status != models.PostStatusFailedPartial {
		t.Errorf("status = %q, want %q", post.Status, models.PostStatusFailedPartial)
	}
	if got := post.PlatformPostIDs["linkedin"]; got != "urn:123" {
		t.Errorf("linkedin post id = %q, want urn:123", got)
	}
	if _, ok := post.PlatformPostIDs["facebook"]; ok {
		t.Error("facebook must not appear in platform post ids")
	}
	if len(post.PostResults) != 2 {
		t.Fatalf("post results = %d entries, want 2", len(post.PostResults))
	}
	if r := post.PostResults["linkedin"]; !r.Success {
		t.Error("linkedin result should be success")
	}
	if r := post.PostResults["facebook"]; r.Success || r.FailureCode != platforms.CodeTokenExpired {
		t.Errorf("facebook result = %+v, want token_expired failure", r)
	}

	stored, _ := repo.GetByID(context.Background(), post.ID)
	if stored == nil || stored.Status != models.PostStatusFailedPartial {
		t.Error("outcome was not persisted")
	}

	if len(notifier.events) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifier.events))
	}
	if notifier.events[0].severity != models.SeveritySuccess || notifier.events[1].severity != models.SeverityError {
		t.Errorf("notification severities = %s, %s", notifier.events[0].severity, notifier.events[1].severity)
	}
}

func TestPublishNowAllSucceed(t *testing.T) {
	repo := newFakePostRepo()
	svc := newTestPublisher(repo, &fakeNotifier{},
		&fakePublisher{name: "linkedin", publish: succeedWith("urn:1")},
		&fakePublisher{name: "twitter", publish: succeedWith("t-9")},
	)

	post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "hello",
		Platforms: []string{"linkedin", "twitter"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	if post.Status != models.PostStatusPosted {
		t.Errorf("status = %q, want posted", post.Status)
	}
	if post.PostedAt == nil {
		t.Error("posted_at should be set once every platform succeeded")
	}
}

func TestPublishObserverSeesOrderedTransitions(t *testing.T) {
	repo := newFakePostRepo()
	svc := newTestPublisher(repo, &fakeNotifier{},
		&fakePublisher{name: "linkedin", publish: succeedWith("urn:1")},
		&fakePublisher{name: "facebook", publish: failWith("facebook", platforms.CodeNetworkError, "connection reset")},
	)

	type step struct {
		platform string
		state    string
	}
	var steps []step
	obs := func(platform string, status models.PlatformStatus) {
		steps = append(steps, step{platform, status.State})
	}

	_, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "ordered",
		Platforms: []string{"linkedin", "facebook"},
	}, obs)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	want := []step{
		{"linkedin", models.PlatformStatePosting},
		{"linkedin", models.PlatformStateSuccess},
		{"facebook", models.PlatformStatePosting},
		{"facebook", models.PlatformStateError},
	}
	if len(steps) != len(want) {
		t.Fatalf("observer saw %d transitions, want %d", len(steps), len(want))
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("transition %d = %+v, want %+v", i, steps[i], want[i])
		}
	}
}

func TestResultCountMatchesAttemptedPlatforms(t *testing.T) {
	cases := []struct {
		name      string
		platforms []string
		failures  map[string]bool
	}{
		{"all succeed", []string{"linkedin"}, nil},
		{"all fail", []string{"linkedin", "facebook"}, map[string]bool{"linkedin": true, "facebook": true}},
		{"mixed", []string{"linkedin", "facebook", "twitter"}, map[string]bool{"facebook": true}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var pubs []platforms.Publisher
			for _, name := range tc.platforms {
				if tc.failures[name] {
					pubs = append(pubs, &fakePublisher{name: name, publish: failWith(name, platforms.CodeRejected, "nope")})
				} else {
					pubs = append(pubs, &fakePublisher{name: name, publish: succeedWith("id-" + name)})
				}
			}

			svc := newTestPublisher(newFakePostRepo(), &fakeNotifier{}, pubs...)
			post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
				Content:   "count",
				Platforms: tc.platforms,
			}, nil)
			if err != nil {
				t.Fatalf("PublishNow: %v", err)
			}
			if len(post.PostResults) != len(tc.platforms) {
				t.Errorf("results = %d, want %d", len(post.PostResults), len(tc.platforms))
			}
		})
	}
}

func TestEarlyFailureDoesNotDiscardLaterSuccess(t *testing.T) {
	svc := newTestPublisher(newFakePostRepo(), &fakeNotifier{},
		&fakePublisher{name: "linkedin", publish: failWith("linkedin", platforms.CodeNotConnected, "account is not connected")},
		&fakePublisher{name: "facebook", publish: succeedWith("fb-1")},
	)

	post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "isolation",
		Platforms: []string{"linkedin", "facebook"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	if r := post.PostResults["facebook"]; !r.Success {
		t.Error("facebook success was discarded by linkedin's failure")
	}
	if post.PlatformPostIDs["facebook"] != "fb-1" {
		t.Error("facebook post id missing")
	}
}

func TestRetryFailedSkipsConfirmedPlatforms(t *testing.T) {
	repo := newFakePostRepo()
	notifier := &fakeNotifier{}
	linkedin := &fakePublisher{name: "linkedin", publish: succeedWith("urn:1")}
	facebook := &fakePublisher{name: "facebook", publish: failWith("facebook", platforms.CodeNetworkError, "timeout")}

	svc := newTestPublisher(repo, notifier, linkedin, facebook)

	post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "retry",
		Platforms: []string{"linkedin", "facebook"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	// Let the second attempt land.
	facebook.publish = succeedWith("fb-2")

	retried, err := svc.RetryFailed(context.Background(), 1, post.ID, nil)
	if err != nil {
		t.Fatalf("RetryFailed: %v", err)
	}

	if linkedin.calls != 1 {
		t.Errorf("linkedin delivered %d times, want 1 (already confirmed)", linkedin.calls)
	}
	if facebook.calls != 2 {
		t.Errorf("facebook delivered %d times, want 2", facebook.calls)
	}
	if retried.Status != models.PostStatusPosted {
		t.Errorf("status after retry = %q, want posted", retried.Status)
	}
	if retried.PlatformPostIDs["facebook"] != "fb-2" {
		t.Error("retry outcome was not merged into platform post ids")
	}
}

func TestRetryPlatformRejectsSucceeded(t *testing.T) {
	repo := newFakePostRepo()
	svc := newTestPublisher(repo, &fakeNotifier{},
		&fakePublisher{name: "linkedin", publish: succeedWith("urn:1")},
	)

	post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "done",
		Platforms: []string{"linkedin"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	_, err = svc.RetryPlatform(context.Background(), 1, post.ID, "linkedin", nil)
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("retrying a succeeded platform: err = %v, want ValidationError", err)
	}
}

func TestPublishNowValidation(t *testing.T) {
	svc := newTestPublisher(newFakePostRepo(), &fakeNotifier{})

	cases := []struct {
		name string
		sub  *transfer.PostSubmission
	}{
		{"empty content", &transfer.PostSubmission{Platforms: []string{"linkedin"}}},
		{"no platforms", &transfer.PostSubmission{Content: "hi"}},
		{"duplicate platforms", &transfer.PostSubmission{Content: "hi", Platforms: []string{"linkedin", "linkedin"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PublishNow(context.Background(), 1, tc.sub, nil)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestPersistFailureReturnsOutcome(t *testing.T) {
	repo := newFakePostRepo()
	repo.upsertErr = errors.New("write refused")

	svc := newTestPublisher(repo, &fakeNotifier{},
		&fakePublisher{name: "linkedin", publish: succeedWith("urn:1")},
	)

	post, err := svc.PublishNow(context.Background(), 1, &transfer.PostSubmission{
		Content:   "unlucky",
		Platforms: []string{"linkedin"},
	}, nil)
	if err == nil {
		t.Fatal("expected an error when the outcome write fails")
	}
	if post == nil {
		t.Fatal("the in-memory outcome must be returned for write retry")
	}
	if post.PlatformPostIDs["linkedin"] != "urn:1" {
		t.Error("delivery outcome missing from returned post")
	}
}

func TestCancelledContextRecordsRemainingPlatforms(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	linkedin := &fakePublisher{name: "linkedin", publish: func(context.Context, string, *imaging.Payload) (*platforms.PublishResult, error) {
		cancel() // the user walks away mid-batch
		return &platforms.PublishResult{PlatformPostID: "urn:1"}, nil
	}}
	facebook := &fakePublisher{name: "facebook", publish: succeedWith("fb-1")}

	svc := newTestPublisher(newFakePostRepo(), &fakeNotifier{}, linkedin, facebook)

	post, err := svc.PublishNow(ctx, 1, &transfer.PostSubmission{
		Content:   "bail",
		Platforms: []string{"linkedin", "facebook"},
	}, nil)
	if err != nil {
		t.Fatalf("PublishNow: %v", err)
	}

	if facebook.calls != 0 {
		t.Error("delivery must stop after cancellation")
	}
	if len(post.PostResults) != 2 {
		t.Fatalf("results = %d, want 2 (cancelled platforms still recorded)", len(post.PostResults))
	}
	if r := post.PostResults["facebook"]; r.Success || r.FailureCode != platforms.CodeUnknown {
		t.Errorf("facebook result = %+v, want unknown/cancelled", r)
	}
}

func TestPublishPendingSkipsConfirmed(t *testing.T) {
	repo := newFakePostRepo()
	linkedin := &fakePublisher{name: "linkedin", publish: succeedWith("urn:1")}
	facebook := &fakePublisher{name: "facebook", publish: succeedWith("fb-1")}
	svc := newTestPublisher(repo, &fakeNotifier{}, linkedin, facebook)

	// A pending post whose earlier firing confirmed linkedin but lost the
	// facebook outcome.
	seed := &models.Post{
		ID:        "p1",
		UserID:    1,
		Content:   "refire",
		Platforms: []string{"linkedin", "facebook"},
		Status:    models.PostStatusPending,
		PlatformPostIDs: map[string]string{
			"linkedin": "urn:1",
		},
		PostResults: map[string]models.PostResult{
			"linkedin": {Success: true, PlatformPostID: "urn:1"},
		},
	}
	if err := repo.Upsert(context.Background(), seed); err != nil {
		t.Fatal(err)
	}

	post, err := svc.PublishPending(context.Background(), "p1", nil)
	if err != nil {
		t.Fatalf("PublishPending: %v", err)
	}

	if linkedin.calls != 0 {
		t.Error("confirmed platform was re-delivered")
	}
	if facebook.calls != 1 {
		t.Errorf("facebook delivered %d times, want 1", facebook.calls)
	}
	if post.Status != models.PostStatusPosted {
		t.Errorf("status = %q, want posted", post.Status)
	}
}
