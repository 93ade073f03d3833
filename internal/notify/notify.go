package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/sambecker/postdeck/internal/models"
)

// Sink receives the ordered event stream. Sinks must not block; slow
// consumers drop rather than stall the publisher.
type Sink interface {
	Deliver(ctx context.Context, n models.Notification)
}

// Emitter fans one event stream out to every configured sink in order.
type Emitter struct {
	sinks []Sink
	now   func() time.Time
}

func NewEmitter(sinks ...Sink) *Emitter {
	return &Emitter{sinks: sinks, now: time.Now}
}

func (e *Emitter) Emit(ctx context.Context, userID int64, severity, message string) {
	id, err := gonanoid.New()
	if err != nil {
		slog.Error(err.Error())
		return
	}

	n := models.Notification{
		ID:        id,
		UserID:    userID,
		Message:   message,
		Severity:  severity,
		CreatedAt: e.now(),
	}
	for _, sink := range e.sinks {
		sink.Deliver(ctx, n)
	}
}

// Toast is a visible notification plus its expiry instant.
type Toast struct {
	models.Notification
	ExpiresAt time.Time `json:"expires_at"`
}

// Toaster is the transient visible queue: every event stays for a fixed
// time-to-live and is dropped on the next read after that. Dismissal
// history lives in the notification center, not here.
type Toaster struct {
	mu     sync.Mutex
	ttl    time.Duration
	toasts map[int64][]Toast
	now    func() time.Time
}

const DefaultToastTTL = 5 * time.Second

func NewToaster(ttl time.Duration) *Toaster {
	if ttl <= 0 {
		ttl = DefaultToastTTL
	}
	return &Toaster{ttl: ttl, toasts: make(map[int64][]Toast), now: time.Now}
}

func (t *Toaster) Deliver(_ context.Context, n models.Notification) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.toasts[n.UserID] = append(t.toasts[n.UserID], Toast{
		Notification: n,
		ExpiresAt:    t.now().Add(t.ttl),
	})
}

// Active returns the user's not-yet-expired toasts in emission order and
// prunes the rest.
func (t *Toaster) Active(userID int64) []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	var live []Toast
	for _, toast := range t.toasts[userID] {
		if toast.ExpiresAt.After(now) {
			live = append(live, toast)
		}
	}
	if live == nil {
		delete(t.toasts, userID)
	} else {
		t.toasts[userID] = live
	}
	return live
}
