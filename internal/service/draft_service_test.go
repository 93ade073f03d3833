package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/transfer"
	"github.com/sambecker/postdeck/pkg/imaging"
)

func TestSaveRejectsEmptyDraft(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewDraftService(repo)

	cases := []*transfer.DraftSave{
		nil,
		{},
		{Platforms: []string{"linkedin"}},
	}
	for _, ds := range cases {
		_, err := svc.Save(context.Background(), 1, ds)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("Save(%+v): err = %v, want ValidationError", ds, err)
		}
	}
	if len(repo.drafts) != 0 {
		t.Errorf("stored %d drafts, want 0", len(repo.drafts))
	}
}

func TestSaveImageOnlyDraft(t *testing.T) {
	svc := NewDraftService(newFakeDraftRepo())

	draft, err := svc.Save(context.Background(), 1, &transfer.DraftSave{
		Image: &imaging.Payload{MIME: "image/png", Data: []byte{1, 2, 3}},
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if draft.ID == "" {
		t.Error("new draft should get an id")
	}
}

func TestSaveAssignsIDAndResavePreservesCreatedAt(t *testing.T) {
	repo := newFakeDraftRepo()
	svc := NewDraftService(repo)
	ds := svc.(*draftService)

	created := time.Date(2026, time.August, 1, 9, 0, 0, 0, time.UTC)
	ds.now = func() time.Time { return created }

	draft, err := svc.Save(context.Background(), 1, &transfer.DraftSave{Content: "first cut"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if draft.ID == "" {
		t.Fatal("new draft should get an id")
	}
	if !draft.CreatedAt.Equal(created) || !draft.UpdatedAt.Equal(created) {
		t.Error("fresh draft should carry the save time on both stamps")
	}

	updated := created.Add(2 * time.Hour)
	ds.now = func() time.Time { return updated }

	resaved, err := svc.Save(context.Background(), 1, &transfer.DraftSave{
		ID:      draft.ID,
		Content: "second cut",
	})
	if err != nil {
		t.Fatalf("resave: %v", err)
	}
	if resaved.ID != draft.ID {
		t.Errorf("resave changed id %q to %q", draft.ID, resaved.ID)
	}
	if !resaved.CreatedAt.Equal(created) {
		t.Errorf("resave moved CreatedAt to %v", resaved.CreatedAt)
	}
	if !resaved.UpdatedAt.Equal(updated) {
		t.Errorf("UpdatedAt = %v, want %v", resaved.UpdatedAt, updated)
	}
	if got := repo.drafts[draft.ID].Content; got != "second cut" {
		t.Errorf("stored content = %q", got)
	}
}

func TestDraftOwnership(t *testing.T) {
	repo := newFakeDraftRepo()
	repo.drafts["d1"] = &models.Draft{ID: "d1", UserID: 1, Content: "mine"}
	svc := NewDraftService(repo)

	if _, err := svc.Load(context.Background(), 2, "d1"); err == nil {
		t.Error("loading another user's draft should fail")
	}
	if err := svc.Remove(context.Background(), 2, "d1"); err == nil {
		t.Error("removing another user's draft should fail")
	}
	if _, ok := repo.drafts["d1"]; !ok {
		t.Fatal("draft must survive a rejected removal")
	}

	if _, err := svc.Save(context.Background(), 2, &transfer.DraftSave{ID: "d1", Content: "stolen"}); err == nil {
		t.Error("resaving another user's draft should fail")
	}
	if repo.drafts["d1"].Content != "mine" {
		t.Error("rejected resave must not change the draft")
	}
}

func TestDraftLoadAndRemove(t *testing.T) {
	repo := newFakeDraftRepo()
	repo.drafts["d1"] = &models.Draft{ID: "d1", UserID: 1, Content: "keep me"}
	svc := NewDraftService(repo)

	draft, err := svc.Load(context.Background(), 1, "d1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if draft.Content != "keep me" {
		t.Errorf("content = %q", draft.Content)
	}
	// loading must not consume the draft
	if _, ok := repo.drafts["d1"]; !ok {
		t.Fatal("load removed the draft")
	}

	if err := svc.Remove(context.Background(), 1, "d1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok := repo.drafts["d1"]; ok {
		t.Error("draft still stored after removal")
	}

	if _, err := svc.Load(context.Background(), 1, ""); err == nil {
		t.Error("empty id should be rejected")
	}
}
