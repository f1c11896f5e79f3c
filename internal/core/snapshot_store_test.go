package core

import (
	"reflect"
	"testing"
)

func post(id int64, imageID string) Post {
	p := Post{ID: id, Text: "text"}
	if imageID != "" {
		p.Image = &ImageRef{ID: imageID, PostID: id, Filename: imageID}
	}
	return p
}

func snapshot(posts ...Post) *ThreadSnapshot {
	return &ThreadSnapshot{Posts: posts}
}

func TestSnapshotStoreInitialize(t *testing.T) {
	t.Parallel()

	store := NewSnapshotStore()
	store.Initialize(snapshot(post(100, "1700.jpg"), post(101, ""), post(102, "1701.png")))

	if got := store.SeenPostCount(); got != 3 {
		t.Fatalf("SeenPostCount() = %d, want 3", got)
	}
	if !store.HasSeenPost(100) || !store.HasSeenPost(102) {
		t.Error("baseline posts not marked seen")
	}
	if !store.HasSeenImage("1700.jpg") || !store.HasSeenImage("1701.png") {
		t.Error("baseline images not marked seen")
	}

	// Baseline establishment must not create work on the next identical fetch
	work := store.Update(snapshot(post(100, "1700.jpg"), post(101, ""), post(102, "1701.png")))
	if !work.IsEmpty() {
		t.Errorf("Update after Initialize produced work: %+v", work)
	}
}

func TestSnapshotStoreUpdate(t *testing.T) {
	t.Parallel()

	t.Run("first update treats everything as new", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		work := store.Update(snapshot(post(100, "1700.jpg"), post(101, "")))
		if len(work.Posts) != 2 || len(work.Images) != 1 {
			t.Fatalf("got %d posts, %d images, want 2, 1", len(work.Posts), len(work.Images))
		}
	})

	t.Run("only posts beyond the seen set are returned", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		store.Initialize(snapshot(post(100, ""), post(101, "1700.jpg")))

		work := store.Update(snapshot(
			post(100, ""), post(101, "1700.jpg"),
			post(102, ""), post(103, "1701.jpg"),
		))
		wantIDs := []int64{102, 103}
		var gotIDs []int64
		for _, p := range work.Posts {
			gotIDs = append(gotIDs, p.ID)
		}
		if !reflect.DeepEqual(gotIDs, wantIDs) {
			t.Errorf("new post IDs = %v, want %v", gotIDs, wantIDs)
		}
		if len(work.Images) != 1 || work.Images[0].ID != "1701.jpg" {
			t.Errorf("new images = %+v, want just 1701.jpg", work.Images)
		}
	})

	t.Run("update is idempotent", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		snap := snapshot(post(100, "1700.jpg"), post(101, ""))
		if work := store.Update(snap); work.IsEmpty() {
			t.Fatal("first update produced no work")
		}
		if work := store.Update(snap); !work.IsEmpty() {
			t.Errorf("second update with same snapshot produced work: %+v", work)
		}
	})

	t.Run("work preserves arrival order", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		store.Initialize(snapshot(post(100, "")))
		work := store.Update(snapshot(
			post(100, ""), post(101, "b.jpg"), post(102, ""), post(103, "a.jpg"),
		))
		if work.Posts[0].ID != 101 || work.Posts[1].ID != 102 || work.Posts[2].ID != 103 {
			t.Errorf("posts out of order: %+v", work.Posts)
		}
		if work.Images[0].ID != "b.jpg" || work.Images[1].ID != "a.jpg" {
			t.Errorf("images out of order: %+v", work.Images)
		}
	})

	t.Run("seen image suppresses repost in a new post", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		store.Initialize(snapshot(post(100, "1700.jpg")))
		work := store.Update(snapshot(post(100, "1700.jpg"), post(101, "1700.jpg")))
		if len(work.Posts) != 1 {
			t.Fatalf("got %d new posts, want 1", len(work.Posts))
		}
		if len(work.Images) != 0 {
			t.Errorf("repost produced image work: %+v", work.Images)
		}
	})

	t.Run("duplicate image within one snapshot is collected once", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		store.Initialize(snapshot(post(100, "")))
		work := store.Update(snapshot(
			post(100, ""), post(101, "x.jpg"), post(102, "x.jpg"),
		))
		if len(work.Posts) != 2 {
			t.Fatalf("got %d new posts, want 2", len(work.Posts))
		}
		if len(work.Images) != 1 || work.Images[0].ID != "x.jpg" {
			t.Errorf("images = %+v, want x.jpg exactly once", work.Images)
		}
		if !store.HasSeenImage("x.jpg") {
			t.Error("shared image not marked seen")
		}
	})

	t.Run("sequential updates cover the same work as one update", func(t *testing.T) {
		t.Parallel()
		s1 := snapshot(post(100, "a.jpg"))
		s2 := snapshot(post(100, "a.jpg"), post(101, ""))
		s3 := snapshot(post(100, "a.jpg"), post(101, ""), post(102, "b.jpg"), post(103, ""))

		stepwise := NewSnapshotStore()
		var steppedIDs []int64
		for _, snap := range []*ThreadSnapshot{s1, s2, s3} {
			for _, p := range stepwise.Update(snap).Posts {
				steppedIDs = append(steppedIDs, p.ID)
			}
		}

		direct := NewSnapshotStore()
		var directIDs []int64
		for _, p := range direct.Update(s3).Posts {
			directIDs = append(directIDs, p.ID)
		}

		if !reflect.DeepEqual(steppedIDs, directIDs) {
			t.Errorf("stepwise = %v, direct = %v", steppedIDs, directIDs)
		}
	})

	t.Run("pruned thread produces no work and keeps seen sets", func(t *testing.T) {
		t.Parallel()
		store := NewSnapshotStore()
		store.Initialize(snapshot(post(100, ""), post(101, "1700.jpg"), post(102, "")))

		// Upstream deleted the tail; the shorter snapshot is a strict prefix
		work := store.Update(snapshot(post(100, "")))
		if !work.IsEmpty() {
			t.Errorf("prefix snapshot produced work: %+v", work)
		}
		if !store.HasSeenPost(102) || !store.HasSeenImage("1700.jpg") {
			t.Error("seen sets shrank after a pruned snapshot")
		}
		if got := store.Snapshot(); len(got.Posts) != 1 {
			t.Errorf("stored snapshot not replaced, has %d posts", len(got.Posts))
		}
	})
}
