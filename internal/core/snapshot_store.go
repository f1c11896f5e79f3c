package core

// SnapshotStore owns the durable-for-session record of which posts and
// images have already been processed, together with the most recent thread
// snapshot. It is a single-writer structure: only the monitor goroutine may
// call Initialize and Update, so no locking is performed here.
type SnapshotStore struct {
	seenPosts  map[int64]struct{}
	seenImages map[string]struct{}
	snapshot   *ThreadSnapshot
}

// NewSnapshotStore returns an empty store with no baseline established.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		seenPosts:  make(map[int64]struct{}),
		seenImages: make(map[string]struct{}),
	}
}

// Initialize sets the baseline: every post and image in snap is marked seen
// without producing any work. Used for the first fetch when historical
// images are not to be classified.
func (s *SnapshotStore) Initialize(snap *ThreadSnapshot) {
	for _, post := range snap.Posts {
		s.seenPosts[post.ID] = struct{}{}
		if post.Image != nil {
			s.seenImages[post.Image.ID] = struct{}{}
		}
	}
	s.snapshot = snap
}

// Update diffs snap against the seen sets, returns the posts and images not
// previously observed in snap's arrival order, then replaces the stored
// snapshot and extends the seen sets with exactly the identifiers returned.
// Calling Update twice with the same snapshot yields empty work the second
// time. A snapshot that is a strict prefix of the stored one (thread pruned
// upstream) produces zero new work; the seen sets never shrink.
func (s *SnapshotStore) Update(snap *ThreadSnapshot) NewWork {
	var work NewWork
	// Two new posts can repost the same image within one snapshot; it is
	// collected once.
	collected := make(map[string]struct{})
	for _, post := range snap.Posts {
		if _, ok := s.seenPosts[post.ID]; ok {
			continue
		}
		work.Posts = append(work.Posts, post)
		if post.Image == nil {
			continue
		}
		if _, ok := s.seenImages[post.Image.ID]; ok {
			continue
		}
		if _, ok := collected[post.Image.ID]; ok {
			continue
		}
		collected[post.Image.ID] = struct{}{}
		work.Images = append(work.Images, *post.Image)
	}

	for _, post := range work.Posts {
		s.seenPosts[post.ID] = struct{}{}
	}
	for _, img := range work.Images {
		s.seenImages[img.ID] = struct{}{}
	}
	s.snapshot = snap

	return work
}

// Snapshot returns the most recently stored snapshot, or nil before the
// baseline is established.
func (s *SnapshotStore) Snapshot() *ThreadSnapshot {
	return s.snapshot
}

// SeenPostCount returns how many distinct posts have been observed so far.
func (s *SnapshotStore) SeenPostCount() int {
	return len(s.seenPosts)
}

// HasSeenPost reports whether a post identifier has been observed.
func (s *SnapshotStore) HasSeenPost(id int64) bool {
	_, ok := s.seenPosts[id]
	return ok
}

// HasSeenImage reports whether an image identifier has been observed.
func (s *SnapshotStore) HasSeenImage(id string) bool {
	_, ok := s.seenImages[id]
	return ok
}
