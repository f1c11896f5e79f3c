package core

import (
	"fmt"
)

// Category is one of the three fixed risk dimensions scored by the classifier.
type Category int

const (
	// CategorySexual covers sexually explicit content.
	CategorySexual Category = iota
	// CategoryDangerous covers dangerous content (weapons, self-harm, drugs).
	CategoryDangerous
	// CategoryViolent covers violence and gore.
	CategoryViolent
)

// Categories lists all categories in verdict priority order. When two
// categories score exactly the same, the earlier one wins.
var Categories = []Category{CategorySexual, CategoryDangerous, CategoryViolent}

// String returns the human-readable category name.
func (c Category) String() string {
	switch c {
	case CategorySexual:
		return "sexually_explicit"
	case CategoryDangerous:
		return "dangerous_content"
	case CategoryViolent:
		return "violence_gore"
	default:
		return fmt.Sprintf("unknown_category_%d", int(c))
	}
}

// CategoryScores holds the per-category probability that an image is harmful.
// All values are in [0.0, 1.0]. A CategoryScores value is immutable once
// produced by a classifier.
type CategoryScores struct {
	Sexual    float64
	Dangerous float64
	Violent   float64
}

// Score returns the probability for a single category.
func (s CategoryScores) Score(c Category) float64 {
	switch c {
	case CategorySexual:
		return s.Sexual
	case CategoryDangerous:
		return s.Dangerous
	case CategoryViolent:
		return s.Violent
	default:
		return 0
	}
}

// ImageRef identifies an image attached to a post. The byte content is
// fetched lazily and never stored alongside the reference.
type ImageRef struct {
	// ID is the Futaba server upload timestamp plus extension (tim+ext),
	// unique across the board and stable across fetches.
	ID string
	// PostID is the identifier of the owning post.
	PostID int64
	// Filename is the name the image is stored under (same as ID).
	Filename string
	// URL is the full-size image URL.
	URL string
	// ThumbURL is the thumbnail URL, when present.
	ThumbURL string
}

// Post is one message within a thread. A nil Image means the post carries no
// attachment.
type Post struct {
	ID      int64
	Name    string
	Text    string
	Date    string
	Deleted bool
	Image   *ImageRef
}

// ThreadSnapshot is the full state of a thread's posts as observed at one
// poll instant. Posts are ordered by ID ascending; IDs are unique.
type ThreadSnapshot struct {
	Posts []Post
}

// LastPostID returns the highest post ID in the snapshot, or 0 when empty.
func (s *ThreadSnapshot) LastPostID() int64 {
	if len(s.Posts) == 0 {
		return 0
	}
	return s.Posts[len(s.Posts)-1].ID
}

// ImageCount returns how many posts in the snapshot carry an image.
func (s *ThreadSnapshot) ImageCount() int {
	n := 0
	for _, p := range s.Posts {
		if p.Image != nil {
			n++
		}
	}
	return n
}

// NewWork is the set of posts and images a poll cycle has not processed
// before. Posts keep the snapshot's arrival order; Images keep the order of
// their owning posts.
type NewWork struct {
	Posts  []Post
	Images []ImageRef
}

// IsEmpty reports whether the cycle has nothing to do.
func (w NewWork) IsEmpty() bool {
	return len(w.Posts) == 0
}

// Verdict is the outcome of comparing CategoryScores against a threshold.
// When Flagged is true, Category names the highest-scoring category at or
// above the threshold and Score its probability.
type Verdict struct {
	Flagged  bool
	Category Category
	Score    float64
}

// ReportStatus describes what happened to a post's image during a cycle.
type ReportStatus int

const (
	// StatusNoImage means the post carries no attachment.
	StatusNoImage ReportStatus = iota
	// StatusNotClassified means classification is disabled for this run.
	StatusNotClassified
	// StatusPreviouslySeen means the post reposts an image that was already
	// processed in an earlier cycle.
	StatusPreviouslySeen
	// StatusSkipped means classification was attempted but failed.
	StatusSkipped
	// StatusClean means the image scored below the threshold in every category.
	StatusClean
	// StatusFlagged means at least one category scored at or above the threshold.
	StatusFlagged
)

// String returns the status name used in reports.
func (s ReportStatus) String() string {
	switch s {
	case StatusNoImage:
		return "no_image"
	case StatusNotClassified:
		return "not_classified"
	case StatusPreviouslySeen:
		return "previously_seen"
	case StatusSkipped:
		return "skipped"
	case StatusClean:
		return "clean"
	case StatusFlagged:
		return "flagged"
	default:
		return fmt.Sprintf("unknown_status_%d", int(s))
	}
}

// PostReport is delivered to result handlers once per newly observed post.
// Scores and Verdict are set only for StatusClean and StatusFlagged;
// SkipReason is set only for StatusSkipped.
type PostReport struct {
	Post       Post
	Status     ReportStatus
	Scores     *CategoryScores
	Verdict    *Verdict
	SkipReason string
}
