package core

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrTransport indicates the thread or an image could not be fetched
	// from the remote board.
	ErrTransport = errors.New("transport failure")
	// ErrParse indicates a fetched payload could not be decoded.
	ErrParse = errors.New("malformed thread payload")
	// ErrModelUnavailable indicates the classifier backend could not be
	// reached or refused the request.
	ErrModelUnavailable = errors.New("classifier model unavailable")
	// ErrUnusableImage indicates the classifier rejected the input itself.
	ErrUnusableImage = errors.New("image cannot be processed")
)

// ThreadFetcher retrieves the current full thread representation from the
// remote board. Errors wrap ErrTransport or ErrParse; retry and backoff are
// the caller's responsibility.
type ThreadFetcher interface {
	Fetch(ctx context.Context, threadID string) (*ThreadSnapshot, error)
}

// ImageFetcher downloads the byte content of an attached image.
type ImageFetcher interface {
	Download(ctx context.Context, ref ImageRef) ([]byte, error)
}

// ImageClassifier scores raw image bytes against the three fixed categories.
// Errors wrap ErrModelUnavailable or ErrUnusableImage.
type ImageClassifier interface {
	Classify(ctx context.Context, image []byte) (CategoryScores, error)
}

// ResultHandler receives one report per newly observed post. Handler errors
// never abort a poll cycle.
type ResultHandler interface {
	Handle(ctx context.Context, report *PostReport) error
}

// MediaChecker decides whether an attachment is a still image the classifier
// can accept. Rejected attachments (videos, unknown formats) are reported as
// skipped without invoking the classifier.
type MediaChecker interface {
	Allowed(filename string) bool
}

// ScoreCache stores classifier output keyed by image ID so identical reposts
// are not classified twice.
type ScoreCache interface {
	Get(ctx context.Context, imageID string) (*CategoryScores, error)
	Set(ctx context.Context, imageID string, scores CategoryScores, ttl time.Duration) error
	Cleanup(ctx context.Context) error
}
