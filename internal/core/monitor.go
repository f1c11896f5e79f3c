package core

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// MonitorDeps wires the external collaborators into the polling loop.
// Classifier and Cache may be nil; a nil Classifier disables classification
// regardless of options.
type MonitorDeps struct {
	Fetcher    ThreadFetcher
	Images     ImageFetcher
	Classifier ImageClassifier
	Handler    ResultHandler
	Cache      ScoreCache
	Media      MediaChecker
	Store      *SnapshotStore
	Logger     *zap.Logger
}

// MonitorOptions holds the validated runtime settings of one monitoring
// session. Threshold and Interval are checked by the configuration layer
// before a Monitor is constructed.
type MonitorOptions struct {
	ThreadID         string
	Interval         time.Duration
	FetchTimeout     time.Duration
	Threshold        float64
	ClassifyEnabled  bool
	ClassifyExisting bool
	Concurrency      int
	CacheTTL         time.Duration
}

// Monitor drives the fixed-interval poll cycle: fetch, diff, classify,
// report, sleep. It is the single writer of the snapshot store.
type Monitor struct {
	fetcher    ThreadFetcher
	images     ImageFetcher
	classifier ImageClassifier
	handler    ResultHandler
	cache      ScoreCache
	media      MediaChecker
	store      *SnapshotStore
	logger     *zap.Logger
	opts       MonitorOptions
}

// NewMonitor creates a monitor for a single thread.
func NewMonitor(deps MonitorDeps, opts MonitorOptions) *Monitor {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Monitor{
		fetcher:    deps.Fetcher,
		images:     deps.Images,
		classifier: deps.Classifier,
		handler:    deps.Handler,
		cache:      deps.Cache,
		media:      deps.Media,
		store:      deps.Store,
		logger:     deps.Logger,
		opts:       opts,
	}
}

// Run executes poll cycles until ctx is cancelled. The cycle in flight when
// cancellation arrives is completed before Run returns; the sleep between
// cycles is interrupted immediately.
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("Starting thread monitor",
		zap.String("thread", m.opts.ThreadID),
		zap.Duration("interval", m.opts.Interval),
		zap.Float64("threshold", m.opts.Threshold),
		zap.Bool("classify", m.classifyEnabled()))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Thread monitor stopped")
			return nil
		case <-timer.C:
		}

		m.runCycle(ctx)
		timer.Reset(m.opts.Interval)
	}
}

func (m *Monitor) classifyEnabled() bool {
	return m.opts.ClassifyEnabled && m.classifier != nil
}

// runCycle performs one fetch-diff-classify-report pass. All failures are
// local to the cycle: the next cycle runs after the normal interval.
func (m *Monitor) runCycle(ctx context.Context) {
	fetchCtx := ctx
	if m.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, m.opts.FetchTimeout)
		defer cancel()
	}

	snap, err := m.fetcher.Fetch(fetchCtx, m.opts.ThreadID)
	if err != nil {
		switch {
		case errors.Is(err, ErrParse):
			m.logger.Warn("Thread payload malformed, skipping cycle", zap.Error(err))
		default:
			m.logger.Warn("Thread fetch failed, skipping cycle", zap.Error(err))
		}
		return
	}

	if m.store.Snapshot() == nil {
		m.logThreadSummary(snap)
		if !m.opts.ClassifyExisting {
			// Baseline: everything present at startup counts as seen, so
			// the first cycle never triggers a classification burst.
			m.store.Initialize(snap)
			return
		}
	}

	work := m.store.Update(snap)
	if work.IsEmpty() {
		m.logger.Debug("No new posts", zap.Int64("last_post", snap.LastPostID()))
		return
	}

	m.logger.Info("New posts found",
		zap.Int("posts", len(work.Posts)),
		zap.Int("images", len(work.Images)))
	for _, img := range work.Images {
		m.logger.Debug("New image",
			zap.Int64("post", img.PostID),
			zap.String("image", img.ID),
			zap.String("url", img.URL))
	}

	outcomes := m.classifyAll(ctx, work.Images)

	// Reporting is part of the in-flight cycle and completes even when
	// cancellation arrived during classification.
	reportCtx := context.WithoutCancel(ctx)
	for i := range work.Posts {
		report := m.buildReport(&work.Posts[i], outcomes)
		if err := m.handler.Handle(reportCtx, report); err != nil {
			m.logger.Warn("Result handler failed",
				zap.Int64("post", report.Post.ID),
				zap.Error(err))
		}
	}
}

// imageOutcome is the per-image classification result within one cycle.
type imageOutcome struct {
	scores *CategoryScores
	reason string
}

// classifyAll scores every image in the work set with a bounded worker pool.
// Each image is independent; a failure marks only that image as skipped.
// The returned map is keyed by image ID so reporting can follow post order.
func (m *Monitor) classifyAll(ctx context.Context, images []ImageRef) map[string]*imageOutcome {
	outcomes := make(map[string]*imageOutcome, len(images))
	if !m.classifyEnabled() || len(images) == 0 {
		return outcomes
	}

	results := make([]*imageOutcome, len(images))

	// Cancellation stops new images from starting but never interrupts one
	// already being downloaded or classified.
	workCtx := context.WithoutCancel(ctx)

	// The classifier holds a loaded model on the backend side, so fan-out
	// is capped rather than unbounded.
	g := &errgroup.Group{}
	g.SetLimit(m.opts.Concurrency)
	for i := range images {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i] = &imageOutcome{reason: "shutdown in progress"}
				return nil
			}
			results[i] = m.classifyOne(workCtx, images[i])
			return nil
		})
	}
	// Workers report failures through their outcome, never as errors.
	_ = g.Wait()

	for i, img := range images {
		outcomes[img.ID] = results[i]
	}
	return outcomes
}

// classifyOne resolves a single image to scores or a skip reason. Order of
// attempts: cache, media-type check, download, classify.
func (m *Monitor) classifyOne(ctx context.Context, img ImageRef) *imageOutcome {
	if m.cache != nil {
		if scores, err := m.cache.Get(ctx, img.ID); err == nil && scores != nil {
			m.logger.Debug("Score cache hit", zap.String("image", img.ID))
			return &imageOutcome{scores: scores}
		}
	}

	if m.media != nil && !m.media.Allowed(img.Filename) {
		m.logger.Warn("Attachment type not classifiable",
			zap.Int64("post", img.PostID),
			zap.String("image", img.ID))
		return &imageOutcome{reason: "unsupported media type"}
	}

	data, err := m.images.Download(ctx, img)
	if err != nil {
		m.logger.Warn("Image download failed",
			zap.Int64("post", img.PostID),
			zap.String("image", img.ID),
			zap.Error(err))
		return &imageOutcome{reason: "download failed"}
	}

	scores, err := m.classifier.Classify(ctx, data)
	if err != nil {
		reason := "classification failed"
		if errors.Is(err, ErrUnusableImage) {
			reason = "image unusable"
		} else if errors.Is(err, ErrModelUnavailable) {
			reason = "model unavailable"
		}
		m.logger.Warn("Image classification failed",
			zap.Int64("post", img.PostID),
			zap.String("image", img.ID),
			zap.Error(err))
		return &imageOutcome{reason: reason}
	}

	if m.cache != nil {
		if err := m.cache.Set(ctx, img.ID, scores, m.opts.CacheTTL); err != nil {
			m.logger.Warn("Failed to cache scores", zap.String("image", img.ID), zap.Error(err))
		}
	}

	return &imageOutcome{scores: &scores}
}

// buildReport assembles the handler payload for one newly observed post.
func (m *Monitor) buildReport(post *Post, outcomes map[string]*imageOutcome) *PostReport {
	report := &PostReport{Post: *post}

	if post.Image == nil {
		report.Status = StatusNoImage
		return report
	}
	if !m.classifyEnabled() {
		report.Status = StatusNotClassified
		return report
	}

	outcome, ok := outcomes[post.Image.ID]
	if !ok {
		// The image was scored in an earlier cycle; only the repost itself
		// is new.
		report.Status = StatusPreviouslySeen
		return report
	}
	if outcome.scores == nil {
		report.Status = StatusSkipped
		report.SkipReason = outcome.reason
		return report
	}

	verdict := Evaluate(*outcome.scores, m.opts.Threshold)
	report.Scores = outcome.scores
	report.Verdict = &verdict
	if verdict.Flagged {
		report.Status = StatusFlagged
	} else {
		report.Status = StatusClean
	}
	return report
}

func (m *Monitor) logThreadSummary(snap *ThreadSnapshot) {
	fields := []zap.Field{
		zap.Int("posts", len(snap.Posts)),
		zap.Int("posts_with_images", snap.ImageCount()),
	}
	if len(snap.Posts) > 0 {
		first := snap.Posts[0]
		fields = append(fields,
			zap.String("started", first.Date),
			zap.String("subject", previewText(first.Text, 50)))
	}
	m.logger.Info("Thread summary", fields...)
}

func previewText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return string(runes[:max]) + "..."
}
