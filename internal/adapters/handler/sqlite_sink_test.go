package handler

import (
	"context"
	"path/filepath"
	"testing"

	"go.uber.org/zap"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

func TestSQLiteSink(t *testing.T) {
	t.Parallel()

	dbPath := filepath.Join(t.TempDir(), "reports.db")
	sink, err := NewSQLiteSink(dbPath, "123456", zap.NewNop())
	if err != nil {
		t.Fatalf("NewSQLiteSink returned error: %v", err)
	}
	defer sink.Close()

	ctx := context.Background()
	scores := core.CategoryScores{Sexual: 0.97, Dangerous: 0.1, Violent: 0.2}
	reports := []*core.PostReport{
		{
			Post:    core.Post{ID: 103, Image: &core.ImageRef{ID: "1700.jpg"}},
			Status:  core.StatusFlagged,
			Scores:  &scores,
			Verdict: &core.Verdict{Flagged: true, Category: core.CategorySexual, Score: 0.97},
		},
		{
			Post:   core.Post{ID: 104},
			Status: core.StatusNoImage,
		},
		{
			Post:       core.Post{ID: 105, Image: &core.ImageRef{ID: "1701.webm"}},
			Status:     core.StatusSkipped,
			SkipReason: "unsupported media type",
		},
	}
	for _, r := range reports {
		if err := sink.Handle(ctx, r); err != nil {
			t.Fatalf("Handle(%d) returned error: %v", r.Post.ID, err)
		}
	}

	rows, err := sink.db.Query(`SELECT post_id, image_id, status, category, score, skip_reason FROM post_reports ORDER BY post_id`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()

	type row struct {
		postID     int64
		imageID    string
		status     string
		category   string
		score      float64
		skipReason string
	}
	var got []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.postID, &r.imageID, &r.status, &r.category, &r.score, &r.skipReason); err != nil {
			t.Fatal(err)
		}
		got = append(got, r)
	}
	if err := rows.Err(); err != nil {
		t.Fatal(err)
	}

	if len(got) != 3 {
		t.Fatalf("got %d rows, want 3", len(got))
	}
	if got[0].status != "flagged" || got[0].category != "sexually_explicit" || got[0].score != 0.97 {
		t.Errorf("flagged row = %+v", got[0])
	}
	if got[1].status != "no_image" || got[1].imageID != "" || got[1].category != "" {
		t.Errorf("no_image row = %+v", got[1])
	}
	if got[2].status != "skipped" || got[2].skipReason != "unsupported media type" {
		t.Errorf("skipped row = %+v", got[2])
	}
}
