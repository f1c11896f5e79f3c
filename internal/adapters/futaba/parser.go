package futaba

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
)

// parseThread decodes a JSON thread payload into an ordered snapshot. Post
// numbers arrive as map keys and are compared numerically, never lexically:
// the board hands out variable-length identifiers and a string sort would
// interleave them.
func parseThread(domain string, body []byte) (*core.ThreadSnapshot, error) {
	var payload threadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrParse, err)
	}

	ids := make([]int64, 0, len(payload.Res))
	byID := make(map[int64]postPayload, len(payload.Res))
	for key, post := range payload.Res {
		id, err := strconv.ParseInt(key, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: post number %q is not numeric", core.ErrParse, key)
		}
		ids = append(ids, id)
		byID[id] = post
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	snap := &core.ThreadSnapshot{Posts: make([]core.Post, 0, len(ids))}
	for _, id := range ids {
		snap.Posts = append(snap.Posts, buildPost(domain, id, byID[id]))
	}
	return snap, nil
}

func buildPost(domain string, id int64, payload postPayload) core.Post {
	post := core.Post{
		ID:      id,
		Name:    payload.Name,
		Text:    normalizeText(payload.Com),
		Date:    payload.Now,
		Deleted: payload.Del == "del",
	}
	if payload.Src != "" && payload.Ext != "" {
		filename := payload.Tim + payload.Ext
		post.Image = &core.ImageRef{
			ID:       filename,
			PostID:   id,
			Filename: filename,
			URL:      "https://" + domain + payload.Src,
		}
		if payload.Thumb != "" {
			post.Image.ThumbURL = "https://" + domain + payload.Thumb
		}
	}
	return post
}

// normalizeText converts the board's <br> line breaks to newlines.
func normalizeText(com string) string {
	return strings.ReplaceAll(com, "<br>", "\n")
}
