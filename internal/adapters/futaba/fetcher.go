package futaba

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/tropical-362827/futaba-shieldgemma/internal/core"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// userAgent mirrors a desktop browser; the board rejects obvious bots.
const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Fetcher retrieves threads from the Futaba JSON API. It implements
// core.ThreadFetcher and carries no retry logic; the monitor owns the
// retry/backoff policy.
type Fetcher struct {
	client *http.Client
	domain string
	board  string
	logger *zap.Logger
}

// NewFetcher creates a fetcher for one board on one Futaba domain
// (e.g. domain "may.2chan.net", board "b").
func NewFetcher(domain, board string, timeout time.Duration, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
		domain: domain,
		board:  board,
		logger: logger,
	}
}

// ThreadURL returns the human-facing URL of a thread, used in reports.
func (f *Fetcher) ThreadURL(threadID string) string {
	return fmt.Sprintf("https://%s/%s/res/%s.htm", f.domain, f.board, threadID)
}

// Fetch retrieves the current full thread state via futaba.php's JSON mode.
// Transport failures wrap core.ErrTransport; undecodable payloads wrap
// core.ErrParse.
func (f *Fetcher) Fetch(ctx context.Context, threadID string) (*core.ThreadSnapshot, error) {
	url := fmt.Sprintf("https://%s/%s/futaba.php?mode=json&res=%s", f.domain, f.board, threadID)
	f.logger.Debug("Fetching thread", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", core.ErrTransport, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json,*/*")
	req.Header.Set("Accept-Language", "ja,en-US;q=0.9,en;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status %d", core.ErrTransport, resp.StatusCode)
	}

	body, err := io.ReadAll(decodeBody(resp))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", core.ErrTransport, err)
	}

	snap, err := parseThread(f.domain, body)
	if err != nil {
		return nil, err
	}

	f.logger.Debug("Fetched thread",
		zap.String("thread", threadID),
		zap.Int("posts", len(snap.Posts)))
	return snap, nil
}

// decodeBody transparently converts Shift_JIS responses to UTF-8. Futaba
// serves CP932 on some endpoints depending on the declared mimetype.
func decodeBody(resp *http.Response) io.Reader {
	_, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return resp.Body
	}
	charset := strings.ToLower(params["charset"])
	if charset == "shift_jis" || charset == "shift-jis" || charset == "cp932" || charset == "windows-31j" {
		return transform.NewReader(resp.Body, japanese.ShiftJIS.NewDecoder())
	}
	return resp.Body
}

// threadPayload is the wire shape of futaba.php?mode=json responses: a map
// from post number to post body.
type threadPayload struct {
	Res map[string]postPayload `json:"res"`
}

type postPayload struct {
	Name  string `json:"name"`
	Com   string `json:"com"`
	Now   string `json:"now"`
	Src   string `json:"src"`
	Thumb string `json:"thumb"`
	Ext   string `json:"ext"`
	Tim   string `json:"tim"`
	Del   string `json:"del"`
}

var _ json.Unmarshaler = (*threadPayload)(nil)

// UnmarshalJSON tolerates the empty-thread case where "res" is an empty
// array instead of an object.
func (t *threadPayload) UnmarshalJSON(data []byte) error {
	type alias struct {
		Res json.RawMessage `json:"res"`
	}
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw.Res) == 0 || string(raw.Res) == "[]" || string(raw.Res) == "null" {
		t.Res = map[string]postPayload{}
		return nil
	}
	return json.Unmarshal(raw.Res, &t.Res)
}
