// Package backend is the HTTP client for the external event repository. It
// owns the Spanish wire vocabulary of that API and converts it to and from
// the canonical internal models.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mvallejoc/eventum/internal/clock"
	"github.com/mvallejoc/eventum/internal/event"
)

// Client talks to the event repository REST API.
type Client struct {
	base string
	http *http.Client
}

// New creates a Client for the given base URL.
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{Timeout: timeout},
	}
}

// wireEvent mirrors one element of GET /eventos.
type wireEvent struct {
	ID          json.Number `json:"idevento"`
	Name        string      `json:"nombreevento"`
	Date        string      `json:"fechaevento"`
	Time        string      `json:"horaevento"` // HH:mm:ss
	Place       string      `json:"lugarevento"`
	Responsible string      `json:"responsable_evento"`
	Creator     string      `json:"academicoCreador"`
}

// FetchEvents loads the full list of scheduled events.
func (c *Client) FetchEvents(ctx context.Context) ([]event.Event, error) {
	var wire []wireEvent
	if err := c.getJSON(ctx, "/eventos", &wire); err != nil {
		return nil, fmt.Errorf("fetch eventos: %w", err)
	}

	events := make([]event.Event, 0, len(wire))
	for _, w := range wire {
		ev := event.Event{
			ID:          w.ID.String(),
			Name:        w.Name,
			Date:        isoDate(w.Date),
			Place:       w.Place,
			Responsible: w.Responsible,
		}
		if ev.Responsible == "" {
			ev.Responsible = w.Creator
		}
		if t, err := clock.Parse(w.Time); err == nil {
			ev.Time = t
		} else {
			slog.Warn("skipping event with unparseable time",
				"id", ev.ID, "horaevento", w.Time)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

// isoDate trims a full ISO timestamp down to its YYYY-MM-DD prefix. Date
// comparison elsewhere is string equality, so normalization happens exactly
// once, here.
func isoDate(s string) string {
	if len(s) > 10 {
		return s[:10]
	}
	return s
}

// DefaultResources is the degraded-but-functional catalog used when
// GET /recursos is unavailable.
var DefaultResources = []string{
	"Proyector", "Equipo de sonido", "Sillas", "Mesas", "Toldo", "Micrófono",
}

// DefaultFaculties is the fallback for GET /facultades.
var DefaultFaculties = []string{
	"Ingeniería", "Medicina", "Derecho", "Economía", "Humanidades",
}

// FetchResources returns the resource catalog, falling back to the default
// list on any error. The second return reports whether the live catalog was
// used.
func (c *Client) FetchResources(ctx context.Context) ([]string, bool) {
	return c.fetchCatalog(ctx, "/recursos", DefaultResources)
}

// FetchFaculties returns the faculty catalog with the same fallback rule.
func (c *Client) FetchFaculties(ctx context.Context) ([]string, bool) {
	return c.fetchCatalog(ctx, "/facultades", DefaultFaculties)
}

func (c *Client) fetchCatalog(ctx context.Context, path string, fallback []string) ([]string, bool) {
	var out []string
	if err := c.getJSON(ctx, path, &out); err != nil {
		slog.Warn("catalog fetch failed, using fallback", "path", path, "err", err)
		return append([]string(nil), fallback...), false
	}
	if len(out) == 0 {
		return append([]string(nil), fallback...), false
	}
	return out, true
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// wireFieldError is one entry of a structured 4xx error body. The repository
// is inconsistent about key names, so both variants of each pair are
// accepted.
type wireFieldError struct {
	Path    string `json:"path"`
	Param   string `json:"param"`
	Message string `json:"message"`
	Msg     string `json:"msg"`
}

func (w wireFieldError) field() string {
	if w.Path != "" {
		return w.Path
	}
	return w.Param
}

func (w wireFieldError) text() string {
	if w.Message != "" {
		return w.Message
	}
	return w.Msg
}

// FieldError is a normalized structured error from a rejected submission.
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SubmitError is returned when the repository rejects a proposal. Fields is
// empty for unstructured failures.
type SubmitError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("submit rejected (status %d): %s", e.Status, e.Message)
}

// Submit posts an aggregate proposal payload. A 2xx response returns nil; a
// 4xx with a structured body returns a *SubmitError carrying the per-field
// errors for step rewinding.
func (c *Client) Submit(ctx context.Context, p *Proposal) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode proposal: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/eventos", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post eventos: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	subErr := &SubmitError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	var wire struct {
		Message string           `json:"message"`
		Errors  []wireFieldError `json:"errors"`
	}
	if err := json.Unmarshal(raw, &wire); err == nil {
		if wire.Message != "" {
			subErr.Message = wire.Message
		}
		for _, fe := range wire.Errors {
			if fe.field() == "" {
				continue
			}
			subErr.Fields = append(subErr.Fields, FieldError{Path: fe.field(), Message: fe.text()})
		}
	}
	return subErr
}
