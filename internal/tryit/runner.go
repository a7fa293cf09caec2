// Package tryit issues live requests against the API a spec documents. The
// target base URL is derived from the document itself; requests go straight
// to that API, not through any stored record.
package tryit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
)

// ErrInputParse indicates the user-supplied request text is not valid JSON.
var ErrInputParse = errors.New("request input is not valid JSON")

// FallbackBaseURL is used when the document names no server at all.
const FallbackBaseURL = "https://postman-echo.com"

// DocShape distinguishes the two spec generations at the boundary so base
// URL derivation is total over a closed set.
type DocShape int

const (
	ShapeUnknown DocShape = iota
	ShapeSwagger2
	ShapeOpenAPI3
)

// Shape classifies a document by its version marker field.
func Shape(spec []byte) DocShape {
	if gjson.GetBytes(spec, "swagger").Exists() {
		return ShapeSwagger2
	}
	if gjson.GetBytes(spec, "openapi").Exists() {
		return ShapeOpenAPI3
	}
	return ShapeUnknown
}

// BaseURL derives the request target prefix from the document.
//
// Swagger 2.0 documents with a host yield {scheme}://{host}{basePath} with
// the scheme from schemes[0] (default https). OpenAPI 3 documents yield the
// first server URL with a single trailing slash removed. Everything else
// falls back to an echo service.
func BaseURL(spec []byte) string {
	switch Shape(spec) {
	case ShapeSwagger2:
		host := gjson.GetBytes(spec, "host").String()
		if host == "" {
			return FallbackBaseURL
		}
		scheme := gjson.GetBytes(spec, "schemes.0").String()
		if scheme == "" {
			scheme = "https"
		}
		return scheme + "://" + host + gjson.GetBytes(spec, "basePath").String()
	case ShapeOpenAPI3:
		first := gjson.GetBytes(spec, "servers.0.url").String()
		if first == "" {
			return FallbackBaseURL
		}
		return strings.TrimSuffix(first, "/")
	default:
		return FallbackBaseURL
	}
}

// State is the runner's send lifecycle.
type State string

const (
	StateIdle    State = "idle"
	StateSending State = "sending"
	StateSuccess State = "success"
	StateFailed  State = "failed"
)

// Outcome captures what the UI displays after a send completes.
type Outcome struct {
	State      State       `json:"state"`
	URL        string      `json:"url"`
	Status     string      `json:"status"`
	StatusCode int         `json:"statusCode,omitempty"`
	Headers    http.Header `json:"headers,omitempty"`
	Body       string      `json:"body"`
}

// Execute builds and issues one request. The user input text is parsed as
// JSON; body-bearing methods (post/put/patch) send it as the request body,
// get/delete send it as query parameters. Exactly one of the two is
// populated; other methods send neither.
func Execute(ctx context.Context, client *http.Client, spec []byte, method, path, input string) (*Outcome, error) {
	if client == nil {
		client = http.DefaultClient
	}

	parsed := make(map[string]any)
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &parsed); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
		}
	}

	target := BaseURL(spec) + path
	lower := strings.ToLower(method)

	var body io.Reader
	switch lower {
	case "post", "put", "patch":
		data, err := json.Marshal(parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
		}
		body = bytes.NewReader(data)
	case "get", "delete":
		if len(parsed) > 0 {
			q := url.Values{}
			for k, v := range parsed {
				q.Set(k, queryValue(v))
			}
			target += "?" + q.Encode()
		}
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), target, body)
	if err != nil {
		return failedOutcome(target, err), nil
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return failedOutcome(target, err), nil
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return failedOutcome(target, err), nil
	}

	out := &Outcome{
		URL:        target,
		Status:     resp.Status,
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		Body:       string(respBody),
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		out.State = StateSuccess
	} else {
		out.State = StateFailed
	}
	return out, nil
}

// queryValue renders one parsed input value as a query parameter. Objects and
// arrays are re-encoded as JSON so structure survives the round trip.
func queryValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}

// failedOutcome renders a transport-level failure: no status is available, so
// the display falls back to the literal "Error" and the error's message text.
func failedOutcome(target string, err error) *Outcome {
	return &Outcome{
		State:  StateFailed,
		URL:    target,
		Status: "Error",
		Body:   err.Error(),
	}
}

// Runner holds the shared response-display slot for one docs session. Each
// send is tagged with the selection generation it was issued under; a
// response arriving after the selection changed is discarded rather than
// clobbering the display for the newly selected endpoint.
type Runner struct {
	client *http.Client

	mu     sync.Mutex
	gen    uint64
	path   string
	method string
	state  State
	latest *Outcome
}

// NewRunner creates a runner with a sensible default client.
func NewRunner(timeout time.Duration) *Runner {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Runner{
		client: &http.Client{Timeout: timeout},
		state:  StateIdle,
	}
}

// Select switches the runner to a new endpoint, resetting the display slot.
func (r *Runner) Select(path, method string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.path == path && r.method == method {
		return
	}
	r.gen++
	r.path = path
	r.method = method
	r.state = StateIdle
	r.latest = nil
}

// Send issues a request for the given endpoint, moving the selection there if
// it differs. The request always targets the caller's own path and method; the
// selection state only governs the shared display slot, which is updated when
// the selection has not changed mid-flight.
func (r *Runner) Send(ctx context.Context, spec []byte, path, method, input string) (*Outcome, error) {
	r.mu.Lock()
	if r.path != path || r.method != method {
		r.gen++
		r.path = path
		r.method = method
		r.latest = nil
	}
	gen := r.gen
	r.state = StateSending
	r.mu.Unlock()

	out, err := Execute(ctx, r.client, spec, method, path, input)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.gen != gen {
		// Selection changed mid-flight; stale result must not be displayed.
		return out, err
	}
	if err != nil {
		r.state = StateFailed
		return out, err
	}
	r.state = out.State
	r.latest = out
	return out, nil
}

// Latest returns the current state and the last displayable outcome.
func (r *Runner) Latest() (State, *Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.latest
}
