package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/donaldgifford/deal-finder/internal/api/handlers"
	"github.com/donaldgifford/deal-finder/internal/engine"
)

// maxEventLine bounds one stream line; the completed event carries the
// ranked listings and can be large.
const maxEventLine = 4 << 20

// Invoke runs a search and waits for the ranked result.
func (c *Client) Invoke(ctx context.Context, req *handlers.RunRequest) (*handlers.RunResponse, error) {
	var resp handlers.RunResponse
	if err := c.post(ctx, "/api/v1/invoke", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream runs a search and calls fn for every progress event in order. It
// returns after the terminal event, when fn returns an error, or when the
// server closes the stream. A failed run is reported as an error after fn
// has seen the failed event.
func (c *Client) Stream(ctx context.Context, req *handlers.RunRequest, fn func(handlers.StreamEvent) error) error {
	resp, err := c.send(ctx, http.MethodPost, "/api/v1/stream", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), maxEventLine)

	for sc.Scan() {
		line := sc.Bytes()
		if len(line) == 0 {
			continue
		}

		var e handlers.StreamEvent
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("decoding stream event: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}

		switch e.Stage {
		case engine.StageCompleted:
			return nil
		case engine.StageFailed:
			return fmt.Errorf("run %s failed (%s): %s", e.RunID, e.Reason, e.Message)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("reading stream: %w", err)
	}

	return fmt.Errorf("stream ended before the run finished")
}

// Health reports the server readiness status.
func (c *Client) Health(ctx context.Context) (*handlers.StatusResponse, error) {
	var resp handlers.StatusResponse
	if err := c.get(ctx, "/readyz", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
