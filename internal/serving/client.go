// Package serving talks to a TensorFlow Serving REST endpoint.
package serving

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/krishivue/agri-api/internal/model"
)

type Client struct {
	endpoint string
	width    int
	http     *http.Client
}

// New returns a client for a predict URL such as
// http://localhost:8501/v1/models/krishiVue:predict. width is the number of
// scores every prediction must carry.
func New(endpoint string, timeout time.Duration, width int) *Client {
	return &Client{
		endpoint: endpoint,
		width:    width,
		http:     &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances *model.Batch `json:"instances"`
}

type predictResponse struct {
	Predictions *[][]float32 `json:"predictions"`
}

// Invoke sends the batch and returns the first prediction vector.
func (c *Client) Invoke(ctx context.Context, batch *model.Batch) ([]float32, error) {
	body, err := json.Marshal(predictRequest{Instances: batch})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal instances: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", model.ErrTransport, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %v", model.ErrProtocol, err)
	}
	if out.Predictions == nil {
		return nil, fmt.Errorf("%w: response has no \"predictions\"", model.ErrProtocol)
	}
	if len(*out.Predictions) == 0 {
		return nil, fmt.Errorf("%w: \"predictions\" is empty", model.ErrProtocol)
	}

	scores := (*out.Predictions)[0]
	if len(scores) != c.width {
		return nil, fmt.Errorf("%w: prediction has %d scores, want %d", model.ErrProtocol, len(scores), c.width)
	}

	return scores, nil
}

type modelStatus struct {
	ModelVersionStatus []struct {
		Version string `json:"version"`
		State   string `json:"state"`
	} `json:"model_version_status"`
}

// StatusURL is the model status resource for the predict endpoint.
func (c *Client) StatusURL() string {
	return strings.TrimSuffix(c.endpoint, ":predict")
}

// WaitReady polls the model status until a version is AVAILABLE or
// maxWait elapses.
func (c *Client) WaitReady(ctx context.Context, maxWait time.Duration) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 250 * time.Millisecond
	b.MaxElapsedTime = maxWait

	return backoff.Retry(func() error {
		err := c.checkAvailable(ctx)
		if err != nil {
			slog.Debug("model server not ready", "url", c.StatusURL(), "err", err)
		}
		return err
	}, backoff.WithContext(b, ctx))
}

func (c *Client) checkAvailable(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.StatusURL(), nil)
	if err != nil {
		return backoff.Permanent(err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	var status modelStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return err
	}
	for _, v := range status.ModelVersionStatus {
		if v.State == "AVAILABLE" {
			return nil
		}
	}
	return errors.New("no available model version")
}
