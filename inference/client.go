package inference

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const requestTimeout = 10 * time.Second

// Client talks to the model server that hosts the MobileNetV2 classifier.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// NewClient connects to the model server and verifies it is serving. A
// failed warm-up check returns an error so the caller can run in degraded
// mode without an engine.
func NewClient(baseURL string) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: requestTimeout},
	}

	if err := c.ping(); err != nil {
		return nil, fmt.Errorf("model server unreachable: %w", err)
	}
	return c, nil
}

func (c *Client) ping() error {
	resp, err := c.httpc.Get(c.baseURL + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("model server health returned %d", resp.StatusCode)
	}
	return nil
}

type predictPayload struct {
	Image string `json:"image"`
}

type predictResult struct {
	Probabilities []float64 `json:"probabilities"`
	Error         string    `json:"error,omitempty"`
}

// Predict sends one image to the model server and returns the probability
// vector over the label catalog.
func (c *Client) Predict(ctx context.Context, image []byte) ([]float64, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	body, err := json.Marshal(predictPayload{
		Image: base64.StdEncoding.EncodeToString(image),
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodPost, c.baseURL+"/v1/predict", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result predictResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("invalid model server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		if result.Error != "" {
			return nil, fmt.Errorf("model server error: %s", result.Error)
		}
		return nil, fmt.Errorf("model server returned %d", resp.StatusCode)
	}

	return result.Probabilities, nil
}
