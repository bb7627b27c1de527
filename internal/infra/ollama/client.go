// Package ollama is the vision-language backend client. A single Client is
// constructed at startup and injected into the pipeline; there is no
// package-level instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hasbegun/argus/internal/domain/entity"
	"go.uber.org/zap"
)

const defaultTimeout = 120 * time.Second

type Client struct {
	httpClient *http.Client
	host       string
	model      string
	apiKey     string
	logger     *zap.Logger
}

type ClientConfig struct {
	Host    string
	Model   string
	APIKey  string
	Timeout time.Duration
}

func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		host:       strings.TrimSuffix(cfg.Host, "/"),
		model:      cfg.Model,
		apiKey:     cfg.APIKey,
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Images   []string      `json:"images,omitempty"`
	Stream   bool          `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// AnalyzeFrame asks the backend whether objectDescription appears in the
// frame at framePath. The raw free-text answer is returned for parsing.
func (c *Client) AnalyzeFrame(ctx context.Context, framePath string, objectDescription string) (string, error) {
	imageData, err := os.ReadFile(framePath)
	if err != nil {
		return "", &entity.InferenceError{Op: "read frame " + framePath, Err: err}
	}

	req := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: detectionPrompt(objectDescription)},
		},
		Images: []string{base64.StdEncoding.EncodeToString(imageData)},
		Stream: false,
	}
	return c.chat(ctx, req)
}

// Chat sends a plain prompt with no image attached.
func (c *Client) Chat(ctx context.Context, prompt string) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
		Stream:   false,
	}
	return c.chat(ctx, req)
}

func (c *Client) chat(ctx context.Context, req chatRequest) (string, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return "", &entity.InferenceError{Op: "encode request", Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.host+"/api/chat", bytes.NewReader(payload))
	if err != nil {
		return "", &entity.InferenceError{Op: "build request", Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", &entity.InferenceError{Op: "call backend", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &entity.InferenceError{
			Op:  "call backend",
			Err: fmt.Errorf("status %d (is model %q pulled?)", resp.StatusCode, c.model),
		}
	}

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", &entity.InferenceError{Op: "decode response", Err: err}
	}

	c.logger.Debug("backend call completed",
		zap.String("model", c.model),
		zap.Duration("elapsed", time.Since(start)),
	)
	return decoded.Message.Content, nil
}
