package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/voxstudio/vox-studio/internal/model"
)

// DefaultRetries is how many immediate retries follow a transient
// transport failure before the error surfaces to the caller.
const DefaultRetries = 2

// DefaultRequestTimeout bounds a single request. Long-running work is
// job-based, so individual calls stay short.
const DefaultRequestTimeout = 30 * time.Second

// healthTimeout keeps health probes from piling up behind a slow backend
const healthTimeout = 5 * time.Second

// ErrNoBaseURL is returned at startup when no backend URL is configured.
// There is no offline fallback: a misconfigured backend fails fast.
var ErrNoBaseURL = errors.New("backend base URL is not configured")

// StatusError is a non-2xx response from the backend, with the detail
// message the backend put in the body
type StatusError struct {
	Code   int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend error: %s (status %d)", e.Detail, e.Code)
	}
	return fmt.Sprintf("backend error: status %d", e.Code)
}

// Config configures the backend client
type Config struct {
	BaseURL        string
	RequestTimeout time.Duration // DefaultRequestTimeout if zero
	Retries        int           // DefaultRetries if negative
}

// Client talks to the speech backend over HTTP/JSON. Methods are safe to
// run on the background execution context; they take a context and block
// until the call finishes or the context is cancelled.
type Client struct {
	baseURL string
	http    *http.Client
	retries int
	logger  *slog.Logger
}

// NewClient validates the configuration and creates a client. An empty
// or unparsable base URL is a startup error, never a silent fallback.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid backend base URL %q", cfg.BaseURL)
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Retries < 0 {
		cfg.Retries = DefaultRetries
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: u.Scheme + "://" + u.Host,
		http:    &http.Client{Timeout: cfg.RequestTimeout},
		retries: cfg.Retries,
		logger:  logger,
	}, nil
}

// BaseURL returns the backend base URL the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Health probes the backend. A short timeout applies on top of ctx so a
// hung backend cannot stall the probe cycle.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()

	var out struct {
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/health", nil, &out); err != nil {
		return err
	}
	if out.Status != "healthy" {
		return fmt.Errorf("backend reported status %q", out.Status)
	}
	return nil
}

// StartClone starts a voice-clone job for a voice profile and returns
// the job id
func (c *Client) StartClone(ctx context.Context, voiceProfileID int) (string, error) {
	body := map[string]any{"voice_profile_id": voiceProfileID}
	var out struct {
		JobID string `json:"job_id"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/tts/clone", body, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// GenerateRequest describes a speech-generation job
type GenerateRequest struct {
	Text       string         `json:"text"`
	VoiceID    int            `json:"voice_id"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// StartGeneration starts a speech-generation job and returns the job id
func (c *Client) StartGeneration(ctx context.Context, req GenerateRequest) (string, error) {
	var out struct {
		JobID  string `json:"job_id"`
		Status string `json:"status"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/tts/generate", req, &out); err != nil {
		return "", err
	}
	return out.JobID, nil
}

// JobStatus fetches the status document for a job
func (c *Client) JobStatus(ctx context.Context, jobID string) (*model.JobStatusInfo, error) {
	var out model.JobStatusInfo
	if err := c.doJSON(ctx, http.MethodGet, "/api/tts/status/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	if out.JobID == "" {
		out.JobID = jobID
	}
	return &out, nil
}

// JobResult downloads the audio artifact of a completed job
func (c *Client) JobResult(ctx context.Context, jobID string) (*model.Artifact, error) {
	ref := "/api/tts/download/" + url.PathEscape(jobID)
	data, err := c.getBytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	return &model.Artifact{Ref: ref, Data: data}, nil
}

// CreateScript creates a script
func (c *Client) CreateScript(ctx context.Context, title, content string) (*model.Script, error) {
	body := map[string]string{"title": title, "content": content}
	var out model.Script
	if err := c.doJSON(ctx, http.MethodPost, "/api/scripts/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListScripts lists scripts, optionally filtered by a search term
func (c *Client) ListScripts(ctx context.Context, search string) ([]model.Script, error) {
	path := "/api/scripts/"
	if search != "" {
		path += "?search=" + url.QueryEscape(search)
	}
	var out struct {
		Data []model.Script `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetScript fetches one script
func (c *Client) GetScript(ctx context.Context, id int) (*model.Script, error) {
	var out model.Script
	if err := c.doJSON(ctx, http.MethodGet, "/api/scripts/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateScript updates a script's title and content
func (c *Client) UpdateScript(ctx context.Context, id int, title, content string) (*model.Script, error) {
	body := map[string]string{"title": title, "content": content}
	var out model.Script
	if err := c.doJSON(ctx, http.MethodPut, "/api/scripts/"+strconv.Itoa(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteScript deletes a script
func (c *Client) DeleteScript(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/scripts/"+strconv.Itoa(id), nil, nil)
}

// CreateVoice creates a voice profile from an uploaded audio file path
func (c *Client) CreateVoice(ctx context.Context, name, audioFilePath, description string) (*model.VoiceProfile, error) {
	body := map[string]any{
		"name":            name,
		"audio_file_path": audioFilePath,
		"description":     description,
	}
	var out model.VoiceProfile
	if err := c.doJSON(ctx, http.MethodPost, "/api/voices/", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListVoices lists voice profiles
func (c *Client) ListVoices(ctx context.Context) ([]model.VoiceProfile, error) {
	var out struct {
		Data []model.VoiceProfile `json:"data"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/voices/", nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// GetVoice fetches one voice profile
func (c *Client) GetVoice(ctx context.Context, id int) (*model.VoiceProfile, error) {
	var out model.VoiceProfile
	if err := c.doJSON(ctx, http.MethodGet, "/api/voices/"+strconv.Itoa(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateVoice updates a voice profile's name and description
func (c *Client) UpdateVoice(ctx context.Context, id int, name, description string) (*model.VoiceProfile, error) {
	body := map[string]string{"name": name, "description": description}
	var out model.VoiceProfile
	if err := c.doJSON(ctx, http.MethodPut, "/api/voices/"+strconv.Itoa(id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteVoice deletes a voice profile
func (c *Client) DeleteVoice(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/voices/"+strconv.Itoa(id), nil, nil)
}

// GenerateText asks the backend's LLM to draft script content
func (c *Client) GenerateText(ctx context.Context, prompt, scriptType, modelName string) (string, error) {
	body := map[string]any{"prompt": prompt, "script_type": scriptType}
	if modelName != "" {
		body["model"] = modelName
	}
	var out struct {
		Result string `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/llm/generate", body, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// ImproveText asks the backend's LLM to rework script content per
// the given instructions
func (c *Client) ImproveText(ctx context.Context, script, instructions string) (string, error) {
	body := map[string]any{"script": script, "instructions": instructions}
	var out struct {
		Result string `json:"result"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/api/llm/improve", body, &out); err != nil {
		return "", err
	}
	return out.Result, nil
}

// ListModels lists the LLM models the backend can use
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	var out struct {
		Models []string `json:"models"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/llm/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// doJSON performs a JSON request with transient-failure retries. The
// request body is marshalled once so each attempt gets a fresh reader.
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying backend request", "method", method, "path", path, "attempt", attempt+1, "error", lastErr)
		}
		lastErr = c.once(ctx, method, path, payload, out)
		if lastErr == nil || !isTransient(lastErr) || ctx.Err() != nil {
			return lastErr
		}
	}
	return lastErr
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return statusError(resp)
	}
	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response from %s: %w", path, err)
	}
	return nil
}

// getBytes fetches a raw payload (the audio artifact) with the same
// retry policy as doJSON
func (c *Client) getBytes(ctx context.Context, path string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if err != nil {
			return nil, fmt.Errorf("build request: %w", err)
		}
		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("GET %s: %w", path, err)
		} else if resp.StatusCode >= 400 {
			lastErr = statusError(resp)
			resp.Body.Close()
		} else {
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return nil, fmt.Errorf("read artifact: %w", err)
			}
			return data, nil
		}
		if !isTransient(lastErr) || ctx.Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// statusError extracts the backend's {"detail": ...} error body
func statusError(resp *http.Response) error {
	se := &StatusError{Code: resp.StatusCode}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		se.Detail = body.Detail
	}
	return se
}

// isTransient reports whether an error is worth an immediate retry:
// network-level failures and gateway errors, never application errors.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code == http.StatusBadGateway ||
			se.Code == http.StatusServiceUnavailable ||
			se.Code == http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var ue *url.Error
	return errors.As(err, &ue)
}
