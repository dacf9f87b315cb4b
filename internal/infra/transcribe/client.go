// Package transcribe implements speech-to-text against a job-based
// transcription HTTP API: the audio is staged in object storage, a job
// is started pointing at it, and the job is polled until the transcript
// document is ready.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"shop-assistant/internal/application"
	"shop-assistant/internal/infra"
)

const defaultPollInterval = 2 * time.Second

type Client struct {
	apiKey       string
	httpClient   *http.Client
	baseURL      string
	store        application.ObjectStore
	language     string
	pollInterval time.Duration
}

func NewClient(apiKey, region, language string, store application.ObjectStore) *Client {
	baseURL := "https://transcribe.us-east-1.example-cloud.com"
	if region != "" {
		baseURL = fmt.Sprintf("https://transcribe.%s.example-cloud.com", region)
	}
	return NewClientWithURL(apiKey, baseURL, language, store)
}

func NewClientWithURL(apiKey, baseURL, language string, store application.ObjectStore) *Client {
	if language == "" {
		language = "es-ES"
	}
	return &Client{
		apiKey:       apiKey,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		store:        store,
		language:     language,
		pollInterval: defaultPollInterval,
	}
}

// WithPollInterval overrides how often a running job is polled.
func (c *Client) WithPollInterval(d time.Duration) *Client {
	c.pollInterval = d
	return c
}

type jobRequest struct {
	JobName      string `json:"job_name"`
	LanguageCode string `json:"language_code"`
	MediaFormat  string `json:"media_format"`
	MediaFileURI string `json:"media_file_uri"`
}

type jobStatus struct {
	Status        string `json:"status"`
	FailureReason string `json:"failure_reason"`
	TranscriptURI string `json:"transcript_file_uri"`
}

type transcriptDoc struct {
	Results struct {
		Transcripts []struct {
			Transcript string `json:"transcript"`
		} `json:"transcripts"`
	} `json:"results"`
}

// Transcribe stages the audio, runs a transcription job and returns the
// recognized text. The staged object is removed afterwards on a best
// effort basis.
func (c *Client) Transcribe(ctx context.Context, audio []byte, format string) (string, error) {
	if format == "" {
		format = "webm"
	}

	key := fmt.Sprintf("transcribe-input/%s.%s", uuid.NewString(), format)
	mediaURI, err := c.store.Put(ctx, key, audio, "audio/"+format)
	if err != nil {
		return "", fmt.Errorf("staging audio: %w", err)
	}
	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = c.store.Delete(cleanupCtx, key)
	}()

	jobName := "assist-" + uuid.NewString()
	if err := c.startJob(ctx, jobName, mediaURI, format); err != nil {
		return "", fmt.Errorf("starting job: %w", err)
	}

	transcriptURI, err := c.waitForJob(ctx, jobName)
	if err != nil {
		return "", err
	}

	return c.fetchTranscript(ctx, transcriptURI)
}

func (c *Client) startJob(ctx context.Context, jobName, mediaURI, format string) error {
	body, err := json.Marshal(jobRequest{
		JobName:      jobName,
		LanguageCode: c.language,
		MediaFormat:  format,
		MediaFileURI: mediaURI,
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	return infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/jobs", bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("transcribe API error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("transcribe API error %d: %s", resp.StatusCode, string(respBody))
		}

		return nil
	})
}

func (c *Client) waitForJob(ctx context.Context, jobName string) (string, error) {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()

	for {
		status, err := c.getJob(ctx, jobName)
		if err != nil {
			return "", fmt.Errorf("polling job: %w", err)
		}

		switch status.Status {
		case "COMPLETED":
			return status.TranscriptURI, nil
		case "FAILED":
			return "", fmt.Errorf("transcription job failed: %s", status.FailureReason)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

func (c *Client) getJob(ctx context.Context, jobName string) (*jobStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/jobs/"+jobName, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("transcribe API error %d: %s", resp.StatusCode, string(respBody))
	}

	var status jobStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decoding status: %w", err)
	}

	return &status, nil
}

func (c *Client) fetchTranscript(ctx context.Context, uri string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching transcript: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("transcript fetch error %d: %s", resp.StatusCode, string(respBody))
	}

	var doc transcriptDoc
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return "", fmt.Errorf("decoding transcript: %w", err)
	}

	if len(doc.Results.Transcripts) == 0 {
		return "", fmt.Errorf("transcript document has no transcripts")
	}

	return doc.Results.Transcripts[0].Transcript, nil
}
