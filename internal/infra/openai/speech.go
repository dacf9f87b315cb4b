package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shop-assistant/internal/infra"
)

// SpeechClient synthesizes reply audio. Output is always mp3 so the API
// response can hand the browser a single known format.
type SpeechClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	voice      string
}

func NewSpeechClient(apiKey, model, voice string) *SpeechClient {
	return NewSpeechClientWithURL(apiKey, model, voice, "https://api.openai.com/v1")
}

func NewSpeechClientWithURL(apiKey, model, voice, baseURL string) *SpeechClient {
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "nova"
	}
	return &SpeechClient{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		model:      model,
		voice:      voice,
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	bodyBytes, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	var audio []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(bodyBytes))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("speech API error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("speech API error %d: %s", resp.StatusCode, string(respBody))
		}

		audio, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}

		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return audio, nil
}
