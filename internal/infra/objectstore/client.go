// Package objectstore talks to an S3-style HTTP object storage service
// using HMAC-SHA256 request signing. The assistant uses it to stage
// audio for the transcription service.
package objectstore

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shop-assistant/internal/infra"
)

type Client struct {
	accessKey  string
	secret     string
	baseURL    string
	bucket     string
	httpClient *http.Client
}

func NewClient(accessKey, secret, region, bucket string) *Client {
	baseURL := "https://storage.us-east-1.example-cloud.com"
	if region != "" {
		baseURL = fmt.Sprintf("https://storage.%s.example-cloud.com", region)
	}
	return NewClientWithURL(accessKey, secret, baseURL, bucket)
}

func NewClientWithURL(accessKey, secret, baseURL, bucket string) *Client {
	return &Client{
		accessKey:  accessKey,
		secret:     secret,
		baseURL:    baseURL,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Put uploads an object and returns its URL.
func (c *Client) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	path := c.objectPath(key)

	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}

		c.signRequest(req, http.MethodPut, path, data)
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			respBody, _ := io.ReadAll(resp.Body)
			if infra.IsRetryableHTTPStatus(resp.StatusCode) {
				return fmt.Errorf("storage error %d: %s (retryable)", resp.StatusCode, string(respBody))
			}
			return fmt.Errorf("storage error %d: %s", resp.StatusCode, string(respBody))
		}

		return nil
	})

	if retryErr != nil {
		return "", retryErr
	}

	return c.baseURL + path, nil
}

// Delete removes an object. Deleting a missing object is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	path := c.objectPath(key)

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	c.signRequest(req, http.MethodDelete, path, nil)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusNotFound {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage error %d: %s", resp.StatusCode, string(respBody))
	}

	return nil
}

func (c *Client) objectPath(key string) string {
	return fmt.Sprintf("/v1/buckets/%s/objects/%s", c.bucket, key)
}

func (c *Client) signRequest(req *http.Request, method, path string, body []byte) {
	timestamp := fmt.Sprintf("%d", time.Now().UnixMilli())

	req.Header.Set("access_key", c.accessKey)
	req.Header.Set("t", timestamp)
	req.Header.Set("sign", c.calcSign(timestamp, method, path, body))
	req.Header.Set("sign_method", "HMAC-SHA256")
}

func (c *Client) calcSign(timestamp, method, path string, body []byte) string {
	str := c.accessKey + timestamp + c.stringToSign(method, path, body)
	h := hmac.New(sha256.New, []byte(c.secret))
	h.Write([]byte(str))
	return strings.ToUpper(hex.EncodeToString(h.Sum(nil)))
}

func (c *Client) stringToSign(method, path string, body []byte) string {
	bodyHash := sha256.Sum256(body)
	return method + "\n" + hex.EncodeToString(bodyHash[:]) + "\n\n" + path
}
