// Package onlyoffice talks to the conversion API of an OnlyOffice Document
// Server.
package onlyoffice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"pdf-suite-server/internal/domain"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

const convertPath = "/ConvertService.ashx"

type convertRequest struct {
	Async      bool   `json:"async"`
	FileType   string `json:"filetype"`
	OutputType string `json:"outputtype"`
	Title      string `json:"title"`
	Key        string `json:"key"`
	Base64     string `json:"base64"`
}

type convertResponse struct {
	EndConvert bool   `json:"endConvert"`
	FileURL    string `json:"fileUrl"`
	Percent    int    `json:"percent"`
	Error      int    `json:"error"`
}

// Client implements domain.Converter. At most the configured number of
// conversions run at once; further calls wait for a slot within their
// timeout.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	slots      *semaphore.Weighted
	logger     domain.Logger
}

// NewClient creates a conversion client for the service at baseURL.
func NewClient(baseURL string, timeout time.Duration, concurrency int64, logger domain.Logger) *Client {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{},
		timeout:    timeout,
		slots:      semaphore.NewWeighted(concurrency),
		logger:     logger,
	}
}

// PDFToDocx converts pdf synchronously and downloads the result.
func (c *Client) PDFToDocx(ctx context.Context, title string, pdf []byte) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.slots.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("no conversion slot became free: %w", err)
	}
	defer c.slots.Release(1)

	key := uuid.NewString()
	start := time.Now()
	c.logger.Info("Conversion started", "title", title, "key", key, "bytes", len(pdf))

	body, err := json.Marshal(convertRequest{
		Async:      false,
		FileType:   "pdf",
		OutputType: "docx",
		Title:      title,
		Key:        key,
		Base64:     base64.StdEncoding.EncodeToString(pdf),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode conversion request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+convertPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build conversion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	raw, err := c.do(req)
	if err != nil {
		return nil, err
	}

	var result convertResponse
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("unreadable conversion response: %w", err)
	}
	if !result.EndConvert || result.FileURL == "" {
		c.logger.Warn("Conversion not finished", "key", key, "percent", result.Percent, "code", result.Error)
		return nil, &domain.UnfinishedConversionError{Details: json.RawMessage(raw)}
	}

	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, result.FileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid converted file url: %w", err)
	}
	docx, err := c.do(getReq)
	if err != nil {
		return nil, err
	}

	c.logger.Info("Conversion finished", "key", key, "bytes", len(docx), "duration_ms", time.Since(start).Milliseconds())
	return docx, nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read response: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%s %s: status %d", req.Method, req.URL.Path, resp.StatusCode)
	}
	return data, nil
}
