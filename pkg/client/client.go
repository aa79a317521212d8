// Package client provides a Go client for the sourcify verification API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"
)

// Client is a sourcify API client
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// New creates a new sourcify client
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// File is one upload: a path label and its content. Archives are accepted and
// expanded server side.
type File struct {
	Path    string
	Content []byte
}

// MissingSource is a declared source the server could not resolve.
type MissingSource struct {
	Keccak256 string   `json:"keccak256"`
	URLs      []string `json:"urls,omitempty"`
}

// InvalidSource is a declared source whose inline content failed its hash check.
type InvalidSource struct {
	ExpectedHash   string `json:"expectedHash"`
	CalculatedHash string `json:"calculatedHash"`
}

// ContractResult is the per-contract verification result.
type ContractResult struct {
	Name            string                   `json:"name"`
	CompiledPath    string                   `json:"compiledPath"`
	CompilerVersion string                   `json:"compilerVersion,omitempty"`
	Valid           bool                     `json:"valid"`
	Sources         []string                 `json:"sources"`
	Missing         map[string]MissingSource `json:"missing,omitempty"`
	Invalid         map[string]InvalidSource `json:"invalid,omitempty"`
	PathMap         map[string]string        `json:"pathMap,omitempty"`
}

// VerifyResponse is the server's response to a verification upload.
type VerifyResponse struct {
	Contracts   []ContractResult `json:"contracts"`
	UnusedFiles []string         `json:"unusedFiles,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Verify uploads the given files and returns the server's verification
// results: one entry per metadata document found.
func (c *Client) Verify(ctx context.Context, files []File) (*VerifyResponse, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Path)
		if err != nil {
			return nil, fmt.Errorf("building upload: %w", err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("building upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/verify", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		if err := json.Unmarshal(data, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("server: %s (%s)", errResp.Error.Message, errResp.Error.Code)
		}
		return nil, fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var result VerifyResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	return &result, nil
}
