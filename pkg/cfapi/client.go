// Copyright 2025 ZapFS Authors
// SPDX-License-Identifier: Apache-2.0

// Package cfapi is the small slice of the Cloudflare v4 API zapctl needs.
package cfapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/LeeDigitalWorks/zapctl/pkg/logger"
)

// DefaultBaseURL is the public API origin.
const DefaultBaseURL = "https://api.cloudflare.com"

// ErrTokenInactive is returned when a token verifies but is not active.
var ErrTokenInactive = errors.New("cfapi: token is not active")

// Client calls the Cloudflare API.
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// TokenInfo is the result of a token verification.
type TokenInfo struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	ExpiresOn string `json:"expires_on,omitempty"`
}

// Message is one entry of the envelope errors or messages list.
type Message struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type envelope[T any] struct {
	Success  bool      `json:"success"`
	Errors   []Message `json:"errors"`
	Messages []Message `json:"messages"`
	Result   T         `json:"result"`
}

// APIError is a failed envelope or a non 2xx status.
type APIError struct {
	Status int
	Errors []Message
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("cfapi: status %d", e.Status)
	}
	msgs := make([]string, len(e.Errors))
	for i, m := range e.Errors {
		msgs[i] = fmt.Sprintf("%d %s", m.Code, m.Message)
	}
	return fmt.Sprintf("cfapi: status %d: %s", e.Status, strings.Join(msgs, "; "))
}

// VerifyToken returns the id of apiToken, which is the R2 access key id.
func (c *Client) VerifyToken(ctx context.Context, apiToken string) (*TokenInfo, error) {
	var info TokenInfo
	if err := c.get(ctx, "/client/v4/user/tokens/verify", apiToken, &info); err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if info.Status != "active" {
		return nil, fmt.Errorf("%w: %s", ErrTokenInactive, info.Status)
	}
	logger.Ctx(ctx).Debug().Str("token_id", info.ID).Msg("token verified")
	return &info, nil
}

func (c *Client) get(ctx context.Context, path, apiToken string, result any) error {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(base, "/")+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+apiToken)
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	env := envelope[json.RawMessage]{}
	if err := json.Unmarshal(body, &env); err != nil {
		if resp.StatusCode/100 != 2 {
			return &APIError{Status: resp.StatusCode}
		}
		return fmt.Errorf("decode response: %w", err)
	}
	if resp.StatusCode/100 != 2 || !env.Success {
		return &APIError{Status: resp.StatusCode, Errors: env.Errors}
	}
	if err := json.Unmarshal(env.Result, result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}
