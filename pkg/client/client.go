// Package client is a typed HTTP client for the trade journal API, intended
// for UI layers and scripts. It mirrors the server's resource routes and
// never embeds journal logic of its own.
package client

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"trade-journal-go/internal/analytics"
	"trade-journal-go/internal/models"
)

// Client talks to a trade journal server.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
	token   string
}

// Option customizes a Client.
type Option func(*Client)

// WithToken attaches a bearer credential to every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) { c.limiter = rate.NewLimiter(rate.Limit(rps), burst) }
}

// New creates a client for the given base URL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    resty.New().SetBaseURL(baseURL),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiError struct {
	Message string `json:"error"`
}

func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req := c.http.R().SetContext(ctx).SetError(&apiError{})
	if c.token != "" {
		req.SetAuthToken(c.token)
	}
	return req, nil
}

func responseError(resp *resty.Response) error {
	if !resp.IsError() {
		return nil
	}
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Message != "" {
		return fmt.Errorf("api error (status %d): %s", resp.StatusCode(), apiErr.Message)
	}
	return fmt.Errorf("api error: status %d", resp.StatusCode())
}

// ListTrades returns the full journal.
func (c *Client) ListTrades(ctx context.Context) ([]models.Trade, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var trades []models.Trade
	resp, err := req.SetResult(&trades).Get("/trades")
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	if err := responseError(resp); err != nil {
		return nil, err
	}
	return trades, nil
}

// CreateTrade records a new trade and returns it with its assigned id.
func (c *Client) CreateTrade(ctx context.Context, trade models.Trade) (models.Trade, error) {
	req, err := c.request(ctx)
	if err != nil {
		return models.Trade{}, err
	}
	var created models.Trade
	resp, err := req.SetBody(trade).SetResult(&created).Post("/trades")
	if err != nil {
		return models.Trade{}, fmt.Errorf("failed to create trade: %w", err)
	}
	if err := responseError(resp); err != nil {
		return models.Trade{}, err
	}
	return created, nil
}

// UpdateTrade applies a partial update to the trade with the given id.
func (c *Client) UpdateTrade(ctx context.Context, id int64, patch map[string]any) (models.Trade, error) {
	req, err := c.request(ctx)
	if err != nil {
		return models.Trade{}, err
	}
	var updated models.Trade
	resp, err := req.SetBody(patch).SetResult(&updated).Put(fmt.Sprintf("/trades/%d", id))
	if err != nil {
		return models.Trade{}, fmt.Errorf("failed to update trade %d: %w", id, err)
	}
	if err := responseError(resp); err != nil {
		return models.Trade{}, err
	}
	return updated, nil
}

// DeleteTrade removes the trade with the given id and returns the removed
// record.
func (c *Client) DeleteTrade(ctx context.Context, id int64) (models.Trade, error) {
	req, err := c.request(ctx)
	if err != nil {
		return models.Trade{}, err
	}
	var removed models.Trade
	resp, err := req.SetResult(&removed).Delete(fmt.Sprintf("/trades/%d", id))
	if err != nil {
		return models.Trade{}, fmt.Errorf("failed to delete trade %d: %w", id, err)
	}
	if err := responseError(resp); err != nil {
		return models.Trade{}, err
	}
	return removed, nil
}

// StrategyMetrics returns the per-tag performance summary.
func (c *Client) StrategyMetrics(ctx context.Context) (map[string]analytics.TagMetrics, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var metrics map[string]analytics.TagMetrics
	resp, err := req.SetResult(&metrics).Get("/analytics/summary")
	if err != nil {
		return nil, fmt.Errorf("failed to load strategy metrics: %w", err)
	}
	if err := responseError(resp); err != nil {
		return nil, err
	}
	return metrics, nil
}
