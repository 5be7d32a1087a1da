// Package remote talks to the restaurant API that owns canonical orders.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"tableside/internal/config"
	"tableside/internal/domain"
	apperrors "tableside/internal/errors"

	"github.com/imroc/req"
	"go.uber.org/zap"
)

const IdempotencyKeyHeader = "Idempotency-Key"

// envelope is the {success, data, message} wrapper every API response uses.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type Client struct {
	baseURL string
	token   string
	http    *req.Req
	logger  *zap.Logger
}

func NewClient(cfg config.RemoteConfig, logger *zap.Logger) *Client {
	r := req.New()
	if cfg.Timeout > 0 {
		r.SetTimeout(cfg.Timeout)
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		http:    r,
		logger:  logger,
	}
}

func (c *Client) headers() req.Header {
	h := req.Header{"Accept": "application/json"}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

// CreateOrder posts payload as a new order. idempotencyKey is sent so a
// replay of the same local order can be recognized by the server.
func (c *Client) CreateOrder(ctx context.Context, payload domain.OrderPayload, idempotencyKey string) (*domain.RemoteOrder, error) {
	h := c.headers()
	if idempotencyKey != "" {
		h[IdempotencyKeyHeader] = idempotencyKey
	}

	resp, err := c.http.Post(c.baseURL+"/orders", h, req.BodyJSON(&payload), ctx)
	if err != nil {
		return nil, apperrors.NewRemoteError(0, "creating remote order", err)
	}

	var order domain.RemoteOrder
	if err := c.decode(resp, "creating remote order", &order); err != nil {
		return nil, err
	}

	c.logger.Debug("remote order created", zap.String("orderId", order.ID), zap.String("idempotencyKey", idempotencyKey))
	return &order, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.RemoteOrder, error) {
	resp, err := c.http.Get(c.baseURL+"/orders", c.headers(), ctx)
	if err != nil {
		return nil, apperrors.NewRemoteError(0, "listing remote orders", err)
	}

	orders := []domain.RemoteOrder{}
	if err := c.decode(resp, "listing remote orders", &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []domain.RemoteOrder{}
	}

	return orders, nil
}

// Ping reports whether the API answers its health check.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.http.Get(c.baseURL+"/health", c.headers(), ctx)
	if err != nil {
		return apperrors.NewRemoteError(0, "checking remote health", err)
	}

	if status := resp.Response().StatusCode; status < 200 || status >= 300 {
		return apperrors.NewRemoteError(status, "checking remote health", nil)
	}
	return nil
}

func (c *Client) decode(resp *req.Resp, op string, out interface{}) error {
	status := resp.Response().StatusCode

	body, err := resp.ToBytes()
	if err != nil {
		return apperrors.NewRemoteError(0, op, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if status < 200 || status >= 300 {
		message := http.StatusText(status)
		if decodeErr == nil && env.Message != "" {
			message = env.Message
		}
		return apperrors.NewRemoteError(status, message, nil)
	}

	if decodeErr != nil {
		return fmt.Errorf("%s: decoding response: %w", op, decodeErr)
	}
	if !env.Success {
		return apperrors.NewRemoteError(http.StatusUnprocessableEntity, env.Message, nil)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decoding data: %w", op, err)
	}

	return nil
}
