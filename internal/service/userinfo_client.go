package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	commoncfg "ubio-intake/common/config"
	"ubio-intake/internal/domain"

	"github.com/go-resty/resty/v2"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// RemoteRecords the remote records endpoint as seen by the persistence adapter
type RemoteRecords interface {
	List(ctx context.Context) ([]domain.Record, error)
	Create(ctx context.Context, rec *domain.Record) (*domain.Record, error)
	Update(ctx context.Context, id string, rec *domain.Record) (*domain.Record, error)
	Delete(ctx context.Context, id string) error
}

// remoteErrorBody error payload of the records endpoint
type remoteErrorBody struct {
	Message string `json:"message"`
}

// errServerStatus marks a 5xx answer as a breaker failure
var errServerStatus = errors.New("records endpoint server error")

// UserInfoClient resty client for /api/userinfo
type UserInfoClient struct {
	httpClient *resty.Client
	breaker    *gobreaker.CircuitBreaker[*resty.Response]
	logger     *zap.Logger
}

var _ RemoteRecords = (*UserInfoClient)(nil)

// NewUserInfoClient retries transport failures only; a 4xx/5xx answer is final.
func NewUserInfoClient(cfg commoncfg.RemoteConfig, logger *zap.Logger) *UserInfoClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	c := &UserInfoClient{
		httpClient: client,
		logger:     logger,
	}
	if cfg.BreakerFailures > 0 {
		failures := uint32(cfg.BreakerFailures)
		c.breaker = gobreaker.NewCircuitBreaker[*resty.Response](gobreaker.Settings{
			Name:        "userinfo",
			MaxRequests: 1,
			Timeout:     cfg.BreakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= failures
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("records endpoint circuit changed",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		})
	}
	return c
}

// send runs one request through the circuit breaker and maps the outcome
func (c *UserInfoClient) send(op string, do func() (*resty.Response, error)) error {
	if c.breaker == nil {
		resp, err := do()
		return c.check(op, resp, err)
	}
	resp, err := c.breaker.Execute(func() (*resty.Response, error) {
		resp, err := do()
		if err == nil && resp.StatusCode() >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, err
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return fmt.Errorf("%w: %s: %w", domain.ErrRemoteUnavailable, op, err)
	case errors.Is(err, errServerStatus):
		err = nil
	}
	return c.check(op, resp, err)
}

// List GET /api/userinfo
func (c *UserInfoClient) List(ctx context.Context) ([]domain.Record, error) {
	var records []domain.Record
	err := c.send("list", func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetResult(&records).
			SetError(&remoteErrorBody{}).
			Get("/api/userinfo")
	})
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}

// Create POST /api/userinfo; returns the stored record with its assigned id
func (c *UserInfoClient) Create(ctx context.Context, rec *domain.Record) (*domain.Record, error) {
	var stored domain.Record
	err := c.send("create", func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetBody(rec).
			SetResult(&stored).
			SetError(&remoteErrorBody{}).
			Post("/api/userinfo")
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Update PUT /api/userinfo/{id}
func (c *UserInfoClient) Update(ctx context.Context, id string, rec *domain.Record) (*domain.Record, error) {
	var stored domain.Record
	err := c.send("update", func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetPathParam("id", id).
			SetBody(rec).
			SetResult(&stored).
			SetError(&remoteErrorBody{}).
			Put("/api/userinfo/{id}")
	})
	if err != nil {
		return nil, err
	}
	return &stored, nil
}

// Delete DELETE /api/userinfo/{id}
func (c *UserInfoClient) Delete(ctx context.Context, id string) error {
	return c.send("delete", func() (*resty.Response, error) {
		return c.httpClient.R().
			SetContext(ctx).
			SetPathParam("id", id).
			SetError(&remoteErrorBody{}).
			Delete("/api/userinfo/{id}")
	})
}

// check maps transport failures and 5xx to ErrRemoteUnavailable, 404 to ErrRecordNotFound
func (c *UserInfoClient) check(op string, resp *resty.Response, err error) error {
	if err != nil {
		c.logger.Warn("records endpoint call failed", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%w: %s: %v", domain.ErrRemoteUnavailable, op, err)
	}
	if !resp.IsError() {
		return nil
	}

	msg := resp.Status()
	if body, ok := resp.Error().(*remoteErrorBody); ok && body.Message != "" {
		msg = body.Message
	}
	c.logger.Warn("records endpoint returned error",
		zap.String("op", op),
		zap.Int("status_code", resp.StatusCode()),
		zap.String("message", msg),
	)

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrRecordNotFound, msg)
	case resp.StatusCode() >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s: %s", domain.ErrRemoteUnavailable, op, msg)
	}
	return fmt.Errorf("records endpoint rejected %s (status %d): %s", op, resp.StatusCode(), msg)
}
