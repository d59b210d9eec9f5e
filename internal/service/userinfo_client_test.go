package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	commoncfg "ubio-intake/common/config"
	"ubio-intake/internal/domain"
	"ubio-intake/internal/service"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClient(url string) *service.UserInfoClient {
	return service.NewUserInfoClient(commoncfg.RemoteConfig{
		BaseURL:    url,
		Timeout:    2 * time.Second,
		RetryCount: 0,
	}, zap.NewNop())
}

func TestUserInfoClient_ListAndCreate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/userinfo", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodGet:
			_, _ = w.Write([]byte(`[{"id":"1","name":"Kim"},{"id":"2","name":"Lee"}]`))
		case http.MethodPost:
			var rec domain.Record
			require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
			rec.ID = "new-id"
			_ = json.NewEncoder(w).Encode(rec)
		}
	}))
	defer srv.Close()

	c := newClient(srv.URL)

	list, err := c.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Lee", list[1].Name)

	stored, err := c.Create(context.Background(), &domain.Record{Name: "Park"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", stored.ID)
	assert.Equal(t, "Park", stored.Name)
}

func TestUserInfoClient_ErrorMapping(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/userinfo/missing":
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message":"record not found"}`))
		case "/api/userinfo/bad":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message":"invalid body"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message":"db down"}`))
		}
	}))
	defer srv.Close()

	c := newClient(srv.URL)
	ctx := context.Background()

	err := c.Delete(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrRecordNotFound)

	_, err = c.Update(ctx, "bad", &domain.Record{})
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "invalid body")

	_, err = c.List(ctx)
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	assert.Contains(t, err.Error(), "db down")
}

func TestUserInfoClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := newClient(url).List(context.Background())
	assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
}

func TestUserInfoClient_BreakerOpensAfterFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := service.NewUserInfoClient(commoncfg.RemoteConfig{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		BreakerFailures: 2,
		BreakerCooldown: time.Minute,
	}, zap.NewNop())

	ctx := context.Background()
	for i := 0; i < 4; i++ {
		_, err := c.List(ctx)
		assert.ErrorIs(t, err, domain.ErrRemoteUnavailable)
	}
	assert.Equal(t, int32(2), hits.Load())

	_, err := c.List(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
}

func TestUserInfoClient_NotFoundDoesNotTripBreaker(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "gone"})
	}))
	defer srv.Close()

	c := service.NewUserInfoClient(commoncfg.RemoteConfig{
		BaseURL:         srv.URL,
		Timeout:         2 * time.Second,
		BreakerFailures: 1,
		BreakerCooldown: time.Minute,
	}, zap.NewNop())

	for i := 0; i < 3; i++ {
		err := c.Delete(context.Background(), "x")
		assert.ErrorIs(t, err, domain.ErrRecordNotFound)
	}
	assert.Equal(t, int32(3), hits.Load())
}
