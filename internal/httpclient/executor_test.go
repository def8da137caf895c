package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Checker-Finance/anthic-adapter/internal/apperr"
	"github.com/Checker-Finance/anthic-adapter/internal/rate"
)

func newExec(retryMax int, client *http.Client) *Executor {
	return New(zap.NewNop(), nil, client, retryMax, "test", nil, nil)
}

func get(url string) Request {
	return Request{Method: http.MethodGet, URL: url, Endpoint: "test", RateKey: "k"}
}

// countingHandler fails the first failCount calls with failStatus, then returns 200 with body.
func countingHandler(failCount int, failStatus int, successBody []byte) (http.Handler, *atomic.Int32) {
	var n atomic.Int32
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if int(n.Add(1)) <= failCount {
			w.WriteHeader(failStatus)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(successBody)
	}), &n
}

func TestDoJSON_SuccessFirstAttempt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-api-key"))
		_ = json.NewEncoder(w).Encode(map[string]string{"result": "ok"})
	}))
	defer srv.Close()

	req := get(srv.URL)
	req.Header = http.Header{"X-Api-Key": []string{"secret"}}

	var out map[string]string
	require.NoError(t, newExec(2, srv.Client()).DoJSON(context.Background(), req, &out))
	assert.Equal(t, "ok", out["result"])
}

func TestDoJSON_Retries5xxThenSucceeds(t *testing.T) {
	h, count := countingHandler(2, http.StatusBadGateway, []byte(`{"v":1}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	var out map[string]int
	require.NoError(t, newExec(2, srv.Client()).DoJSON(context.Background(), get(srv.URL), &out))
	assert.EqualValues(t, 3, count.Load())
	assert.Equal(t, 1, out["v"])
}

func TestDoJSON_BodyResentOnRetry(t *testing.T) {
	var mu sync.Mutex
	var received []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		received = append(received, string(b))
		first := len(received) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("{}"))
	}))
	defer srv.Close()

	req := Request{Method: http.MethodPost, URL: srv.URL, Body: []byte(`{"value":"hello"}`), Endpoint: "post"}
	require.NoError(t, newExec(1, srv.Client()).DoJSON(context.Background(), req, nil))
	require.Len(t, received, 2)
	assert.JSONEq(t, `{"value":"hello"}`, received[1])
}

func TestDoJSON_4xxNotRetried(t *testing.T) {
	h, count := countingHandler(10, http.StatusUnauthorized, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	err := newExec(2, srv.Client()).DoJSON(context.Background(), get(srv.URL), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.EqualValues(t, 1, count.Load())
}

func TestDoJSON_ExhaustAllRetries(t *testing.T) {
	h, count := countingHandler(10, http.StatusInternalServerError, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	err := newExec(2, srv.Client()).DoJSON(context.Background(), get(srv.URL), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Contains(t, err.Error(), "failed after 3 attempts")
	assert.EqualValues(t, 3, count.Load())
}

func TestDoJSON_ZeroRetries(t *testing.T) {
	h, count := countingHandler(10, http.StatusInternalServerError, nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	require.Error(t, newExec(0, srv.Client()).DoJSON(context.Background(), get(srv.URL), nil))
	assert.EqualValues(t, 1, count.Load())
}

func TestDoJSON_CustomErrorHandler(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"INVALID"}`))
	}))
	defer srv.Close()

	exec := New(zap.NewNop(), nil, srv.Client(), 2, "test", nil, func(status int, body []byte) error {
		return fmt.Errorf("venue %d: %s", status, body)
	})
	err := exec.DoJSON(context.Background(), get(srv.URL), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Contains(t, err.Error(), "422")
	assert.Contains(t, err.Error(), "INVALID")
}

func TestDoJSON_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not-json"))
	}))
	defer srv.Close()

	var out map[string]string
	err := newExec(0, srv.Client()).DoJSON(context.Background(), get(srv.URL), &out)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
	assert.Contains(t, err.Error(), "decode failed")
}

func TestDoJSON_ObserverSeesEveryAttempt(t *testing.T) {
	h, _ := countingHandler(1, http.StatusServiceUnavailable, []byte(`{}`))
	srv := httptest.NewServer(h)
	defer srv.Close()

	var statuses []int
	exec := New(zap.NewNop(), nil, srv.Client(), 1, "test", func(endpoint string, status int, _ time.Duration) {
		assert.Equal(t, "test", endpoint)
		statuses = append(statuses, status)
	}, nil)
	require.NoError(t, exec.DoJSON(context.Background(), get(srv.URL), nil))
	assert.Equal(t, []int{http.StatusServiceUnavailable, http.StatusOK}, statuses)
}

func TestDoJSON_RateLimitWaitCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	mgr := rate.NewManager(rate.Config{RequestsPerSecond: 0.001, Burst: 1})
	exec := New(zap.NewNop(), mgr, srv.Client(), 0, "test", nil, nil)
	require.NoError(t, exec.DoJSON(context.Background(), get(srv.URL), nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := exec.DoJSON(ctx, get(srv.URL), nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrUpstream))
}
