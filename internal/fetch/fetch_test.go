package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/botapigen/internal/document"
)

const page = `<!DOCTYPE html><html><head><title>Bot API</title></head><body>
<div id="dev_page_wrap"><div id="dev_page_content"><h3>Recent changes</h3><p>Bot API <strong>7.0</strong> &amp; more</p></div></div>
</body></html>`

func stubSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var waits []time.Duration
	orig := sleepFn
	sleepFn = func(d time.Duration) { waits = append(waits, d) }
	t.Cleanup(func() { sleepFn = orig })
	return &waits
}

func TestFetchRetriesOn5xx(t *testing.T) {
	waits := stubSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hit, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "botapigen", r.UserAgent())
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	body, err := (&Client{URL: srv.URL, MaxRetries: 3}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, page, string(body))
	assert.EqualValues(t, 2, atomic.LoadInt32(&hit))
	assert.Equal(t, []time.Duration{time.Second}, *waits)
}

func TestFetchHonoursRetryAfter(t *testing.T) {
	waits := stubSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hit, 1) == 1 {
			w.Header().Set("Retry-After", "7")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	_, err := (&Client{URL: srv.URL, MaxRetries: 1}).Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{7 * time.Second}, *waits)
}

func TestFetchGivesUp(t *testing.T) {
	waits := stubSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := (&Client{URL: srv.URL, MaxRetries: 2}).Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 503")
	assert.EqualValues(t, 3, atomic.LoadInt32(&hit))
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *waits)
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	stubSleep(t)
	var hit int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hit, 1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := (&Client{URL: srv.URL, MaxRetries: 3}).Fetch(context.Background())
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&hit))
}

func TestContent(t *testing.T) {
	fragment, err := Content([]byte(page), DefaultContentID)
	require.NoError(t, err)
	assert.Equal(t, "<h3>Recent changes</h3><p>Bot API <strong>7.0</strong> &amp; more</p>", fragment)

	_, err = Content([]byte(page), "missing")
	assert.True(t, errors.Is(err, document.ErrNotFound))
}

func TestMarkdown(t *testing.T) {
	md, err := Markdown("<h3>Recent changes</h3><p>Bot API <strong>7.0</strong></p>")
	require.NoError(t, err)
	assert.Contains(t, md, "### Recent changes")
	assert.True(t, strings.Contains(md, "**7.0**"))
}
