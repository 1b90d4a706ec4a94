package insights

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T, ttl time.Duration) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, ttl), mr
}

func TestNewCacheDisabled(t *testing.T) {
	assert.Nil(t, NewCache(nil, time.Minute))

	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	defer client.Close()
	assert.Nil(t, NewCache(client, 0))
}

func TestCacheBuildKeyIsStable(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)

	a, err := cache.BuildKey("gemini-2.0-flash", validRequest())
	require.NoError(t, err)
	b, err := cache.BuildKey("gemini-2.0-flash", validRequest())
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, strings.HasPrefix(a, "insights:v1:gemini-2.0-flash:"))

	other := validRequest()
	other.Month = 4
	c, err := cache.BuildKey("gemini-2.0-flash", other)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestCacheRoundTrip(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	ctx := context.Background()

	_, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	resp, _ := ParseResponse(wellFormedResponse)
	require.NoError(t, cache.Set(ctx, "k", resp))
	assert.True(t, mr.Exists("k"))
	assert.Equal(t, time.Minute, mr.TTL("k"))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, wellFormedResponse, string(raw))
}

func TestGenerateServesRepeatRequestsFromCache(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	model := &stubModel{text: wellFormedResponse}
	recorder := &stubRecorder{}
	svc := NewService(Config{APIKey: "test-key"}, model, ServiceOptions{Cache: cache, Recorder: recorder})

	for i := 0; i < 2; i++ {
		resp, err := svc.Generate(context.Background(), validRequest())
		require.NoError(t, err)
		assert.True(t, resp.Complete())
	}

	assert.Equal(t, 1, model.Calls())
	assert.Equal(t, 1, recorder.hits)
	assert.Equal(t, 1, recorder.misses)
	assert.Len(t, mr.Keys(), 1)
}

func TestGenerateDoesNotCacheIncompleteResults(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	model := &stubModel{text: `{"breakdown":"partial"}`}
	svc := NewService(Config{APIKey: "test-key"}, model, ServiceOptions{Cache: cache})

	for i := 0; i < 2; i++ {
		_, err := svc.Generate(context.Background(), validRequest())
		require.NoError(t, err)
	}

	assert.Equal(t, 2, model.Calls())
	assert.Empty(t, mr.Keys())
}

func TestGenerateIgnoresCacheOutage(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	mr.Close()
	model := &stubModel{text: wellFormedResponse}
	svc := NewService(Config{APIKey: "test-key"}, model, ServiceOptions{Cache: cache})

	resp, err := svc.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	assert.True(t, resp.Complete())
	assert.Equal(t, 1, model.Calls())
}

func TestGenerateCoalescedWaiterSurvivesOtherCallerCancel(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	model := &stubModel{text: wellFormedResponse, started: make(chan struct{}, 2), release: make(chan struct{})}
	svc := NewService(Config{APIKey: "test-key"}, model, ServiceOptions{Cache: cache})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Generate(ctxA, validRequest())
		errA <- err
	}()
	<-model.started

	type result struct {
		resp Response
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		resp, err := svc.Generate(context.Background(), validRequest())
		resB <- result{resp, err}
	}()

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	select {
	case res := <-resB:
		t.Fatalf("second caller returned before the model answered: %+v", res)
	case <-time.After(50 * time.Millisecond):
	}

	close(model.release)
	res := <-resB
	require.NoError(t, res.err)
	assert.True(t, res.resp.Complete())
	assert.Equal(t, 1, model.Calls())
}

func TestCacheKeepsRelayedObject(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	ctx := context.Background()
	const text = `{"breakdown":"x","saving_tips":["a"],"risk_areas":["b"],"financial_health_score":72,"note":"y"}`

	resp, _ := ParseResponse(text)
	require.NoError(t, cache.Set(ctx, "k", resp))

	got, ok, err := cache.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.Equal(t, text, string(raw))
}

func TestCacheRejectsUnreadableEntry(t *testing.T) {
	cache, mr := newTestCache(t, time.Minute)
	require.NoError(t, mr.Set("k", "not json"))

	_, ok, err := cache.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.Error(t, err)
}
