package status

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/handiism/trackflyer/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, sub *Subscription) model.Stage {
	t.Helper()
	select {
	case st, ok := <-sub.C():
		require.True(t, ok, "subscription closed early")
		return st
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for stage")
		return model.Stage{}
	}
}

func TestBroadcast_ReplaysLatestToLateSubscriber(t *testing.T) {
	b := NewBroadcast()
	b.Set("song", model.Queued())
	b.Set("song", model.Downloading(0.4))

	sub := b.Subscribe(context.Background(), "song")
	defer sub.Close()

	st := receive(t, sub)
	assert.Equal(t, model.StageDownloading, st.Kind)
	assert.InDelta(t, 0.4, st.Progress, 1e-9)
}

func TestBroadcast_DeliversInPublishOrder(t *testing.T) {
	b := NewBroadcast()
	subs := []*Subscription{
		b.Subscribe(context.Background(), "song"),
		b.Subscribe(context.Background(), "song"),
	}

	want := []model.Stage{model.Queued()}
	for i := 0; i <= 100; i++ {
		want = append(want, model.Downloading(float64(i)/100))
	}
	want = append(want, model.Converting(), model.Downloaded())

	for _, st := range want {
		b.Set("song", st)
	}
	b.Set("other", model.Failed(errors.New("unrelated")))

	for _, sub := range subs {
		for _, w := range want {
			assert.Equal(t, w, receive(t, sub))
		}
		sub.Close()
	}
}

func TestBroadcast_CloseCompletesSubscriptions(t *testing.T) {
	b := NewBroadcast()
	b.Set("song", model.Queued())
	sub := b.Subscribe(context.Background(), "song")

	b.Set("song", model.Downloading(0))
	b.Close()
	b.Set("song", model.Converting())

	var got []model.Stage
	for st := range sub.C() {
		got = append(got, st)
	}
	assert.Equal(t, []model.Stage{model.Queued(), model.Downloading(0)}, got)

	late := b.Subscribe(context.Background(), "song")
	var replay []model.Stage
	for st := range late.C() {
		replay = append(replay, st)
	}
	assert.Equal(t, []model.Stage{model.Downloading(0)}, replay)
}

func TestBroadcast_StagesIsRestartable(t *testing.T) {
	b := NewBroadcast()
	b.Set("song", model.Converting())

	for i := 0; i < 2; i++ {
		var first model.Stage
		for st := range b.Stages(context.Background(), "song") {
			first = st
			break
		}
		assert.Equal(t, model.Converting(), first)
	}
}

func TestBroadcast_ContextCancelEndsSubscription(t *testing.T) {
	b := NewBroadcast()
	ctx, cancel := context.WithCancel(context.Background())
	sub := b.Subscribe(ctx, "song")
	cancel()

	select {
	case _, ok := <-sub.C():
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("subscription did not end")
	}

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.subs) == 0
	}, time.Second, 10*time.Millisecond)
}

func TestBroadcast_ConcurrentPublishers(t *testing.T) {
	b := NewBroadcast()
	keys := []string{"a", "b", "c", "d"}

	var wg sync.WaitGroup
	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			b.Set(key, model.Queued())
			for i := 0; i < 50; i++ {
				b.Set(key, model.Downloading(float64(i)/50))
			}
			b.Set(key, model.Converting())
			b.Set(key, model.Downloaded())
		}(key)
	}
	wg.Wait()

	assert.Equal(t, keys, b.Keys())
	for _, st := range b.Snapshot() {
		assert.Equal(t, model.StageDownloaded, st.Kind)
	}
}
