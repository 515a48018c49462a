package vikasyatra

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeHealth struct {
	err   error
	calls atomic.Int32
}

func (f *fakeHealth) Health(ctx context.Context) error {
	f.calls.Add(1)
	return f.err
}

func TestConnectivityNotifiesTransitionsOnly(t *testing.T) {
	c := NewConnectivity(true, nil)
	var seen []bool
	unsubscribe := c.Subscribe(func(online bool) { seen = append(seen, online) })

	c.Set(true)
	c.Set(false)
	c.Set(false)
	c.Set(true)
	assert.Equal(t, []bool{false, true}, seen)
	assert.True(t, c.Online())

	unsubscribe()
	unsubscribe()
	c.Set(false)
	assert.Len(t, seen, 2)
	assert.False(t, c.Online())
}

func TestConnectivitySubscriberPanicIsContained(t *testing.T) {
	c := NewConnectivity(false, nil)
	var got atomic.Bool
	c.Subscribe(func(bool) { panic("bad handler") })
	c.Subscribe(func(online bool) { got.Store(online) })

	assert.NotPanics(t, func() { c.Set(true) })
	assert.True(t, got.Load())
}

func TestConnectivityProbe(t *testing.T) {
	c := NewConnectivity(true, nil)
	hc := &fakeHealth{err: errors.New("connection refused")}

	assert.False(t, c.Probe(context.Background(), hc))
	assert.False(t, c.Online())

	hc.err = nil
	assert.True(t, c.Probe(context.Background(), hc))
	assert.True(t, c.Online())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hc.err = context.Canceled
	assert.True(t, c.Probe(ctx, hc), "a cancelled probe keeps the last known state")
	assert.True(t, c.Online())
}

func TestConnectivityWatch(t *testing.T) {
	c := NewConnectivity(false, nil)
	hc := &fakeHealth{}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Watch(ctx, hc, time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return hc.calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	assert.True(t, c.Online())
	cancel()
	<-done
}
