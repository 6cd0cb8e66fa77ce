package pubsub

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSubscriber struct {
	mu       sync.Mutex
	kinds    []string
	channels []string
	payloads [][]byte
}

func (r *recordingSubscriber) Deliver(kind, channel string, payload []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kinds = append(r.kinds, kind)
	r.channels = append(r.channels, channel)
	r.payloads = append(r.payloads, payload)
}

func (r *recordingSubscriber) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.kinds)
}

func TestPublishReachesDirectSubscriber(t *testing.T) {
	reg := New()
	sub := &recordingSubscriber{}
	reg.Subscribe(sub, "news")

	n := reg.Publish("news", []byte("hello"))
	require.Equal(t, 1, n)
	require.Equal(t, 1, sub.count())
	assert.Equal(t, "message", sub.kinds[0])
	assert.Equal(t, "news", sub.channels[0])
	assert.Equal(t, []byte("hello"), sub.payloads[0])
}

func TestPublishWithNoSubscribersReturnsZero(t *testing.T) {
	reg := New()
	n := reg.Publish("nobody-listening", []byte("x"))
	assert.Equal(t, 0, n)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	reg := New()
	sub := &recordingSubscriber{}
	reg.Subscribe(sub, "news")
	reg.Unsubscribe(sub, "news")

	n := reg.Publish("news", []byte("hello"))
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, sub.count())
}

func TestPatternSubscriptionMatchesGlob(t *testing.T) {
	reg := New()
	sub := &recordingSubscriber{}
	reg.PSubscribe(sub, "news.*")

	n := reg.Publish("news.sports", []byte("goal"))
	require.Equal(t, 1, n)
	assert.Equal(t, "pmessage", sub.kinds[0])
	assert.Equal(t, "news.sports", sub.channels[0])

	n = reg.Publish("weather.rain", []byte("x"))
	assert.Equal(t, 0, n)
}

func TestPublishReachesBothDirectAndPatternSubscribers(t *testing.T) {
	reg := New()
	direct := &recordingSubscriber{}
	pattern := &recordingSubscriber{}
	reg.Subscribe(direct, "news.sports")
	reg.PSubscribe(pattern, "news.*")

	n := reg.Publish("news.sports", []byte("goal"))
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, direct.count())
	assert.Equal(t, 1, pattern.count())
}

func TestPUnsubscribeStopsPatternDelivery(t *testing.T) {
	reg := New()
	sub := &recordingSubscriber{}
	reg.PSubscribe(sub, "news.*")
	reg.PUnsubscribe(sub, "news.*")

	n := reg.Publish("news.sports", []byte("goal"))
	assert.Equal(t, 0, n)
}

func TestUnsubscribeAllRemovesEverySubscription(t *testing.T) {
	reg := New()
	sub := &recordingSubscriber{}
	reg.Subscribe(sub, "a")
	reg.Subscribe(sub, "b")
	reg.PSubscribe(sub, "c.*")

	reg.UnsubscribeAll(sub)

	assert.Equal(t, 0, reg.Publish("a", []byte("x")))
	assert.Equal(t, 0, reg.Publish("b", []byte("x")))
	assert.Equal(t, 0, reg.Publish("c.foo", []byte("x")))
}

func TestMultipleSubscribersToSameChannelAllReceive(t *testing.T) {
	reg := New()
	a := &recordingSubscriber{}
	b := &recordingSubscriber{}
	reg.Subscribe(a, "news")
	reg.Subscribe(b, "news")

	n := reg.Publish("news", []byte("hi"))
	assert.Equal(t, 2, n)
	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}
