// Package pubsub implements zakros's node-local publish/subscribe registry.
// Pub/Sub fan-out is explicitly out of scope for Raft replication (see
// spec section 1): PUBLISH only reaches subscribers connected to the same
// node that received it.
package pubsub

import (
	"path"
	"sync"
)

// Subscriber receives published messages on its outbound queue without
// blocking the publisher.
type Subscriber interface {
	Deliver(kind string, channel string, payload []byte)
}

// Registry maps channels and glob patterns to their subscriber sets.
type Registry struct {
	mu       sync.Mutex
	channels map[string]map[Subscriber]struct{}
	patterns map[string]map[Subscriber]struct{}
}

func New() *Registry {
	return &Registry{
		channels: make(map[string]map[Subscriber]struct{}),
		patterns: make(map[string]map[Subscriber]struct{}),
	}
}

func (r *Registry) Subscribe(sub Subscriber, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.channels[channel]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.channels[channel] = set
	}
	set[sub] = struct{}{}
}

func (r *Registry) Unsubscribe(sub Subscriber, channel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.channels[channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.channels, channel)
		}
	}
}

func (r *Registry) PSubscribe(sub Subscriber, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	set, ok := r.patterns[pattern]
	if !ok {
		set = make(map[Subscriber]struct{})
		r.patterns[pattern] = set
	}
	set[sub] = struct{}{}
}

func (r *Registry) PUnsubscribe(sub Subscriber, pattern string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if set, ok := r.patterns[pattern]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.patterns, pattern)
		}
	}
}

// UnsubscribeAll removes sub from every channel and pattern it joined; used
// when a connection closes.
func (r *Registry) UnsubscribeAll(sub Subscriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for ch, set := range r.channels {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.channels, ch)
		}
	}
	for pat, set := range r.patterns {
		delete(set, sub)
		if len(set) == 0 {
			delete(r.patterns, pat)
		}
	}
}

// Publish delivers payload to every direct subscriber of channel and every
// subscriber whose pattern matches it, returning the number of receivers.
func (r *Registry) Publish(channel string, payload []byte) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for sub := range r.channels[channel] {
		sub.Deliver("message", channel, payload)
		n++
	}
	for pat, set := range r.patterns {
		if !globMatch(pat, channel) {
			continue
		}
		for sub := range set {
			sub.Deliver("pmessage", channel, payload)
			n++
		}
	}
	return n
}

func globMatch(pattern, s string) bool {
	ok, err := path.Match(pattern, s)
	return err == nil && ok
}

// SubscriberCount returns the total number of channel and pattern
// subscriptions currently registered, counting a subscriber once per
// channel or pattern it joined (the same subscriber on three channels
// counts as three). Used by the metrics collector to report
// zakros_pubsub_subscribers_total.
func (r *Registry) SubscriberCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, set := range r.channels {
		n += len(set)
	}
	for _, set := range r.patterns {
		n += len(set)
	}
	return n
}
