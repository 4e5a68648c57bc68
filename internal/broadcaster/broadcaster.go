// Package broadcaster implements the live-match fan-out engine: one
// poller per (leagueID, season) key, started lazily on the first
// subscriber and stopped once the last one leaves, and a non-blocking
// per-subscriber send path so one slow client never stalls the rest of a
// topic.
package broadcaster

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mvpaudrey/afcon-live/internal/fixture"
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/internal/schedule"
	"github.com/mvpaudrey/afcon-live/internal/upstream"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

// Key identifies one broadcaster topic.
type Key struct {
	LeagueID int64
	Season   int
}

// DefaultBufferSize is the default per-subscriber outbound buffer size.
const DefaultBufferSize = 64

// A subscriber that drops more than DropEvictionThreshold updates inside
// DropEvictionWindow is evicted.
const (
	DropEvictionThreshold = 200
	DropEvictionWindow    = 10 * time.Minute
)

// Subscriber is one live-stream consumer of a topic.
type Subscriber struct {
	ID      string
	updates chan model.Update
	done    chan struct{}

	mu    sync.Mutex
	drops []time.Time
}

// Updates returns the channel to drain. It is closed on Unsubscribe or on
// eviction.
func (s *Subscriber) Updates() <-chan model.Update { return s.updates }

func newSubscriber(bufferSize int) *Subscriber {
	return &Subscriber{
		ID:      uuid.NewString(),
		updates: make(chan model.Update, bufferSize),
		done:    make(chan struct{}),
	}
}

// trySend performs a non-blocking send, recording a drop on the subscriber
// if the buffer is full. delivered reports whether the update was queued;
// evict reports whether this drop pushed the subscriber past
// DropEvictionThreshold drops within DropEvictionWindow.
func (s *Subscriber) trySend(u model.Update, now time.Time) (delivered, evict bool) {
	select {
	case s.updates <- u:
		return true, false
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	cutoff := now.Add(-DropEvictionWindow)
	kept := s.drops[:0]
	for _, t := range s.drops {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	s.drops = kept
	return false, len(s.drops) > DropEvictionThreshold
}

// TopicState is the per-key in-memory state owned by the broadcaster.
// Fixture snapshots, event lists, and the cached next-kickoff are only
// ever mutated from the single poller goroutine of this topic; no lock
// guards them.
type TopicState struct {
	key Key

	subsMu      sync.RWMutex
	subscribers map[string]*Subscriber
	evicted     bool

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	pollerDone  chan struct{}

	paused atomicBool

	lastFixtureSnapshot map[int64]model.Fixture
	lastEventList       map[int64][]model.FixtureEvent
	lastNoLiveCheckAt   time.Time
	lastNextKickoff     *time.Time
}

type atomicBool struct {
	mu sync.RWMutex
	v  bool
}

func (a *atomicBool) Load() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.v
}

func (a *atomicBool) Store(v bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v = v
}

// Hooks lets the caller observe broadcaster activity without the core
// depending on any particular metrics or notification library.
type Hooks struct {
	OnPollTick               func(key Key, duration time.Duration)
	OnSubscriberDrop         func(key Key, subscriberID string)
	OnSubscriberEvict        func(key Key, subscriberID string)
	OnTopicStarted           func(key Key)
	OnTopicStopped           func(key Key)
	OnSubscriberCountChanged func(key Key, count int)
	// OnNotifiable is the fire-and-forget hook for Goal/RedCard/MatchFinished
	// updates (push-notification dispatch lives behind it). Its delivery
	// semantics are not part of the broadcaster's contract: a panic here
	// is recovered and logged, never propagated to the stream.
	OnNotifiable func(key Key, update model.Update)
}

// Broadcaster is the process-wide C5 instance.
type Broadcaster struct {
	upstreamClient upstream.Client
	repo           fixture.Repository
	schedule       schedule.ScheduleTable
	logger         logging.Logger
	hooks          Hooks
	bufferSize     int

	mapMu  sync.Mutex
	topics map[Key]*TopicState
}

// New builds a Broadcaster. bufferSize <= 0 uses DefaultBufferSize.
func New(uc upstream.Client, repo fixture.Repository, tbl schedule.ScheduleTable, logger logging.Logger, hooks Hooks, bufferSize int) *Broadcaster {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Broadcaster{
		upstreamClient: uc,
		repo:           repo,
		schedule:       tbl,
		logger:         logger,
		hooks:          hooks,
		bufferSize:     bufferSize,
		topics:         make(map[Key]*TopicState),
	}
}

func (b *Broadcaster) topicFor(key Key) *TopicState {
	b.mapMu.Lock()
	defer b.mapMu.Unlock()
	t, ok := b.topics[key]
	if !ok {
		t = &TopicState{
			key:                 key,
			subscribers:         make(map[string]*Subscriber),
			lastFixtureSnapshot: make(map[int64]model.Fixture),
			lastEventList:       make(map[int64][]model.FixtureEvent),
		}
		b.topics[key] = t
	}
	return t
}

// Subscribe registers a new subscriber for key and starts the topic's
// poller if it was previously idle. Any update produced after this call
// returns is visible to the returned subscriber; updates produced before
// are not.
func (b *Broadcaster) Subscribe(ctx context.Context, key Key) *Subscriber {
	sub := newSubscriber(b.bufferSize)

	var topic *TopicState
	var count int
	for {
		topic = b.topicFor(key)
		topic.subsMu.Lock()
		if topic.evicted {
			// Lost a race with the last unsubscribe evicting this topic;
			// fetch the fresh TopicState and register there instead.
			topic.subsMu.Unlock()
			continue
		}
		topic.subscribers[sub.ID] = sub
		count = len(topic.subscribers)
		topic.subsMu.Unlock()
		break
	}

	if b.hooks.OnSubscriberCountChanged != nil {
		b.hooks.OnSubscriberCountChanged(key, count)
	}
	if count == 1 {
		b.startPoller(topic)
	}
	return sub
}

// Unsubscribe removes sub from key's topic, closing its channel. If it was
// the last subscriber, the topic's poller is cancelled and the topic is
// evicted once the poller acknowledges cancellation.
func (b *Broadcaster) Unsubscribe(key Key, subscriberID string) {
	b.mapMu.Lock()
	topic, ok := b.topics[key]
	b.mapMu.Unlock()
	if !ok {
		return
	}

	topic.subsMu.Lock()
	sub, exists := topic.subscribers[subscriberID]
	if exists {
		delete(topic.subscribers, subscriberID)
	}
	remaining := len(topic.subscribers)
	topic.subsMu.Unlock()

	if exists {
		close(sub.updates)
		if b.hooks.OnSubscriberCountChanged != nil {
			b.hooks.OnSubscriberCountChanged(key, remaining)
		}
	}

	if remaining == 0 {
		b.stopPoller(topic)
	}
}

// SubscriberCount returns the number of currently registered subscribers
// for key.
func (b *Broadcaster) SubscriberCount(key Key) int {
	b.mapMu.Lock()
	topic, ok := b.topics[key]
	b.mapMu.Unlock()
	if !ok {
		return 0
	}
	topic.subsMu.RLock()
	defer topic.subsMu.RUnlock()
	return len(topic.subscribers)
}

// SetPaused toggles the per-key kill switch. While paused, the poller
// neither calls the upstream nor emits events, but the topic continues to
// service subscribe/unsubscribe.
func (b *Broadcaster) SetPaused(key Key, paused bool) {
	topic := b.topicFor(key)
	topic.paused.Store(paused)
}

func (b *Broadcaster) startPoller(topic *TopicState) {
	topic.lifecycleMu.Lock()
	defer topic.lifecycleMu.Unlock()
	if topic.cancel != nil {
		return
	}
	if topic.pollerDone != nil {
		// A cancelled poller may still be draining its final tick; wait so
		// the key never has two pollers at once.
		<-topic.pollerDone
	}
	ctx, cancel := context.WithCancel(context.Background())
	topic.cancel = cancel
	topic.pollerDone = make(chan struct{})
	if b.hooks.OnTopicStarted != nil {
		b.hooks.OnTopicStarted(topic.key)
	}
	go b.runPoller(ctx, topic)
}

func (b *Broadcaster) stopPoller(topic *TopicState) {
	topic.lifecycleMu.Lock()
	cancel := topic.cancel
	done := topic.pollerDone
	topic.cancel = nil
	topic.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	if done != nil {
		<-done
	}

	b.mapMu.Lock()
	topic.subsMu.Lock()
	if len(topic.subscribers) == 0 {
		topic.evicted = true
		delete(b.topics, topic.key)
	}
	topic.subsMu.Unlock()
	b.mapMu.Unlock()

	if b.hooks.OnTopicStopped != nil {
		b.hooks.OnTopicStopped(topic.key)
	}
}

// broadcast performs a non-blocking fan-out send to every subscriber of
// topic. It holds a read lock on the subscriber map only while copying the
// targets, and sends after releasing it. Updates are never
// reordered for a given subscriber: a drop simply skips that one delivery.
func (b *Broadcaster) broadcast(topic *TopicState, update model.Update) {
	now := time.Now()

	topic.subsMu.RLock()
	targets := make([]*Subscriber, 0, len(topic.subscribers))
	for _, s := range topic.subscribers {
		targets = append(targets, s)
	}
	topic.subsMu.RUnlock()

	var toEvict []string
	for _, s := range targets {
		delivered, evict := s.trySend(update, now)
		if !delivered {
			if b.hooks.OnSubscriberDrop != nil {
				b.hooks.OnSubscriberDrop(topic.key, s.ID)
			}
		}
		if evict {
			toEvict = append(toEvict, s.ID)
		}
	}
	for _, id := range toEvict {
		if b.hooks.OnSubscriberEvict != nil {
			b.hooks.OnSubscriberEvict(topic.key, id)
		}
		b.Unsubscribe(topic.key, id)
	}

	switch update.Kind {
	case model.UpdateGoal, model.UpdateRedCard, model.UpdateMatchFinished:
		if b.hooks.OnNotifiable != nil {
			safeNotify(b.hooks.OnNotifiable, topic.key, update, b.logger)
		}
	}
}

func safeNotify(fn func(Key, model.Update), key Key, update model.Update, logger logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			logger.WithFields(logging.Fields{"panic": r}).Warn("notification hook panicked")
		}
	}()
	fn(key, update)
}

