package census

import (
	"bytes"
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/pkg/errors"

	"github.com/trezcool/censo/core"
)

const (
	allCacheKey   = "all"
	subscriberBuf = 16
)

type EventKind string

// Store events
const (
	EventAppended EventKind = "appended"
	EventReplaced EventKind = "replaced"
	EventChanged  EventKind = "changed" // written by another process
)

// Event tells subscribers the submission set changed.
type Event struct {
	Kind         EventKind `json:"kind"`
	SubmissionID string    `json:"submissionId,omitempty"`
	At           time.Time `json:"at"`
}

// Store persists the submission set as a single JSON array under core.KeySubmissions.
type Store struct {
	kv     core.KVStore
	logger core.Logger
	cache  *cache.Cache

	mu     sync.Mutex
	subs   map[int]chan Event
	nextID int
	last   []byte // last blob seen by this process
}

// NewStore returns a Store whose decoded read-copy lives for cacheTTL (0 disables it).
func NewStore(kv core.KVStore, logger core.Logger, cacheTTL time.Duration) *Store {
	s := &Store{
		kv:     kv,
		logger: logger,
		subs:   make(map[int]chan Event),
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// LoadAll returns every stored submission. Missing or malformed data yields fallback.
func (s *Store) LoadAll(ctx context.Context, fallback []Submission) []Submission {
	if s.cache != nil {
		if v, ok := s.cache.Get(allCacheKey); ok {
			return cloneSubmissions(v.([]Submission))
		}
	}

	raw, err := s.kv.Get(ctx, core.KeySubmissions)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound {
			s.logger.Error("loading submissions", err)
		}
		return fallback
	}
	subs, err := decodeSubmissions(raw)
	if err != nil {
		s.logger.Warn("stored submissions are malformed, using fallback", err)
		return fallback
	}

	if s.cache != nil {
		s.cache.SetDefault(allCacheKey, subs)
	}
	return cloneSubmissions(subs)
}

// Append adds sub to the stored set, replacing any record with the same id.
// The read-modify-write runs atomically in the storage backend.
func (s *Store) Append(ctx context.Context, sub Submission) error {
	var written []byte
	err := s.kv.Update(ctx, core.KeySubmissions, func(current []byte) ([]byte, error) {
		var subs []Submission
		if current != nil {
			var err error
			if subs, err = decodeSubmissions(current); err != nil {
				return nil, errors.Wrap(err, "refusing to overwrite malformed submissions")
			}
		}
		subs = upsert(subs, sub)
		out, err := json.Marshal(subs)
		if err != nil {
			return nil, errors.Wrap(err, "encoding submissions")
		}
		written = out
		return out, nil
	})
	if err != nil {
		return errors.Wrap(err, "appending submission")
	}

	s.changed(written, Event{Kind: EventAppended, SubmissionID: sub.ID, At: nowFunc().UTC()})
	return nil
}

// ReplaceAll overwrites the stored set.
func (s *Store) ReplaceAll(ctx context.Context, subs []Submission) error {
	if subs == nil {
		subs = []Submission{}
	}
	out, err := json.Marshal(subs)
	if err != nil {
		return errors.Wrap(err, "encoding submissions")
	}
	if err := s.kv.Set(ctx, core.KeySubmissions, out); err != nil {
		return errors.Wrap(err, "replacing submissions")
	}

	s.changed(out, Event{Kind: EventReplaced, At: nowFunc().UTC()})
	return nil
}

// Invalidate drops the read-copy.
func (s *Store) Invalidate() {
	if s.cache != nil {
		s.cache.Delete(allCacheKey)
	}
}

// Subscribe registers a listener for change events. Slow listeners miss events instead of
// blocking writers. cancel must be called to release the subscription.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Event, subscriberBuf)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// changed records the blob written by this process and notifies subscribers.
func (s *Store) changed(written []byte, e Event) {
	s.Invalidate()
	s.mu.Lock()
	s.last = written
	s.mu.Unlock()
	s.publish(e)
}

// Watch re-reads the stored set every interval and emits EventChanged when the blob was
// modified by someone else. Backends implementing core.KVWatcher also push changes.
// It blocks until ctx is done.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	var pushed <-chan string
	if w, ok := s.kv.(core.KVWatcher); ok {
		ch, err := w.Watch(ctx)
		if err != nil {
			s.logger.Warn("store watcher unavailable, polling only", err)
		} else {
			pushed = ch
		}
	}

	s.poll(ctx, true)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.poll(ctx, false)
		case key, ok := <-pushed:
			if !ok {
				pushed = nil
				continue
			}
			if key == core.KeySubmissions {
				s.poll(ctx, false)
			}
		}
	}
}

func (s *Store) poll(ctx context.Context, baseline bool) {
	raw, err := s.kv.Get(ctx, core.KeySubmissions)
	if err != nil {
		if errors.Cause(err) != core.ErrKeyNotFound && ctx.Err() == nil {
			s.logger.Warn("polling submissions", err)
		}
		raw = nil
	}

	s.mu.Lock()
	same := bytes.Equal(raw, s.last)
	s.last = raw
	s.mu.Unlock()

	if baseline || same {
		return
	}
	s.Invalidate()
	s.publish(Event{Kind: EventChanged, At: nowFunc().UTC()})
}

func decodeSubmissions(raw []byte) ([]Submission, error) {
	var subs []Submission
	if err := json.Unmarshal(raw, &subs); err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []Submission{}
	}
	return subs, nil
}

// cloneSubmissions deep copies subs so callers cannot alter the read-copy.
func cloneSubmissions(subs []Submission) []Submission {
	out := make([]Submission, len(subs))
	for i, sub := range subs {
		sub.Form = sub.Form.clone()
		out[i] = sub
	}
	return out
}

func upsert(subs []Submission, sub Submission) []Submission {
	for i := range subs {
		if subs[i].ID == sub.ID {
			subs[i] = sub
			return subs
		}
	}
	return append(subs, sub)
}
