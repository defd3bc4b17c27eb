// Package peerbook keeps a persistent record of every peer ever heard on the
// LAN, keyed by address. The live registry forgets silent peers; the book does not.
package peerbook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"lanchat/internal/util/logger/sl"

	"github.com/benbjohnson/clock"
	"go.etcd.io/bbolt"
)

const (
	PeersBucket = "peers"

	defaultQueueSize = 256
	maxBatch         = 64
)

type Config struct {
	Path       string
	FileMode   os.FileMode
	Options    *bbolt.Options
	Serializer Serializer
	Clock      clock.Clock
	// QueueSize bounds observations waiting for Run.
	QueueSize int
}

type PeerBook struct {
	db         *bbolt.DB
	mu         sync.Mutex
	serializer Serializer
	clock      clock.Clock
	log        *slog.Logger

	queue   chan observation
	dropped atomic.Uint64
}

func Open(cfg Config, log *slog.Logger) (*PeerBook, error) {
	const op = "peerbook.Open"

	if cfg.Serializer == nil {
		cfg.Serializer = &GobSerializer{}
	}
	if cfg.FileMode == 0 {
		cfg.FileMode = 0600
	}
	if cfg.Options == nil {
		cfg.Options = &bbolt.Options{Timeout: time.Second}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = defaultQueueSize
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := bbolt.Open(cfg.Path, cfg.FileMode, cfg.Options)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(PeersBucket))
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: failed to initialize database: %w", op, err)
	}

	return &PeerBook{
		db:         db,
		serializer: cfg.Serializer,
		clock:      cfg.Clock,
		log:        log.With(slog.String("component", "peerbook")),
		queue:      make(chan observation, cfg.QueueSize),
	}, nil
}

func (b *PeerBook) Close() error {
	if b.db == nil {
		return ErrNilDB
	}
	return b.db.Close()
}

// Record notes one HELLO from address: refreshes nickname and LastSeen and bumps HelloCount.
func (b *PeerBook) Record(address, nickname string) (Entry, error) {
	if address == "" {
		return Entry{}, ErrEmptyAddress
	}

	entries, err := b.recordBatch([]observation{{address: address, nickname: nickname, at: b.clock.Now()}})
	if err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

// recordBatch applies observations in order inside one transaction.
func (b *PeerBook) recordBatch(batch []observation) ([]Entry, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	entries := make([]Entry, 0, len(batch))
	err := b.db.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(PeersBucket))
		if err != nil {
			return err
		}

		for _, o := range batch {
			var entry Entry
			if data := bucket.Get([]byte(o.address)); data != nil {
				if err := b.serializer.Deserialize(data, &entry); err != nil {
					return err
				}
			} else {
				entry = Entry{Address: o.address, FirstSeen: o.at}
			}

			entry.Nickname = o.nickname
			entry.LastSeen = o.at
			entry.HelloCount++

			data, err := b.serializer.Serialize(&entry)
			if err != nil {
				return err
			}
			if err := bucket.Put([]byte(o.address), data); err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Observe satisfies the listener's peer observer. It never touches the disk:
// the observation is queued for Run and dropped when the queue is full.
func (b *PeerBook) Observe(address, nickname string) {
	const op = "peerbook.Observe"

	if address == "" {
		return
	}

	select {
	case b.queue <- observation{address: address, nickname: nickname, at: b.clock.Now()}:
	default:
		b.dropped.Add(1)
		b.log.Debug("Observation queue full, dropping",
			slog.String("op", op),
			slog.String("address", address),
		)
	}
}

// Dropped is the number of observations lost to a full queue.
func (b *PeerBook) Dropped() uint64 {
	return b.dropped.Load()
}

// Run writes queued observations until ctx is done, then flushes what is left.
// Close must be called after Run returns.
func (b *PeerBook) Run(ctx context.Context) error {
	const op = "peerbook.Run"
	log := b.log.With(slog.String("op", op))

	for {
		select {
		case <-ctx.Done():
			b.flush(log, b.drain(nil))
			return nil
		case o := <-b.queue:
			b.flush(log, b.drain([]observation{o}))
		}
	}
}

// drain appends everything already queued, so a burst becomes one transaction.
func (b *PeerBook) drain(batch []observation) []observation {
	for len(batch) < maxBatch {
		select {
		case o := <-b.queue:
			batch = append(batch, o)
		default:
			return batch
		}
	}
	return batch
}

func (b *PeerBook) flush(log *slog.Logger, batch []observation) {
	if len(batch) == 0 {
		return
	}
	if _, err := b.recordBatch(batch); err != nil {
		log.Warn("Failed to record peers", slog.Int("batch", len(batch)), sl.Err(err))
	}
}

func (b *PeerBook) Get(address string) (Entry, error) {
	var entry Entry

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return ErrBucketNotFound
		}

		data := bucket.Get([]byte(address))
		if data == nil {
			return ErrEntryNotFound
		}
		return b.serializer.Deserialize(data, &entry)
	})
	if err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// List returns all entries, most recently seen first.
func (b *PeerBook) List() ([]Entry, error) {
	var entries []Entry

	err := b.db.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return nil
		}

		return bucket.ForEach(func(k, v []byte) error {
			var e Entry
			if err := b.serializer.Deserialize(v, &e); err != nil {
				return err
			}
			entries = append(entries, e)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].LastSeen.Equal(entries[j].LastSeen) {
			return entries[i].Address < entries[j].Address
		}
		return entries[i].LastSeen.After(entries[j].LastSeen)
	})
	return entries, nil
}

func (b *PeerBook) Delete(address string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(PeersBucket))
		if bucket == nil {
			return nil
		}
		return bucket.Delete([]byte(address))
	})
}
