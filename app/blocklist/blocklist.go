package blocklist

import (
	"context"
	"fmt"
	"slices"
	"sync"

	e "nuclight.org/relay-tg-bot/pkg/entities"
	"nuclight.org/relay-tg-bot/pkg/logger"
)

// Store persists the whole set of blocked identities.
type Store interface {
	Load(ctx context.Context) ([]e.Identity, error)
	Save(ctx context.Context, ids []e.Identity) error
}

// List is a set of blocked users. Every mutation is written to the store
// before the call returns; if the write fails the mutation is rolled back.
type List struct {
	log   logger.Logger
	store Store

	mu  sync.RWMutex
	ids map[e.Identity]struct{}
}

// Load hydrates a list from the store. A store that fails to load yields an
// empty list, it does not stop the bot.
func Load(ctx context.Context, log logger.Logger, store Store) *List {
	l := &List{
		log:   log,
		store: store,
		ids:   make(map[e.Identity]struct{}),
	}

	ids, err := store.Load(ctx)
	if err != nil {
		log.Warn("loading block list, starting with empty one", "error", err)
		return l
	}

	for _, id := range ids {
		l.ids[id] = struct{}{}
	}

	log.Info("block list loaded", "count", len(l.ids))

	return l
}

func (l *List) Contains(id e.Identity) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.ids[id]
	return ok
}

func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.ids)
}

// IDs returns blocked identities in ascending order.
func (l *List) IDs() []e.Identity {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sorted()
}

// Add blocks id. Blocking an already blocked user still persists the set.
func (l *List) Add(ctx context.Context, id e.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, existed := l.ids[id]
	l.ids[id] = struct{}{}

	if err := l.store.Save(ctx, l.sorted()); err != nil {
		if !existed {
			delete(l.ids, id)
		}
		return fmt.Errorf("saving block list: %w", err)
	}

	return nil
}

// Remove unblocks id. Removing a user that is not blocked is a no-op.
func (l *List) Remove(ctx context.Context, id e.Identity) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.ids[id]; !ok {
		return nil
	}
	delete(l.ids, id)

	if err := l.store.Save(ctx, l.sorted()); err != nil {
		l.ids[id] = struct{}{}
		return fmt.Errorf("saving block list: %w", err)
	}

	return nil
}

func (l *List) sorted() []e.Identity {
	ids := make([]e.Identity, 0, len(l.ids))
	for id := range l.ids {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	return ids
}
