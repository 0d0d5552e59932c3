// Package dispatch delivers decoded event occurrences to registered
// listeners, collapsing protocol-level duplicate re-deliveries of hashable
// event types.
package dispatch

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"

	"cdpclient/internal/cdp"
	"cdpclient/internal/codec"
)

// Wildcard subscribes a listener to every event type.
const Wildcard = "*"

// DefaultDedupCap bounds the recently-seen identity set when no cap is
// configured. Eviction is LRU: once the cap is reached the least recently
// seen identity is forgotten and a matching occurrence would be delivered
// again.
const DefaultDedupCap = 1024

type Listener func(*codec.Occurrence)

type SubscriptionID string

type listenerEntry struct {
	id      SubscriptionID
	handler Listener
}

type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]listenerEntry
	index     map[SubscriptionID]string
	seen      *lru.Cache[string, struct{}]
}

func New(dedupCap int) *Dispatcher {
	if dedupCap <= 0 {
		dedupCap = DefaultDedupCap
	}
	seen, _ := lru.New[string, struct{}](dedupCap)
	return &Dispatcher{
		listeners: make(map[string][]listenerEntry),
		index:     make(map[SubscriptionID]string),
		seen:      seen,
	}
}

// Register subscribes handler to the named event type (or Wildcard) and
// returns the handle for Unregister. Listeners fire in registration order.
func (d *Dispatcher) Register(eventName string, handler Listener) SubscriptionID {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := SubscriptionID("sub_" + uuid.New().String())
	d.listeners[eventName] = append(d.listeners[eventName], listenerEntry{id: id, handler: handler})
	d.index[id] = eventName
	return id
}

func (d *Dispatcher) Unregister(id SubscriptionID) {
	d.mu.Lock()
	defer d.mu.Unlock()

	eventName, ok := d.index[id]
	if !ok {
		return
	}
	delete(d.index, id)

	entries := d.listeners[eventName]
	for i, entry := range entries {
		if entry.id == id {
			d.listeners[eventName] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(d.listeners[eventName]) == 0 {
		delete(d.listeners, eventName)
	}
}

// Dispatch delivers occ to every listener registered for its event type and
// to wildcard listeners, synchronously, in registration order. The listener
// list is snapshotted first, so listeners registering or unregistering
// mid-dispatch do not affect the current delivery.
//
// Hashable occurrences whose identity is already in the recently-seen set
// are suppressed. A panicking listener does not stop the rest; failures are
// aggregated into the returned error.
func (d *Dispatcher) Dispatch(occ *codec.Occurrence) error {
	if occ.Key != "" {
		if present, _ := d.seen.ContainsOrAdd(occ.Key, struct{}{}); present {
			log.Debug().Str("event", occ.Name).Str("key", occ.Key).Msg("suppressing duplicate event occurrence")
			return nil
		}
	}

	d.mu.RLock()
	snapshot := make([]listenerEntry, 0, len(d.listeners[occ.Name])+len(d.listeners[Wildcard]))
	snapshot = append(snapshot, d.listeners[occ.Name]...)
	snapshot = append(snapshot, d.listeners[Wildcard]...)
	d.mu.RUnlock()

	var failures []error
	for _, entry := range snapshot {
		if err := d.deliver(entry, occ); err != nil {
			failures = append(failures, err)
		}
	}

	return errors.Join(failures...)
}

func (d *Dispatcher) deliver(entry listenerEntry, occ *codec.Occurrence) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &cdp.ListenerError{
				Subscription: string(entry.id),
				Event:        occ.Name,
				Cause:        r,
			}
		}
	}()

	entry.handler(occ)
	return nil
}

func (d *Dispatcher) ListenerCount() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.index)
}
