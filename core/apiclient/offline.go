package apiclient

import (
	"container/list"
	"sync"
)

// offlineCache keeps the last successful GET response per path so reads
// can be served stale when the network is down, mirroring the browser
// build's network-first service-worker policy for API paths. It governs
// availability of stale data only, never session correctness.
const maxCachedResponses = 256

type offlineCache struct {
	mu      sync.RWMutex
	entries map[string][]byte
	order   *list.List // paths, oldest first
	keys    map[string]*list.Element
}

func newOfflineCache() *offlineCache {
	return &offlineCache{
		entries: make(map[string][]byte),
		order:   list.New(),
		keys:    make(map[string]*list.Element),
	}
}

func (oc *offlineCache) store(path string, body []byte) {
	oc.mu.Lock()
	defer oc.mu.Unlock()

	if el, ok := oc.keys[path]; ok {
		oc.order.MoveToBack(el)
	} else {
		oc.keys[path] = oc.order.PushBack(path)
	}
	oc.entries[path] = body

	for oc.order.Len() > maxCachedResponses {
		oldest := oc.order.Front()
		oc.order.Remove(oldest)
		p := oldest.Value.(string)
		delete(oc.entries, p)
		delete(oc.keys, p)
	}
}

func (oc *offlineCache) lookup(path string) ([]byte, bool) {
	oc.mu.RLock()
	defer oc.mu.RUnlock()
	body, ok := oc.entries[path]
	return body, ok
}
