package recovery

import (
	"hash/fnv"
	"sync"

	"github.com/dshills/keypad/internal/filestore"
)

const stripeCount = 16

// Baselines maps document ids to the last change version known to be
// durable, either in a snapshot or on disk. Keys hash onto independently
// locked stripes so the autosave loop and save callbacks contend only when
// they touch the same stripe.
type Baselines struct {
	stripes [stripeCount]stripe
}

type stripe struct {
	mu sync.Mutex
	m  map[filestore.DocumentID]int64
}

// NewBaselines creates an empty baseline map.
func NewBaselines() *Baselines {
	b := &Baselines{}
	for i := range b.stripes {
		b.stripes[i].m = make(map[filestore.DocumentID]int64)
	}
	return b
}

func (b *Baselines) stripeFor(id filestore.DocumentID) *stripe {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return &b.stripes[h.Sum32()%stripeCount]
}

// Get returns the baseline for id.
func (b *Baselines) Get(id filestore.DocumentID) (int64, bool) {
	s := b.stripeFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[id]
	return v, ok
}

// Set records version as the baseline for id.
func (b *Baselines) Set(id filestore.DocumentID, version int64) {
	s := b.stripeFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[id] = version
}

// Delete forgets id.
func (b *Baselines) Delete(id filestore.DocumentID) {
	s := b.stripeFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, id)
}

// CompareAndSwap sets the baseline for id to next only if it currently
// equals old. A missing entry matches only when ok is false.
func (b *Baselines) CompareAndSwap(id filestore.DocumentID, old int64, ok bool, next int64) bool {
	s := b.stripeFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, exists := s.m[id]
	if exists != ok || (exists && cur != old) {
		return false
	}
	s.m[id] = next
	return true
}

// Len returns the number of tracked documents.
func (b *Baselines) Len() int {
	n := 0
	for i := range b.stripes {
		s := &b.stripes[i]
		s.mu.Lock()
		n += len(s.m)
		s.mu.Unlock()
	}
	return n
}
