package limiter

import (
    "context"
    "errors"
    "sync"

    "github.com/local/guidereader/internal/metrics"
)

// ErrBusy is returned by TryAcquire when all slots are taken.
var ErrBusy = errors.New("all extraction slots busy")

// Slots bounds the number of extractions running at once. Each extraction
// holds a whole document in memory, so the bound is per process.
type Slots struct {
    ch chan struct{}
    mu sync.Mutex
    n  int
}

func New(max int) *Slots {
    if max <= 0 { max = 4 }
    return &Slots{ch: make(chan struct{}, max)}
}

// Acquire waits for a free slot. The returned release must be called once.
func (s *Slots) Acquire(ctx context.Context) (func(), error) {
    select {
    case s.ch <- struct{}{}:
        return s.taken(), nil
    case <-ctx.Done():
        return func(){}, ctx.Err()
    }
}

// TryAcquire reserves a slot without waiting.
func (s *Slots) TryAcquire() (func(), error) {
    select {
    case s.ch <- struct{}{}:
        return s.taken(), nil
    default:
        return func(){}, ErrBusy
    }
}

// InUse returns the number of held slots.
func (s *Slots) InUse() int {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.n
}

func (s *Slots) taken() func() {
    s.add(1)
    var once sync.Once
    return func() {
        once.Do(func() {
            s.add(-1)
            <-s.ch
        })
    }
}

func (s *Slots) add(d int) {
    s.mu.Lock()
    s.n += d
    n := s.n
    s.mu.Unlock()
    metrics.SetInflight(n)
}
