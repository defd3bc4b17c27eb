package app

import (
	"sync"

	"lanchat/internal/session"
)

// routed pairs an open session with the channel feeding it console lines.
type routed struct {
	session *session.Session
	input   chan string
}

// foreground keeps open sessions in the order they were opened. The oldest
// one receives console input.
type foreground struct {
	mu    sync.Mutex
	queue []*routed
}

func (f *foreground) push(s *session.Session) *routed {
	r := &routed{session: s, input: make(chan string)}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = append(f.queue, r)
	return r
}

func (f *foreground) remove(r *routed) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, q := range f.queue {
		if q == r {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return
		}
	}
}

func (f *foreground) current() *routed {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return nil
	}
	return f.queue[0]
}

func (f *foreground) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
