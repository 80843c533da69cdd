// Package frontier holds the per-crawl queue of URLs waiting to be fetched
// together with the set of URLs already accepted.
package frontier

import (
	"sync"
)

type Frontier struct {
	queue    []string
	seen     map[string]struct{}
	inFlight int
	maxPages int
	mu       sync.Mutex
}

// New returns an empty frontier. maxPages caps how many distinct URLs are
// ever accepted; zero means no cap.
func New(maxPages int) *Frontier {
	return &Frontier{
		seen:     make(map[string]struct{}),
		maxPages: maxPages,
	}
}

// AddURLs enqueues every unseen URL and returns how many were accepted.
func (f *Frontier) AddURLs(urls []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	added := 0
	for _, url := range urls {
		if f.add(url) {
			added++
		}
	}
	return added
}

// MarkSeen records url as accepted without queueing it.
func (f *Frontier) MarkSeen(url string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[url]; ok || f.full() {
		return false
	}
	f.seen[url] = struct{}{}
	return true
}

func (f *Frontier) add(url string) bool {
	if _, ok := f.seen[url]; ok {
		return false
	}
	if f.full() {
		return false
	}
	f.seen[url] = struct{}{}
	f.queue = append(f.queue, url)
	return true
}

func (f *Frontier) full() bool {
	return f.maxPages > 0 && len(f.seen) >= f.maxPages
}

// GetNext pops the oldest queued URL and counts it as in flight until Done
// is called.
func (f *Frontier) GetNext() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return "", false
	}

	url := f.queue[0]
	f.queue[0] = ""
	f.queue = f.queue[1:]
	f.inFlight++
	return url, true
}

func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight > 0 {
		f.inFlight--
	}
}

// Idle reports whether nothing is queued and nothing is being processed, so
// no further URLs can appear.
func (f *Frontier) Idle() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue) == 0 && f.inFlight == 0
}

// Size returns the number of queued URLs.
func (f *Frontier) Size() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// SeenCount returns how many distinct URLs were accepted.
func (f *Frontier) SeenCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.seen)
}
