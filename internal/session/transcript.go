package session

import (
	"sync"
	"time"
)

// Observer receives the two append-only transcript streams the session
// produces: connection/protocol lifecycle events and payloads extracted
// from inbound frames. The UI layer implements this.
type Observer interface {
	ActivityInformation(entry string)
	MessageReceived(entry string)
}

const entryTimeFormat = "15:04:05.000"

type transcriptKind int

const (
	activityEntry transcriptKind = iota
	messageEntry
)

type transcriptEntry struct {
	kind transcriptKind
	text string
	at   time.Time
}

// transcript marshals appends from the write path and the receive loop
// onto a single dispatcher goroutine, so entries from concurrent writers
// never interleave mid-entry.
type transcript struct {
	observer Observer
	entries  chan transcriptEntry
	done     chan struct{}

	mu     sync.RWMutex
	closed bool
}

func newTranscript(observer Observer) *transcript {
	t := &transcript{
		observer: observer,
		entries:  make(chan transcriptEntry, 64),
		done:     make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *transcript) run() {
	defer close(t.done)
	for e := range t.entries {
		line := e.at.Format(entryTimeFormat) + ": " + e.text + "\n\n"
		switch e.kind {
		case activityEntry:
			t.observer.ActivityInformation(line)
		case messageEntry:
			t.observer.MessageReceived(line)
		}
	}
}

func (t *transcript) activity(text string) {
	t.append(transcriptEntry{kind: activityEntry, text: text, at: time.Now()})
}

func (t *transcript) message(text string) {
	t.append(transcriptEntry{kind: messageEntry, text: text, at: time.Now()})
}

func (t *transcript) append(e transcriptEntry) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	t.entries <- e
}

// close stops the dispatcher after draining pending entries. Appends
// arriving afterwards are dropped.
func (t *transcript) close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	t.mu.Unlock()

	close(t.entries)
	<-t.done
}
