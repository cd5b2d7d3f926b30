package events

import (
	"bufio"
	"fmt"
	"os"
	"sync"
)

// MaxEntries bounds the in-memory event ring; the oldest entry is evicted
// once the ring is full.
const MaxEntries = 2000

type entry struct {
	kind    Kind
	payload string
}

// FileSink buffers events in a bounded in-memory ring and writes them to a
// file only on Dump. Record never touches the filesystem, which keeps it safe
// to call under the engine lock.
type FileSink struct {
	mu    sync.Mutex
	path  string
	buf   []entry
	head  int
	count int
}

func NewFileSink(path string) *FileSink {
	return &FileSink{
		path: path,
		buf:  make([]entry, MaxEntries),
	}
}

func (s *FileSink) Record(kind Kind, payload string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.count == len(s.buf) {
		// Ring is full: overwrite the oldest entry.
		s.buf[s.head] = entry{kind: kind, payload: payload}
		s.head = (s.head + 1) % len(s.buf)
		return
	}
	s.buf[(s.head+s.count)%len(s.buf)] = entry{kind: kind, payload: payload}
	s.count++
}

// Len reports the number of buffered entries.
func (s *FileSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Dump truncates the target file and writes the buffered entries oldest
// first, one "<KIND> , <payload>" line each.
func (s *FileSink) Dump() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("unable to open event log: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i := 0; i < s.count; i++ {
		e := s.buf[(s.head+i)%len(s.buf)]
		if _, err := fmt.Fprintf(w, "%s , %s\n", e.kind, e.payload); err != nil {
			return fmt.Errorf("unable to write event log: %w", err)
		}
	}
	return w.Flush()
}
