package monitoring

// DefaultHistorySize bounds each patient's in-memory snapshot ring.
const DefaultHistorySize = 50

// History is a bounded, insertion-ordered ring of snapshots for one patient.
// Append is O(1); the oldest entry is evicted on overflow. It is not
// goroutine-safe on its own — the Registry serializes access.
type History struct {
	buf   []Snapshot
	start int
	count int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{buf: make([]Snapshot, capacity)}
}

func (h *History) Append(s Snapshot) {
	if h.count < len(h.buf) {
		h.buf[(h.start+h.count)%len(h.buf)] = s
		h.count++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % len(h.buf)
}

func (h *History) Len() int { return h.count }

// Recent returns a copy of the buffered snapshots, oldest to newest.
func (h *History) Recent() []Snapshot {
	out := make([]Snapshot, h.count)
	for i := 0; i < h.count; i++ {
		out[i] = h.buf[(h.start+i)%len(h.buf)]
	}
	return out
}

// RecentDesc returns a copy newest to oldest.
func (h *History) RecentDesc() []Snapshot {
	out := h.Recent()
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
