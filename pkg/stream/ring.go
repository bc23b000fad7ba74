package stream

// LogBuffer is a capped ring of display lines backed by a separately
// retained full log. The ring bounds what the live view renders; the full
// slice keeps the authoritative record for export rather than truncating it.
type LogBuffer struct {
	capacity int
	ring     []string
	head     int
	filled   bool
	full     []string
}

// NewLogBuffer creates a LogBuffer whose ring holds at most capacity lines.
// A non-positive capacity falls back to 1.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &LogBuffer{
		capacity: capacity,
		ring:     make([]string, capacity),
	}
}

// Append records a line, evicting the oldest ring entry once full.
func (b *LogBuffer) Append(line string) {
	b.full = append(b.full, line)

	b.ring[b.head] = line
	b.head = (b.head + 1) % b.capacity
	if b.head == 0 {
		b.filled = true
	}
}

// Tail returns the ring contents oldest-first.
func (b *LogBuffer) Tail() []string {
	if !b.filled {
		out := make([]string, b.head)
		copy(out, b.ring[:b.head])
		return out
	}

	out := make([]string, 0, b.capacity)
	out = append(out, b.ring[b.head:]...)
	out = append(out, b.ring[:b.head]...)
	return out
}

// All returns every line ever appended, in order.
func (b *LogBuffer) All() []string {
	out := make([]string, len(b.full))
	copy(out, b.full)
	return out
}

// Len is the total number of lines appended, including evicted ones.
func (b *LogBuffer) Len() int {
	return len(b.full)
}
