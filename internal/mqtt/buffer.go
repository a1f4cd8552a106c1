package mqtt

// bufferedMsg stores a serialized MQTT message for replay after reconnection.
type bufferedMsg struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ringBuffer is a fixed-capacity FIFO that stores messages while disconnected.
// Alert events arrive in bursts around an approach, so the oldest message is
// dropped on overflow. Not safe for concurrent use: caller must synchronize.
type ringBuffer struct {
	buf     []bufferedMsg
	head    int // next write position
	count   int
	dropped int // messages dropped since last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	return &ringBuffer{buf: make([]bufferedMsg, capacity)}
}

// push appends msg. It reports true on the first drop since the last drain
// so the caller can log once per outage.
func (r *ringBuffer) push(msg bufferedMsg) bool {
	capacity := len(r.buf)
	if capacity == 0 {
		r.dropped++
		return r.dropped == 1
	}
	r.buf[r.head] = msg
	r.head = (r.head + 1) % capacity
	if r.count < capacity {
		r.count++
		return false
	}
	// overwrote the oldest
	r.dropped++
	return r.dropped == 1
}

func (r *ringBuffer) drainAll() []bufferedMsg {
	if r.count == 0 {
		r.dropped = 0
		return nil
	}
	capacity := len(r.buf)
	result := make([]bufferedMsg, r.count)
	start := (r.head - r.count + capacity) % capacity
	for i := range r.count {
		result[i] = r.buf[(start+i)%capacity]
	}
	r.count, r.head, r.dropped = 0, 0, 0
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
