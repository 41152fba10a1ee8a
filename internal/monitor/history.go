package monitor

import "sync"

// DefaultHistorySize is the number of rate samples retained per
// interface direction.
const DefaultHistorySize = 60

// History keeps per-interface throughput rings for sparkline rendering.
type History struct {
	mu         sync.RWMutex
	size       int
	interfaces map[string]*ifaceHistory
}

type ifaceHistory struct {
	rx *ringBuffer
	tx *ringBuffer
}

// ringBuffer is a fixed-size circular buffer of float64 samples.
type ringBuffer struct {
	data  []float64
	head  int
	count int
	size  int
}

func newRingBuffer(size int) *ringBuffer {
	return &ringBuffer{data: make([]float64, size), size: size}
}

func (r *ringBuffer) push(v float64) {
	r.data[r.head] = v
	r.head = (r.head + 1) % r.size
	if r.count < r.size {
		r.count++
	}
}

// values returns the buffered samples oldest-first.
func (r *ringBuffer) values() []float64 {
	out := make([]float64, 0, r.count)
	start := r.head - r.count
	if start < 0 {
		start += r.size
	}
	for i := 0; i < r.count; i++ {
		out = append(out, r.data[(start+i)%r.size])
	}
	return out
}

// NewHistory creates a history tracker with the given ring size.
func NewHistory(size int) *History {
	if size <= 0 {
		size = DefaultHistorySize
	}
	return &History{size: size, interfaces: make(map[string]*ifaceHistory)}
}

// Push records one rate sample per interface.
func (h *History) Push(rates []Rate) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, r := range rates {
		hist, ok := h.interfaces[r.Name]
		if !ok {
			hist = &ifaceHistory{rx: newRingBuffer(h.size), tx: newRingBuffer(h.size)}
			h.interfaces[r.Name] = hist
		}
		hist.rx.push(r.RxBps)
		hist.tx.push(r.TxBps)
	}
}

// Rx returns the receive-rate history for an interface, oldest first.
func (h *History) Rx(name string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hist, ok := h.interfaces[name]; ok {
		return hist.rx.values()
	}
	return nil
}

// Tx returns the transmit-rate history for an interface, oldest first.
func (h *History) Tx(name string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if hist, ok := h.interfaces[name]; ok {
		return hist.tx.values()
	}
	return nil
}
