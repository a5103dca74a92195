package numpty

import (
	"sync"
	"time"
)

// arrivalHistory is how many recent output chunks are remembered.
const arrivalHistory = 64

// Arrival records one chunk of child output.
type Arrival struct {
	At   time.Time
	Size int
}

// outputLog is the timestamped record of output chunks. The session reader
// is its only writer; Settle polls it.
type outputLog struct {
	mu      sync.Mutex
	ring    [arrivalHistory]Arrival
	seq     uint64 // chunks recorded so far
	bytes   uint64
	arrived chan struct{}
}

func newOutputLog() *outputLog {
	return &outputLog{arrived: make(chan struct{}, 1)}
}

// record appends a chunk and wakes a waiting Settle, if any.
func (l *outputLog) record(size int, at time.Time) {
	l.mu.Lock()
	l.ring[l.seq%arrivalHistory] = Arrival{At: at, Size: size}
	l.seq++
	l.bytes += uint64(size)
	l.mu.Unlock()

	select {
	case l.arrived <- struct{}{}:
	default:
	}
}

// latest returns the sequence number and timestamp of the newest chunk.
func (l *outputLog) latest() (uint64, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.seq == 0 {
		return 0, time.Time{}
	}
	return l.seq, l.ring[(l.seq-1)%arrivalHistory].At
}

// since returns the remembered arrivals after sequence number seq, oldest first.
func (l *outputLog) since(seq uint64) []Arrival {
	l.mu.Lock()
	defer l.mu.Unlock()
	if seq >= l.seq {
		return nil
	}
	if l.seq-seq > arrivalHistory {
		seq = l.seq - arrivalHistory
	}
	out := make([]Arrival, 0, l.seq-seq)
	for i := seq; i < l.seq; i++ {
		out = append(out, l.ring[i%arrivalHistory])
	}
	return out
}

// totals returns the number of chunks and bytes recorded.
func (l *outputLog) totals() (uint64, uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq, l.bytes
}
