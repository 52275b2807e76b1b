package netx

import (
	"io"
	"sync"
)

// ProgressFunc receives the cumulative byte count and the expected total.
type ProgressFunc func(sent, total int64)

// ProgressReader reports bytes as they are read from the wrapped reader.
type ProgressReader struct {
	r     io.Reader
	total int64
	fn    ProgressFunc

	mu   sync.Mutex
	sent int64
}

func NewProgressReader(r io.Reader, total int64, fn ProgressFunc) *ProgressReader {
	return &ProgressReader{r: r, total: total, fn: fn}
}

func (p *ProgressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.mu.Lock()
		p.sent += int64(n)
		sent := p.sent
		p.mu.Unlock()
		if p.fn != nil {
			p.fn(sent, p.total)
		}
	}
	return n, err
}

// Sent returns the number of bytes read so far.
func (p *ProgressReader) Sent() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Percent converts a byte count to 0..100, clamped. An unknown total yields 0.
func Percent(sent, total int64) int {
	if total <= 0 || sent <= 0 {
		return 0
	}
	if sent >= total {
		return 100
	}
	return int(sent * 100 / total)
}
