package logger

import (
	"strconv"
	"strings"
	"sync/atomic"
)

// ratioSampler passes the first num events out of every window of den
// events. A zeroed sampler passes everything.
type ratioSampler struct {
	// ratio packs numerator (high 32 bits) and denominator (low 32 bits)
	// so Allow can read both with one load.
	ratio atomic.Uint64
	seq   atomic.Uint64
}

func newRatioSampler(num, den int) *ratioSampler {
	s := &ratioSampler{}
	s.Set(num, den)
	return s
}

// Set configures the num-out-of-den sampling window and restarts it.
func (s *ratioSampler) Set(num, den int) {
	if num <= 0 || den <= 0 {
		s.ratio.Store(0)
		s.seq.Store(0)
		return
	}
	if num > den {
		num = den
	}
	s.ratio.Store(uint64(num)<<32 | uint64(uint32(den)))
	s.seq.Store(0)
}

// Allow reports whether the current event falls inside the sampled part
// of the window.
func (s *ratioSampler) Allow() bool {
	packed := s.ratio.Load()
	if packed == 0 {
		return true
	}
	num := packed >> 32
	den := packed & 0xffffffff
	n := s.seq.Add(1)
	return (n-1)%den < num
}

// parseRatioSpec reads "N/M" or a bare "M" (meaning 1/M). Anything else,
// including non-positive values, disables sampling.
func parseRatioSpec(spec string) (int, int) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return 0, 0
	}
	if numStr, denStr, ok := strings.Cut(spec, "/"); ok {
		num, errN := strconv.Atoi(strings.TrimSpace(numStr))
		den, errD := strconv.Atoi(strings.TrimSpace(denStr))
		if errN != nil || errD != nil {
			return 0, 0
		}
		return num, den
	}
	v, err := strconv.Atoi(spec)
	if err != nil || v <= 0 {
		return 0, 0
	}
	return 1, v
}
