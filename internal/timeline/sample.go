package timeline

import (
	"time"

	"github.com/example/revise/internal/curve"
)

// Sampling bounds. Point counts outside this window are clamped; the step
// spacing stays even and the final sample always lands exactly on the
// segment's end even when it falls off the grid.
const (
	minSamplePoints = 16
	maxSamplePoints = 320
)

// Point is one sampled retention value.
type Point struct {
	T time.Time `json:"t"`
	R float64   `json:"r"`
}

// Sampler walks a segment's curve lazily: a finite, restartable sequence of
// evenly spaced points. Renderers that stream points reuse one Sampler;
// SampleSegment collects the whole run for everyone else.
type Sampler struct {
	seg   Segment
	floor float64
	step  time.Duration
	n     int
	i     int
	done  bool
}

// NewSampler prepares a sampler over the segment's span with the given point
// count, clamped to [16, 320]. The span is floored to one minute.
func NewSampler(seg Segment, points int, floor float64) *Sampler {
	if points < minSamplePoints {
		points = minSamplePoints
	}
	if points > maxSamplePoints {
		points = maxSamplePoints
	}
	return &Sampler{
		seg:   seg,
		floor: floor,
		step:  seg.Span() / time.Duration(points),
		n:     points,
	}
}

// Next returns the following sample, or false once the sequence is finished.
func (s *Sampler) Next() (Point, bool) {
	if s.done {
		return Point{}, false
	}
	at := s.seg.Start.At.Add(time.Duration(s.i) * s.step)
	end := s.seg.Start.At.Add(s.seg.Span())
	if s.i > s.n || !at.Before(end) {
		// Guarantee the terminal sample sits exactly on the end instant.
		s.done = true
		return Point{T: end, R: s.seg.retention(end, s.floor)}, true
	}
	s.i++
	return Point{T: at, R: s.seg.retention(at, s.floor)}, true
}

// Reset rewinds the sampler to the segment start.
func (s *Sampler) Reset() {
	s.i = 0
	s.done = false
}

// SampleSegment materializes the full evenly spaced sample run for a
// segment, ending exactly on the segment's end instant.
func SampleSegment(seg Segment, points int) []Point {
	return samplePoints(seg, points, curve.DefaultRetentionFloor)
}

func samplePoints(seg Segment, points int, floor float64) []Point {
	sampler := NewSampler(seg, points, floor)
	out := make([]Point, 0, points+1)
	for {
		p, ok := sampler.Next()
		if !ok {
			return out
		}
		out = append(out, p)
	}
}
