package depthnoise

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// NormalSource produces a stream of standard-normal draws. Implementations are not safe for
// concurrent use; draws consume shared state in call order.
type NormalSource interface {
	Draw() float64
}

type normalSource struct {
	dist distuv.Normal
}

// NewNormalSource returns a standard-normal stream seeded once from seed.
func NewNormalSource(seed uint64) NormalSource {
	return newPCGNormalSource(seed, 0)
}

func newPCGNormalSource(seed, stream uint64) *normalSource {
	return &normalSource{dist: distuv.Normal{
		Mu:    0,
		Sigma: 1,
		Src:   rand.NewPCG(seed, stream),
	}}
}

func (s *normalSource) Draw() float64 {
	return s.dist.Rand()
}

// RowStreams hands out an independent draw stream for each row of a frame.
type RowStreams func(row int) NormalSource

// FrameRowStreams derives a deterministic stream per row of the given frame. Each (frame, row)
// pair gets its own PCG stream, so consecutive frames of a sequence draw different noise.
func FrameRowStreams(seed, frame uint64) RowStreams {
	return func(row int) NormalSource {
		return newPCGNormalSource(seed, frame<<32|(uint64(row)+1))
	}
}
