package match

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync"
)

// GoalGenerator picks the target duration for a round.
type GoalGenerator interface {
	NextGoalMs() int
}

// UniformGoal draws goal times uniformly from [MinMs, MaxMs].
type UniformGoal struct {
	MinMs int
	MaxMs int

	mu  sync.Mutex
	rng *rand.Rand
}

// NewUniformGoal seeds a generator from crypto/rand.
func NewUniformGoal(minMs, maxMs int) (*UniformGoal, error) {
	if minMs <= 0 || maxMs < minMs {
		return nil, fmt.Errorf("invalid goal bounds [%d,%d]", minMs, maxMs)
	}
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("read random seed: %w", err)
	}
	return &UniformGoal{
		MinMs: minMs,
		MaxMs: maxMs,
		rng:   rand.New(rand.NewChaCha8(seed)),
	}, nil
}

// NewSeededGoal returns a deterministic generator.
func NewSeededGoal(minMs, maxMs int, seed uint64) *UniformGoal {
	var s [32]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return &UniformGoal{
		MinMs: minMs,
		MaxMs: maxMs,
		rng:   rand.New(rand.NewChaCha8(s)),
	}
}

func (g *UniformGoal) NextGoalMs() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.MinMs + g.rng.IntN(g.MaxMs-g.MinMs+1)
}
