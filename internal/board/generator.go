package board

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand/v2"
)

// Distribution is the canonical resource pool for the 19-cell layout.
// Sea tiles are never generated.
var Distribution = []struct {
	Resource Resource
	Count    int
}{
	{Wood, 4},
	{Brick, 3},
	{Wheat, 4},
	{Sheep, 4},
	{Ore, 3},
	{Desert, 1},
}

// NumberPool holds one token per non-desert tile.
var NumberPool = []int{2, 3, 3, 4, 4, 5, 5, 6, 6, 8, 8, 9, 9, 10, 10, 11, 11, 12}

// Generator builds boards from a seeded source. Not safe for concurrent use.
type Generator struct {
	seed uint64
	rng  *rand.Rand
}

func NewGenerator(seed uint64) *Generator {
	return &Generator{
		seed: seed,
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

func (g *Generator) Seed() uint64 { return g.seed }

// Generate returns a fresh board from a randomly seeded generator.
func Generate() Board {
	seed, err := NewSeed()
	if err != nil {
		// crypto/rand only fails when the OS source is unavailable.
		seed = rand.Uint64()
	}
	return NewGenerator(seed).Generate()
}

// Generate shuffles both pools with Fisher-Yates (rand.Shuffle) and pairs
// numbers with non-desert resources in order.
func (g *Generator) Generate() Board {
	resources := make([]Resource, 0, TileCount)
	for _, d := range Distribution {
		for i := 0; i < d.Count; i++ {
			resources = append(resources, d.Resource)
		}
	}
	numbers := append([]int(nil), NumberPool...)

	g.rng.Shuffle(len(resources), func(i, j int) { resources[i], resources[j] = resources[j], resources[i] })
	g.rng.Shuffle(len(numbers), func(i, j int) { numbers[i], numbers[j] = numbers[j], numbers[i] })

	out := make(Board, 0, len(resources))
	next := 0
	for i, r := range resources {
		t := Tile{ID: fmt.Sprintf("tile-%d", i), Resource: r}
		if r != Desert {
			n := numbers[next]
			next++
			t.Number = &n
		}
		out = append(out, t)
	}
	return out
}

// NewSeed reads a seed from crypto/rand.
func NewSeed() (uint64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}
