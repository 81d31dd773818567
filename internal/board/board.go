package board

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

type Resource string

const (
	Wood   Resource = "wood"
	Brick  Resource = "brick"
	Wheat  Resource = "wheat"
	Sheep  Resource = "sheep"
	Ore    Resource = "ore"
	Desert Resource = "desert"
	Sea    Resource = "sea"
)

// Resources lists every tile resource in display order.
var Resources = []Resource{Wood, Brick, Wheat, Sheep, Ore, Desert, Sea}

func (r Resource) Valid() bool {
	switch r {
	case Wood, Brick, Wheat, Sheep, Ore, Desert, Sea:
		return true
	default:
		return false
	}
}

// Numbered reports whether tiles of this resource carry a number token.
func (r Resource) Numbered() bool {
	return r.Valid() && r != Desert && r != Sea
}

// DisplayName is the terrain name shown for a resource ("Forests" for wood).
func (r Resource) DisplayName() string {
	switch r {
	case Wood:
		return "Forests"
	case Brick:
		return "Hills"
	case Wheat:
		return "Fields"
	case Sheep:
		return "Pastures"
	case Ore:
		return "Mountains"
	case Desert:
		return "Desert"
	case Sea:
		return "Sea"
	default:
		return string(r)
	}
}

type Port string

const (
	PortWood    Port = "wood"
	PortBrick   Port = "brick"
	PortWheat   Port = "wheat"
	PortSheep   Port = "sheep"
	PortOre     Port = "ore"
	PortGeneric Port = "3:1"
)

func (p Port) Valid() bool {
	switch p {
	case PortWood, PortBrick, PortWheat, PortSheep, PortOre, PortGeneric:
		return true
	default:
		return false
	}
}

// Tile is one hex cell. Number and Port are nil when absent and encode as
// JSON null.
type Tile struct {
	ID       string   `json:"id"`
	Resource Resource `json:"resource"`
	Number   *int     `json:"number"`
	Port     *Port    `json:"port"`
}

// Board is the full tile arrangement in row-major order.
type Board []Tile

const (
	TileCount = 19

	MinNumber = 2
	MaxNumber = 12
)

// RowSizes is the standard 3-4-5-4-3 layout.
var RowSizes = []int{3, 4, 5, 4, 3}

// Rows splits the board into the standard layout rows. Boards of the wrong
// length are split as far as they go; the last row may be short.
func (b Board) Rows() [][]Tile {
	out := make([][]Tile, 0, len(RowSizes))
	start := 0
	for _, n := range RowSizes {
		if start >= len(b) {
			break
		}
		end := start + n
		if end > len(b) {
			end = len(b)
		}
		out = append(out, b[start:end])
		start = end
	}
	return out
}

// Equal compares boards tile by tile, dereferencing number and port.
func (b Board) Equal(o Board) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if !b[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

func (t Tile) Equal(o Tile) bool {
	if t.ID != o.ID || t.Resource != o.Resource {
		return false
	}
	if (t.Number == nil) != (o.Number == nil) {
		return false
	}
	if t.Number != nil && *t.Number != *o.Number {
		return false
	}
	if (t.Port == nil) != (o.Port == nil) {
		return false
	}
	return t.Port == nil || *t.Port == *o.Port
}

// Clone returns a deep copy; number and port pointers are not shared.
func (b Board) Clone() Board {
	if b == nil {
		return nil
	}
	out := make(Board, len(b))
	for i, t := range b {
		out[i] = Tile{ID: t.ID, Resource: t.Resource}
		if t.Number != nil {
			n := *t.Number
			out[i].Number = &n
		}
		if t.Port != nil {
			p := *t.Port
			out[i].Port = &p
		}
	}
	return out
}

// Validate checks the structural invariants of a board: tile count, unique
// non-empty ids, known resources/ports, and number presence by resource.
func (b Board) Validate() error {
	if len(b) != TileCount {
		return fmt.Errorf("board must have %d tiles, got %d", TileCount, len(b))
	}
	seen := make(map[string]bool, len(b))
	for i, t := range b {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tile %d: %w", i, err)
		}
		if seen[t.ID] {
			return fmt.Errorf("tile %d: duplicate id %q", i, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func (t Tile) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("empty id")
	}
	// JSON cannot carry invalid UTF-8 without rewriting it.
	if !utf8.ValidString(t.ID) {
		return fmt.Errorf("id %q is not valid UTF-8", t.ID)
	}
	if !t.Resource.Valid() {
		return fmt.Errorf("unknown resource %q", t.Resource)
	}
	if t.Resource.Numbered() {
		if t.Number == nil {
			return fmt.Errorf("%s tile %s has no number", t.Resource, t.ID)
		}
		n := *t.Number
		if n < MinNumber || n > MaxNumber || n == 7 {
			return fmt.Errorf("tile %s number %d out of range", t.ID, n)
		}
	} else if t.Number != nil {
		return fmt.Errorf("%s tile %s must not have a number", t.Resource, t.ID)
	}
	if t.Port != nil && !t.Port.Valid() {
		return fmt.Errorf("tile %s unknown port %q", t.ID, *t.Port)
	}
	return nil
}

type Stats struct {
	Tiles     int              `json:"tiles"`
	Resources int              `json:"resources"` // distinct non-desert resources
	Deserts   int              `json:"deserts"`
	Numbered  int              `json:"numbered"`
	Counts    map[Resource]int `json:"counts"`
}

func (b Board) Stats() Stats {
	s := Stats{Tiles: len(b), Counts: map[Resource]int{}}
	for _, t := range b {
		s.Counts[t.Resource]++
		if t.Resource == Desert {
			s.Deserts++
		}
		if t.Number != nil {
			s.Numbered++
		}
	}
	for r, n := range s.Counts {
		if r != Desert && n > 0 {
			s.Resources++
		}
	}
	return s
}
