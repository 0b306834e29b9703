package shading

import (
	"github.com/Carmen-Shannon/oxy-graph/common"
	"github.com/chewxy/math32"
)

const (
	// AutomatonGrid is the number of cells along each axis of the simulation.
	AutomatonGrid = 128
	// AutomatonRadius is the neighborhood half-width; the neighborhood is 7x7 minus the center.
	AutomatonRadius = 3
	// SeedFrames is the number of frames during which cells are seeded from a coordinate hash.
	SeedFrames = 10
)

// Rule maps an inclusive range of live neighbor counts to a cell state.
type Rule struct {
	Min, Max int
	Alive    bool
}

// RuleTable is an ordered list of rules. The first rule whose range covers a count wins;
// counts no rule covers keep the cell's previous state.
type RuleTable []Rule

// DefaultRules is the rule set of the automaton pass.
var DefaultRules = RuleTable{
	{Min: 0, Max: 9, Alive: false},
	{Min: 14, Max: 17, Alive: true},
	{Min: 24, Max: 48, Alive: false},
}

// Apply returns the next state for a cell with count live neighbors.
//
// Parameters:
//   - count: live cells in the neighborhood, excluding the cell itself
//   - prev: the cell's previous state
//
// Returns:
//   - [4]float32: all ones for alive, all zeros for dead, prev when no rule matches
func (t RuleTable) Apply(count int, prev [4]float32) [4]float32 {
	for _, r := range t {
		if count < r.Min || count > r.Max {
			continue
		}
		if r.Alive {
			return [4]float32{1, 1, 1, 1}
		}
		return [4]float32{}
	}
	return prev
}

// Hash2 is the coordinate hash used to seed the grid: fract(sin(dot(c, (12.9898, 78.233))) * 43758.5453).
func Hash2(x, y float32) float32 {
	return common.Fract(math32.Sin(x*12.9898+y*78.233) * 43758.5453)
}

// CountNeighbors counts live cells in the 7x7 neighborhood of (x, y), excluding (x, y).
// alive reports whether a cell is live; callers decide how out-of-grid cells behave.
func CountNeighbors(x, y int, alive func(x, y int) bool) int {
	n := 0
	for dy := -AutomatonRadius; dy <= AutomatonRadius; dy++ {
		for dx := -AutomatonRadius; dx <= AutomatonRadius; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if alive(x+dx, y+dy) {
				n++
			}
		}
	}
	return n
}

// Step advances one cell. While frame < SeedFrames the cell is seeded from Hash2 of its
// coordinates; afterwards rules decide from the live neighbor count.
//
// Parameters:
//   - rules: the rule table
//   - frame: the frame counter
//   - x, y: the cell coordinates
//   - prev: the cell's previous state
//   - count: live neighbors, see CountNeighbors
//
// Returns:
//   - [4]float32: the cell's next state
func Step(rules RuleTable, frame float32, x, y int, prev [4]float32, count int) [4]float32 {
	if frame < SeedFrames {
		if Hash2(float32(x), float32(y)) >= 0.5 {
			return [4]float32{1, 1, 1, 1}
		}
		return [4]float32{}
	}
	return rules.Apply(count, prev)
}
