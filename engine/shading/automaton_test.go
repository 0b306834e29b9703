package shading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleTableApply(t *testing.T) {
	prev := [4]float32{0.25, 0.5, 0.75, 1}
	tests := []struct {
		count int
		want  [4]float32
	}{
		{0, [4]float32{}},
		{9, [4]float32{}},
		{10, prev},
		{13, prev},
		{14, [4]float32{1, 1, 1, 1}},
		{16, [4]float32{1, 1, 1, 1}},
		{17, [4]float32{1, 1, 1, 1}},
		{20, prev},
		{23, prev},
		{24, [4]float32{}},
		{48, [4]float32{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultRules.Apply(tt.count, prev), "count %d", tt.count)
	}
}

func TestCountNeighbors(t *testing.T) {
	all := func(x, y int) bool { return true }
	assert.Equal(t, 48, CountNeighbors(5, 5, all))

	centerOnly := func(x, y int) bool { return x == 5 && y == 5 }
	assert.Equal(t, 0, CountNeighbors(5, 5, centerOnly))

	// only the ring at distance 3 is live
	ring := func(x, y int) bool {
		dx, dy := x-5, y-5
		return max(abs(dx), abs(dy)) == 3
	}
	assert.Equal(t, 24, CountNeighbors(5, 5, ring))

	outside := func(x, y int) bool { return x == 9 || y == 9 }
	assert.Equal(t, 0, CountNeighbors(5, 5, outside), "cells beyond the 7x7 window are ignored")
}

func TestStepSeedsThenFollowsRules(t *testing.T) {
	prev := [4]float32{1, 1, 1, 1}
	for y := range 8 {
		for x := range 8 {
			seed := Step(DefaultRules, 0, x, y, prev, 48)
			want := [4]float32{}
			if Hash2(float32(x), float32(y)) >= 0.5 {
				want = [4]float32{1, 1, 1, 1}
			}
			assert.Equal(t, want, seed, "seed frames ignore the neighborhood")
			assert.Equal(t, seed, Step(DefaultRules, SeedFrames-1, x, y, prev, 48), "seeding is a pure function of the cell")
		}
	}

	assert.Equal(t, [4]float32{}, Step(DefaultRules, SeedFrames, 3, 3, prev, 9))
	assert.Equal(t, [4]float32{1, 1, 1, 1}, Step(DefaultRules, SeedFrames, 3, 3, [4]float32{}, 16))
	assert.Equal(t, prev, Step(DefaultRules, SeedFrames, 3, 3, prev, 20))
}

func TestHash2Range(t *testing.T) {
	for y := range AutomatonGrid {
		for x := 0; x < AutomatonGrid; x += 7 {
			h := Hash2(float32(x), float32(y))
			assert.GreaterOrEqual(t, h, float32(0))
			assert.LessOrEqual(t, h, float32(1))
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
