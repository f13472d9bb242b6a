package env

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// ObsDim is the length of the observation vector
const ObsDim = 5

// Observe encodes the game state for the ship's network:
//
//	0: heading in [0, 1)
//	1: distance to the nearest asteroid over the arena diagonal (1 when there is none)
//	2: angle from the ship's heading to that asteroid in [0, 1)
//	3, 4: asteroid velocity relative to the ship, scaled into [-1, 1]
func Observe(g *Game) []float64 {
	obs := make([]float64, ObsDim)
	obs[0] = wrapDegrees(g.Ship.Rotation) / 360

	nearest, dist := g.Nearest()
	if nearest == nil {
		obs[1] = 1
		return obs
	}

	diag := math.Hypot(g.Width, g.Height)
	obs[1] = math.Min(dist/diag, 1)

	delta := r2.Sub(g.Ship.Pos, nearest.Pos)
	toTarget := math.Atan2(delta.Y, delta.X) * 180 / math.Pi
	obs[2] = wrapDegrees(toTarget-g.Ship.Rotation) / 360

	rel := r2.Sub(nearest.Vel, g.Ship.Vel)
	scale := shipSpeed + asteroidMaxSpeed*1.5
	obs[3] = clamp(rel.X/scale, -1, 1)
	obs[4] = clamp(rel.Y/scale, -1, 1)
	return obs
}

func wrapDegrees(d float64) float64 {
	d = math.Mod(d, 360)
	if d < 0 {
		d += 360
	}
	return d
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
