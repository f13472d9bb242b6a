package env

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// Action is one of the ship controls
type Action int

const (
	ActionRotateLeft Action = iota
	ActionRotateRight
	ActionThrust
	ActionShoot

	NumActions = 4
)

func (a Action) String() string {
	switch a {
	case ActionRotateLeft:
		return "left"
	case ActionRotateRight:
		return "right"
	case ActionThrust:
		return "thrust"
	case ActionShoot:
		return "shoot"
	default:
		return "unknown"
	}
}

const (
	shipRadius        = 20.0
	shipTurnSpeed     = 300.0 // degrees per second
	shipSpeed         = 200.0
	shotSpeed         = 500.0
	shotRadius        = 5.0
	shotCooldown      = 0.3
	asteroidMinRadius = 20.0
	asteroidKinds     = 3
	asteroidMinSpeed  = 40.0
	asteroidMaxSpeed  = 100.0
)

// Settings describes the arena; it is everything needed to replay an episode
type Settings struct {
	Width         float64 `json:"width"`
	Height        float64 `json:"height"`
	Dt            float64 `json:"dt"`
	TickCap       int     `json:"tick_cap"`
	Lives         int     `json:"lives"`
	SpawnInterval float64 `json:"spawn_interval"`
	MaxAsteroids  int     `json:"max_asteroids"`
}

// DefaultSettings is a 1280x720 arena stepped at 20 ticks per second
func DefaultSettings() Settings {
	return Settings{
		Width:         1280,
		Height:        720,
		Dt:            0.05,
		TickCap:       2000,
		Lives:         3,
		SpawnInterval: 0.8,
		MaxAsteroids:  12,
	}
}

// Body is a moving circle
type Body struct {
	Pos    r2.Vec
	Vel    r2.Vec
	Radius float64
}

func (b *Body) overlaps(o *Body) bool {
	return r2.Norm(r2.Sub(b.Pos, o.Pos)) <= b.Radius+o.Radius
}

// Ship is the player-controlled body
type Ship struct {
	Body
	Rotation  float64 // degrees
	shotTimer float64
}

// Forward is the unit heading vector
func (s *Ship) Forward() r2.Vec {
	rad := s.Rotation * math.Pi / 180
	return r2.Vec{X: -math.Sin(rad), Y: math.Cos(rad)}
}

// Game is a headless asteroid field episode
type Game struct {
	Settings

	Ship      Ship
	Asteroids []*Body
	Shots     []*Body

	Tick        int
	Score       float64
	Lives       int
	Kills       int
	Alive       bool
	DeathReason DeathReason
	used        [NumActions]bool

	spawnTimer float64
	rng        *rand.Rand
}

// NewGame creates a new game instance
func NewGame(s Settings, seed uint32) *Game {
	g := &Game{
		Settings: s,
		rng:      rand.New(rand.NewSource(int64(seed))),
	}
	g.Reset()
	return g
}

// Reset initializes the game to starting state
func (g *Game) Reset() {
	g.Ship = Ship{Body: Body{Pos: r2.Vec{X: g.Width / 2, Y: g.Height / 2}, Radius: shipRadius}}
	g.Asteroids = nil
	g.Shots = nil
	g.Tick = 0
	g.Score = 0
	g.Lives = g.Settings.Lives
	g.Kills = 0
	g.Alive = true
	g.DeathReason = DeathNone
	g.used = [NumActions]bool{}
	g.spawnTimer = 0
}

// Step advances the game by one tick with the given action
func (g *Game) Step(action Action) {
	if !g.Alive {
		return
	}
	g.Tick++
	if action >= 0 && action < NumActions {
		g.used[action] = true
	}

	g.steer(action)
	if !g.inBounds(g.Ship.Pos, 0) {
		g.die(DeathBounds)
		return
	}

	g.spawnTimer -= g.Dt
	if g.spawnTimer <= 0 && len(g.Asteroids) < g.MaxAsteroids {
		g.spawnAsteroid()
		g.spawnTimer = g.SpawnInterval
	}
	g.Asteroids = g.advance(g.Asteroids)
	g.Shots = g.advance(g.Shots)

	if g.resolveCollisions() {
		return
	}

	if g.Tick >= g.TickCap {
		g.die(DeathTimeout)
	}
}

func (g *Game) steer(action Action) {
	s := &g.Ship
	s.shotTimer -= g.Dt
	s.Vel = r2.Vec{}

	switch action {
	case ActionRotateLeft:
		s.Rotation -= shipTurnSpeed * g.Dt
	case ActionRotateRight:
		s.Rotation += shipTurnSpeed * g.Dt
	case ActionThrust:
		s.Vel = r2.Scale(shipSpeed, s.Forward())
	case ActionShoot:
		if s.shotTimer <= 0 {
			g.Shots = append(g.Shots, &Body{
				Pos:    s.Pos,
				Vel:    r2.Scale(shotSpeed, s.Forward()),
				Radius: shotRadius,
			})
			s.shotTimer = shotCooldown
		}
	}
	s.Pos = r2.Add(s.Pos, r2.Scale(g.Dt, s.Vel))
}

// advance moves bodies and drops the ones that left the arena
func (g *Game) advance(bodies []*Body) []*Body {
	kept := bodies[:0]
	for _, b := range bodies {
		b.Pos = r2.Add(b.Pos, r2.Scale(g.Dt, b.Vel))
		if g.inBounds(b.Pos, b.Radius) {
			kept = append(kept, b)
		}
	}
	return kept
}

// resolveCollisions reports whether the episode ended
func (g *Game) resolveCollisions() bool {
	var survivors []*Body
	for _, a := range g.Asteroids {
		if a.overlaps(&g.Ship.Body) {
			g.Lives--
			if g.Lives <= 0 {
				g.die(DeathCollision)
				return true
			}
			// only a hit the ship survives costs points
			g.Score -= asteroidPoints(a)
			continue
		}

		hit := -1
		for i, s := range g.Shots {
			if a.overlaps(s) {
				hit = i
				break
			}
		}
		if hit < 0 {
			survivors = append(survivors, a)
			continue
		}
		g.Shots = append(g.Shots[:hit], g.Shots[hit+1:]...)
		g.Score += asteroidPoints(a)
		g.Kills++
		survivors = append(survivors, g.split(a)...)
	}
	g.Asteroids = survivors
	return false
}

// split breaks an asteroid into two smaller ones, or destroys the smallest kind
func (g *Game) split(a *Body) []*Body {
	if a.Radius <= asteroidMinRadius {
		return nil
	}
	angle := (20 + g.rng.Float64()*30) * math.Pi / 180
	radius := a.Radius - asteroidMinRadius
	vel := r2.Scale(1.2, a.Vel)
	return []*Body{
		{Pos: a.Pos, Vel: r2.Rotate(vel, angle, r2.Vec{}), Radius: radius},
		{Pos: a.Pos, Vel: r2.Rotate(vel, -angle, r2.Vec{}), Radius: radius},
	}
}

// spawnAsteroid places an asteroid on a random edge heading into the arena
func (g *Game) spawnAsteroid() {
	kind := 1 + g.rng.Intn(asteroidKinds)
	radius := asteroidMinRadius * float64(kind)

	var pos, dir r2.Vec
	switch g.rng.Intn(4) {
	case 0: // left
		pos, dir = r2.Vec{X: -radius, Y: g.rng.Float64() * g.Height}, r2.Vec{X: 1}
	case 1: // right
		pos, dir = r2.Vec{X: g.Width + radius, Y: g.rng.Float64() * g.Height}, r2.Vec{X: -1}
	case 2: // top
		pos, dir = r2.Vec{X: g.rng.Float64() * g.Width, Y: -radius}, r2.Vec{Y: 1}
	default: // bottom
		pos, dir = r2.Vec{X: g.rng.Float64() * g.Width, Y: g.Height + radius}, r2.Vec{Y: -1}
	}
	speed := asteroidMinSpeed + g.rng.Float64()*(asteroidMaxSpeed-asteroidMinSpeed)
	spread := (g.rng.Float64()*60 - 30) * math.Pi / 180
	vel := r2.Rotate(r2.Scale(speed, dir), spread, r2.Vec{})

	g.Asteroids = append(g.Asteroids, &Body{Pos: pos, Vel: vel, Radius: radius})
}

func (g *Game) inBounds(p r2.Vec, margin float64) bool {
	return p.X >= -margin && p.X <= g.Width+margin && p.Y >= -margin && p.Y <= g.Height+margin
}

func (g *Game) die(reason DeathReason) {
	g.Alive = false
	g.DeathReason = reason
}

// asteroidPoints rewards smaller asteroids more
func asteroidPoints(a *Body) float64 {
	kind := math.Max(1, math.Round(a.Radius/asteroidMinRadius))
	return 100 / kind
}

// DistinctActions counts the different actions taken so far
func (g *Game) DistinctActions() int {
	n := 0
	for _, u := range g.used {
		if u {
			n++
		}
	}
	return n
}

// Nearest returns the closest asteroid to the ship and its distance
func (g *Game) Nearest() (*Body, float64) {
	var best *Body
	bestDist := math.Inf(1)
	for _, a := range g.Asteroids {
		d := r2.Norm(r2.Sub(a.Pos, g.Ship.Pos))
		if d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, bestDist
}

// Stats returns the episode statistics
func (g *Game) Stats(seed uint32) EpisodeStats {
	return EpisodeStats{
		Score:           g.Score,
		Ticks:           g.Tick,
		Kills:           g.Kills,
		LivesLeft:       g.Lives,
		DistinctActions: g.DistinctActions(),
		Death:           g.DeathReason,
		Seed:            seed,
	}
}
