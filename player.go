package main

import (
	"math"
	"time"
)

const (
	PlayerMaxHealth = 100.0
	MoveStep        = 0.05 // units per tick
	ShootCooldown   = 0.5  // seconds between shots
	GracePeriod     = 10 * time.Second
)

// playerHalf is the player bounding-box half-extent vector.
var playerHalf = Vec3{0.45, 0.5, 0.45}

// Spawn points for the first and second join, facing each other across
// the arena center.
var spawnPoints = [2]struct {
	X, Y, Z, RotY float64
}{
	{0, 0, -6, 0},
	{0, 0, 6, 180},
}

// Player is the authoritative state for one participant. UUID is the
// stable external identity; ConnID is the transient per-connection id the
// wire protocol keys players by.
type Player struct {
	UUID         string
	ConnID       string
	Name         string
	ProfileImage string

	X, Y, Z   float64
	RotationY float64
	Forward   int // movement-intent axes for animation, -1/0/1
	Right     int

	Health  float64
	ShootCD float64 // seconds until the next shot is allowed
	Score   int     // hits landed

	Connected  bool
	GraceUntil time.Time // zero while connected
}

// NewPlayer creates a player at the given spawn slot.
func NewPlayer(uuid, connID, name, profileImage string, spawn int) *Player {
	sp := spawnPoints[spawn%len(spawnPoints)]
	return &Player{
		UUID:         uuid,
		ConnID:       connID,
		Name:         name,
		ProfileImage: profileImage,
		X:            sp.X,
		Y:            sp.Y,
		Z:            sp.Z,
		RotationY:    sp.RotY,
		Health:       PlayerMaxHealth,
		Connected:    true,
	}
}

// Box returns the player's bounding volume at its current position.
func (p *Player) Box() Box {
	return Box{Center: Vec3{p.X, p.Y, p.Z}, Half: playerHalf, YawDeg: p.RotationY}
}

// BoxAt returns the player's bounding volume at a proposed position.
func (p *Player) BoxAt(x, z float64) Box {
	return Box{Center: Vec3{x, p.Y, z}, Half: playerHalf, YawDeg: p.RotationY}
}

// ApplyDamage reduces health, clamped at 0, and returns true if the
// player just died.
func (p *Player) ApplyDamage(dmg float64) bool {
	if p.Health <= 0 {
		return false
	}
	p.Health -= dmg
	if p.Health <= 0 {
		p.Health = 0
		return true
	}
	return false
}

// MoveDelta resolves the four pressed flags against a yaw into a
// world-space displacement plus the intent axes. Each pressed direction
// contributes a full MoveStep along the rotated axis; opposing flags
// cancel and simultaneous forward+strafe is faster than axis-aligned
// movement. That non-normalized resolution is carried over from the
// original server on purpose.
func MoveDelta(in InputCommand, yawDeg float64) (dx, dz float64, forward, right int) {
	rad := yawDeg * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	if in.Forward {
		dx += sin * MoveStep
		dz += cos * MoveStep
		forward++
	}
	if in.Backward {
		dx -= sin * MoveStep
		dz -= cos * MoveStep
		forward--
	}
	if in.Left {
		dx -= cos * MoveStep
		dz += sin * MoveStep
		right--
	}
	if in.Right {
		dx += cos * MoveStep
		dz -= sin * MoveStep
		right++
	}
	return
}

// WrapDegrees normalizes an angle to [0,360).
func WrapDegrees(a float64) float64 {
	a = math.Mod(a, 360)
	if a < 0 {
		a += 360
	}
	return a
}

// ToState converts to the wire representation.
func (p *Player) ToState() PlayerState {
	return PlayerState{
		ID:           p.ConnID,
		UUID:         p.UUID,
		Name:         p.Name,
		ProfileImage: p.ProfileImage,
		X:            p.X,
		Y:            p.Y,
		Z:            p.Z,
		RotationY:    p.RotationY,
		Forward:      p.Forward,
		Right:        p.Right,
		Health:       p.Health,
	}
}
