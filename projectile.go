package main

import (
	"math"
	"sync/atomic"
)

const (
	BulletStep     = 0.25 // units per tick
	BulletLifetime = 3.0  // seconds
	BulletDamage   = 10.0
	BulletOffset   = 1.0 // spawn distance in front of the shooter
	BulletHeight   = 0.5 // muzzle height
)

var bulletHalf = Vec3{0.1, 0.1, 0.1}

// bulletSeq issues process-wide monotonically increasing bullet ids.
var bulletSeq atomic.Int64

// Bullet is a live projectile. Owner fields are captured at fire time so
// a hit can be attributed even if the shooter's connection churns.
type Bullet struct {
	ID        int
	OwnerID   string // connection id at fire time, for the wire
	OwnerUUID string
	OwnerName string
	X, Y, Z   float64
	RotationY float64
	Life      float64 // seconds remaining
	Removed   bool
}

// NewBullet spawns a bullet just in front of the shooter, travelling
// along its yaw.
func NewBullet(owner *Player) *Bullet {
	rad := owner.RotationY * math.Pi / 180
	return &Bullet{
		ID:        int(bulletSeq.Add(1)),
		OwnerID:   owner.ConnID,
		OwnerUUID: owner.UUID,
		OwnerName: owner.Name,
		X:         owner.X + math.Sin(rad)*BulletOffset,
		Y:         BulletHeight,
		Z:         owner.Z + math.Cos(rad)*BulletOffset,
		RotationY: owner.RotationY,
		Life:      BulletLifetime,
	}
}

// Advance moves the bullet one tick and burns lifetime.
func (b *Bullet) Advance(dt float64) {
	rad := b.RotationY * math.Pi / 180
	b.X += math.Sin(rad) * BulletStep
	b.Z += math.Cos(rad) * BulletStep
	b.Life -= dt
}

// Box returns the bullet's bounding volume.
func (b *Bullet) Box() Box {
	return Box{Center: Vec3{b.X, b.Y, b.Z}, Half: bulletHalf, YawDeg: b.RotationY}
}

// ToState converts to the wire representation.
func (b *Bullet) ToState() BulletState {
	return BulletState{
		ID:        b.ID,
		OwnerID:   b.OwnerID,
		X:         round2(b.X),
		Y:         round2(b.Y),
		Z:         round2(b.Z),
		RotationY: round2(b.RotationY),
	}
}
