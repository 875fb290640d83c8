package main

import "testing"

func TestBulletIDsIncrease(t *testing.T) {
	owner := NewPlayer("u", "c", "n", "", 0)
	a := NewBullet(owner)
	b := NewBullet(owner)
	if b.ID <= a.ID {
		t.Errorf("ids must increase: %d then %d", a.ID, b.ID)
	}
}

func TestNewBulletSpawnOffset(t *testing.T) {
	owner := NewPlayer("u", "c", "n", "", 0)
	owner.X, owner.Z = 1, 2
	owner.RotationY = 90
	b := NewBullet(owner)
	if !almostEqual(b.X, 1+BulletOffset) || !almostEqual(b.Z, 2) {
		t.Errorf("bullet at (%f, %f), want (%f, 2)", b.X, b.Z, 1+BulletOffset)
	}
	if b.Y != BulletHeight {
		t.Errorf("bullet height %f, want %f", b.Y, BulletHeight)
	}
	if b.OwnerUUID != "u" || b.OwnerID != "c" {
		t.Error("bullet must remember its shooter")
	}
}

func TestBulletAdvance(t *testing.T) {
	owner := NewPlayer("u", "c", "n", "", 0)
	b := NewBullet(owner) // yaw 0, travels +Z
	z0 := b.Z
	b.Advance(TickDt)
	if !almostEqual(b.Z, z0+BulletStep) || !almostEqual(b.X, 0) {
		t.Errorf("after one tick bullet at (%f, %f)", b.X, b.Z)
	}
	if !almostEqual(b.Life, BulletLifetime-TickDt) {
		t.Errorf("life %f after one tick", b.Life)
	}
}

func TestBulletExpires(t *testing.T) {
	owner := NewPlayer("u", "c", "n", "", 0)
	b := NewBullet(owner)
	ticks := int(BulletLifetime/TickDt) + 2
	for i := 0; i < ticks; i++ {
		b.Advance(TickDt)
	}
	if b.Life > 0 {
		t.Errorf("bullet still alive after %d ticks, life %f", ticks, b.Life)
	}
}
