package main

import "testing"

func TestMoveDeltaDirections(t *testing.T) {
	cases := []struct {
		name     string
		in       InputCommand
		yaw      float64
		dx, dz   float64
		fwd, rgt int
	}{
		{"forward at yaw 0", InputCommand{Forward: true}, 0, 0, MoveStep, 1, 0},
		{"backward at yaw 0", InputCommand{Backward: true}, 0, 0, -MoveStep, -1, 0},
		{"left at yaw 0", InputCommand{Left: true}, 0, -MoveStep, 0, 0, -1},
		{"right at yaw 0", InputCommand{Right: true}, 0, MoveStep, 0, 0, 1},
		{"forward at yaw 90", InputCommand{Forward: true}, 90, MoveStep, 0, 1, 0},
		{"forward at yaw 180", InputCommand{Forward: true}, 180, 0, -MoveStep, 1, 0},
		{"opposing flags cancel", InputCommand{Forward: true, Backward: true}, 0, 0, 0, 0, 0},
		{"diagonal is not normalized", InputCommand{Forward: true, Right: true}, 0, MoveStep, MoveStep, 1, 1},
	}
	for _, c := range cases {
		dx, dz, fwd, rgt := MoveDelta(c.in, c.yaw)
		if !almostEqual(dx, c.dx) || !almostEqual(dz, c.dz) {
			t.Errorf("%s: delta (%f, %f), want (%f, %f)", c.name, dx, dz, c.dx, c.dz)
		}
		if fwd != c.fwd || rgt != c.rgt {
			t.Errorf("%s: intent (%d, %d), want (%d, %d)", c.name, fwd, rgt, c.fwd, c.rgt)
		}
	}
}

func TestWrapDegrees(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{0, 0}, {360, 0}, {370, 10}, {-10, 350}, {725, 5}, {-725, 355},
	}
	for _, c := range cases {
		if got := WrapDegrees(c.in); !almostEqual(got, c.want) {
			t.Errorf("WrapDegrees(%f) = %f, want %f", c.in, got, c.want)
		}
	}
}

func TestApplyDamageClampsAtZero(t *testing.T) {
	p := NewPlayer("u", "c", "n", "", 0)
	if died := p.ApplyDamage(30); died || p.Health != 70 {
		t.Errorf("after 30 dmg: died=%v health=%f", died, p.Health)
	}
	if died := p.ApplyDamage(500); !died || p.Health != 0 {
		t.Errorf("overkill: died=%v health=%f", died, p.Health)
	}
	// Hitting a corpse neither kills again nor goes negative
	if died := p.ApplyDamage(10); died || p.Health != 0 {
		t.Errorf("post-death: died=%v health=%f", died, p.Health)
	}
}

func TestNewPlayerSpawnSlots(t *testing.T) {
	a := NewPlayer("ua", "ca", "a", "", 0)
	b := NewPlayer("ub", "cb", "b", "", 1)
	if a.X != 0 || a.Z != -6 || a.RotationY != 0 {
		t.Errorf("first spawn at (%f, %f) yaw %f", a.X, a.Z, a.RotationY)
	}
	if b.X != 0 || b.Z != 6 || b.RotationY != 180 {
		t.Errorf("second spawn at (%f, %f) yaw %f", b.X, b.Z, b.RotationY)
	}
	if a.Health != PlayerMaxHealth || !a.Connected || !a.GraceUntil.IsZero() {
		t.Error("fresh player should be connected at full health with no grace deadline")
	}
}
