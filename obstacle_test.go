package main

import "testing"

func TestMovingObstaclePingPong(t *testing.T) {
	m := &MovingObstacle{
		Obstacle: Obstacle{ID: 1, Size: Vec3{1, 0.25, 1}},
		MinY:     0,
		MaxY:     1,
		Step:     0.3,
		dir:      1,
	}

	heights := []float64{0.3, 0.6, 0.9, 1.0, 0.7}
	for i, want := range heights {
		m.Advance()
		if !almostEqual(m.Y, want) {
			t.Errorf("step %d: Y = %f, want %f", i, m.Y, want)
		}
	}
	if m.dir != -1 {
		t.Error("direction should have reversed at the top bound")
	}

	// Long run stays inside the oscillation range
	for i := 0; i < 1000; i++ {
		m.Advance()
		if m.Y < m.MinY || m.Y > m.MaxY {
			t.Fatalf("Y escaped range: %f", m.Y)
		}
	}
}

func TestDefaultArenaLayout(t *testing.T) {
	static, moving := defaultArena()
	if len(static) != 7 {
		t.Errorf("expected 7 static obstacles, got %d", len(static))
	}
	if len(moving) != 2 {
		t.Errorf("expected 2 moving obstacles, got %d", len(moving))
	}
	seen := make(map[int]bool)
	for i := range static {
		if seen[static[i].ID] {
			t.Errorf("duplicate obstacle id %d", static[i].ID)
		}
		seen[static[i].ID] = true
	}
	for _, m := range moving {
		if seen[m.ID] {
			t.Errorf("duplicate obstacle id %d", m.ID)
		}
		seen[m.ID] = true
		if m.dir == 0 {
			t.Error("moving obstacle needs an initial direction")
		}
	}
}
