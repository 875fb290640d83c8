package main

// Obstacle is a static box in the arena. Size is the half-extent vector;
// the wire format carries full sizes (the client scales meshes by them).
type Obstacle struct {
	ID         int
	X, Y, Z    float64
	Size       Vec3
	RotationY  float64
	PrefabType int
}

// Box returns the obstacle's bounding volume.
func (o *Obstacle) Box() Box {
	return Box{Center: Vec3{o.X, o.Y, o.Z}, Half: o.Size, YawDeg: o.RotationY}
}

// MovingObstacle oscillates vertically between MinY and MaxY, reversing
// direction at each bound.
type MovingObstacle struct {
	Obstacle
	MinY, MaxY float64
	Step       float64 // units per tick
	dir        float64 // +1 or -1
}

// Advance moves the obstacle one tick along its oscillation axis. A small
// overshoot past a bound is clamped back before the direction flips.
func (m *MovingObstacle) Advance() {
	m.Y = Clamp(m.Y+m.Step*m.dir, m.MinY, m.MaxY)
	if m.Y >= m.MaxY {
		m.dir = -1
	} else if m.Y <= m.MinY {
		m.dir = 1
	}
}

const (
	arenaHalf   = 10.0 // arena extends ±arenaHalf on x and z
	wallHeight  = 1.5
	wallHalf    = 0.25
	platformStep = 0.02
)

// defaultArena builds the fixed obstacle layout: four boundary walls,
// three cover props, and two vertically oscillating platforms.
func defaultArena() ([]Obstacle, []*MovingObstacle) {
	static := []Obstacle{
		// Boundary walls
		{ID: 1, X: 0, Z: -arenaHalf, Size: Vec3{arenaHalf + wallHalf, wallHeight, wallHalf}},
		{ID: 2, X: 0, Z: arenaHalf, Size: Vec3{arenaHalf + wallHalf, wallHeight, wallHalf}},
		{ID: 3, X: -arenaHalf, Z: 0, Size: Vec3{wallHalf, wallHeight, arenaHalf + wallHalf}},
		{ID: 4, X: arenaHalf, Z: 0, Size: Vec3{wallHalf, wallHeight, arenaHalf + wallHalf}},
		// Cover props
		{ID: 5, X: 2, Z: 2, Size: Vec3{0.5, 0.5, 0.5}, RotationY: 30, PrefabType: 0},
		{ID: 6, X: -1, Z: -3, Size: Vec3{1, 0.5, 1}, PrefabType: 1},
		{ID: 7, X: 0, Z: 5, Size: Vec3{0.5, 0.5, 0.5}, PrefabType: 0},
	}
	moving := []*MovingObstacle{
		{
			Obstacle: Obstacle{ID: 8, X: 5, Y: 0, Z: -5, Size: Vec3{1, 0.25, 1}, PrefabType: 2},
			MinY:     0, MaxY: 2, Step: platformStep, dir: 1,
		},
		{
			Obstacle: Obstacle{ID: 9, X: -5, Y: 2, Z: 5, Size: Vec3{1, 0.25, 1}, PrefabType: 2},
			MinY:     0, MaxY: 2, Step: platformStep, dir: -1,
		},
	}
	return static, moving
}
