package main

// WouldCollide tests a candidate box against every obstacle in the room,
// static first, then moving, short-circuiting on the first hit. Used as
// the movement gate (illegal moves are discarded whole) and as the
// projectile-obstacle impact test. Caller holds the room lock.
func WouldCollide(candidate Box, r *Room) bool {
	for i := range r.obstacles {
		if Intersects(candidate, r.obstacles[i].Box()) {
			return true
		}
	}
	for _, m := range r.moving {
		if Intersects(candidate, m.Box()) {
			return true
		}
	}
	return false
}
