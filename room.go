package main

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

const (
	TickRate     = 60 // simulation ticks per second
	TickDuration = time.Second / TickRate

	RoomCapacity    = 2
	RequiredPlayers = 2

	disposeDelay = 5 * time.Second
	emptyRoomTTL = 10 * time.Minute
)

// TickDt is the fixed per-tick timestep in seconds.
const TickDt = 1.0 / float64(TickRate)

// RoomPhase is the room lifecycle state
type RoomPhase int

const (
	PhaseWaiting RoomPhase = iota
	PhasePlaying
	PhaseFinished
)

// AllowedPlayer is one entry of a room's identity allow-list.
type AllowedPlayer struct {
	UUID         string `json:"uuid"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// Broadcaster delivers events to one connection.
type Broadcaster interface {
	SendJSON(msg interface{})
	SendBinary(data []byte)
}

var (
	ErrRoomNotFound  = errors.New("room not found")
	ErrNotAllowed    = errors.New("identity not allowed in this room")
	ErrRoomFull      = errors.New("room is full")
	ErrAlreadyJoined = errors.New("identity already connected")
	ErrMatchOver     = errors.New("match already finished")
)

// Room is the per-match mutable aggregate. All fields are guarded by mu,
// which is held for the duration of one command or one tick, never across
// external I/O.
type Room struct {
	mu sync.Mutex

	Code      string
	SessionID string

	open   bool // no pre-agreed roster, identities enroll on join
	phase  RoomPhase
	roster []AllowedPlayer

	players map[string]*Player      // connection id -> player
	inputs  map[string]InputCommand // connection id -> latest unconsumed input
	clients map[string]Broadcaster  // connection id -> event sink

	bullets   []*Bullet
	obstacles []Obstacle
	moving    []*MovingObstacle

	nextSpawn int
	createdAt time.Time
	startedAt time.Time
	disposeAt time.Time

	reporter *Reporter
}

// NewRoom creates a room in WAITING with the default arena layout.
func NewRoom(code, sessionID string, roster []AllowedPlayer, open bool, rep *Reporter) *Room {
	static, moving := defaultArena()
	return &Room{
		Code:      code,
		SessionID: sessionID,
		open:      open,
		roster:    roster,
		players:   make(map[string]*Player),
		inputs:    make(map[string]InputCommand),
		clients:   make(map[string]Broadcaster),
		obstacles: static,
		moving:    moving,
		createdAt: time.Now(),
		reporter:  rep,
	}
}

// Open reports whether the room accepts identities outside its roster.
func (r *Room) Open() bool { return r.open }

// Phase returns the current lifecycle phase.
func (r *Room) Phase() RoomPhase {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.phase
}

// PlayerCount returns the number of players, connected or in grace.
func (r *Room) PlayerCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.players)
}

// OnRoster reports whether the identity is on the allow-list.
func (r *Room) OnRoster(uuid string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rosterEntryLocked(uuid) != nil
}

func (r *Room) rosterEntryLocked(uuid string) *AllowedPlayer {
	for i := range r.roster {
		if r.roster[i].UUID == uuid {
			return &r.roster[i]
		}
	}
	return nil
}

func (r *Room) playerByUUIDLocked(uuid string) *Player {
	for _, p := range r.players {
		if p.UUID == uuid {
			return p
		}
	}
	return nil
}

// AddPlayer admits an identity under a fresh connection id. An identity
// matching a player in disconnected grace reclaims that player in place:
// position, health, yaw and score carry over, only the connection id is
// replaced. The returned bool is true when this join started the match.
func (r *Room) AddPlayer(uuid, name, profileImage, connID string, sink Broadcaster) (*Player, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase == PhaseFinished {
		return nil, false, ErrMatchOver
	}

	if existing := r.playerByUUIDLocked(uuid); existing != nil {
		if existing.Connected {
			return nil, false, ErrAlreadyJoined
		}
		delete(r.players, existing.ConnID)
		delete(r.inputs, existing.ConnID)
		delete(r.clients, existing.ConnID)
		existing.ConnID = connID
		existing.Connected = true
		existing.GraceUntil = time.Time{}
		r.players[connID] = existing
		r.clients[connID] = sink
		Log.Infow("player reconnected", "room", r.Code, "uuid", uuid, "conn", connID)
		return existing, false, nil
	}

	if !r.open {
		entry := r.rosterEntryLocked(uuid)
		if entry == nil {
			return nil, false, ErrNotAllowed
		}
		name = entry.Name
		profileImage = entry.ProfileImage
	}
	if len(r.players) >= RoomCapacity {
		return nil, false, ErrRoomFull
	}
	if r.open {
		r.roster = append(r.roster, AllowedPlayer{UUID: uuid, Name: name, ProfileImage: profileImage})
	}

	p := NewPlayer(uuid, connID, name, profileImage, r.nextSpawn)
	r.nextSpawn++
	r.players[connID] = p
	r.clients[connID] = sink

	started := false
	if r.phase == PhaseWaiting && len(r.players) >= RequiredPlayers {
		r.phase = PhasePlaying
		r.startedAt = time.Now()
		started = true
		Log.Infow("match started", "room", r.Code, "session", r.SessionID)
	}
	return p, started, nil
}

// BufferInput stores the latest input for a player; earlier commands in
// the same tick window are overwritten, never queued.
func (r *Room) BufferInput(connID string, in InputCommand) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[connID]; ok {
		r.inputs[connID] = in
	}
}

// Shoot spawns a bullet for the player if the match is live and the
// cooldown has elapsed.
func (r *Room) Shoot(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhasePlaying {
		return
	}
	p, ok := r.players[connID]
	if !ok || !p.Connected || p.Health <= 0 || p.ShootCD > 0 {
		return
	}
	r.bullets = append(r.bullets, NewBullet(p))
	p.ShootCD = ShootCooldown
}

// Disconnect marks the player disconnected and starts its grace deadline.
// The player entity stays authoritative until the deadline lapses.
func (r *Room) Disconnect(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[connID]
	if !ok {
		return
	}
	p.Connected = false
	p.GraceUntil = time.Now().Add(GracePeriod)
	delete(r.clients, connID)
	delete(r.inputs, connID)
	r.broadcastLocked(Envelope{T: MsgPlayerDisconnected, Data: PlayerDisconnectedMsg{PlayerID: connID}})
	Log.Infow("player disconnected", "room", r.Code, "uuid", p.UUID, "grace", GracePeriod)
}

// Tick advances the room one fixed timestep. Only PLAYING rooms move.
func (r *Room) Tick(dt float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.phase != PhasePlaying {
		return
	}

	// 1. Apply the latest buffered input per player. Yaw is applied
	// unconditionally; the positional delta only lands if the candidate
	// box is clear of every obstacle.
	for connID, p := range r.players {
		in, ok := r.inputs[connID]
		if !ok {
			p.Forward, p.Right = 0, 0
			continue
		}
		delete(r.inputs, connID)
		p.RotationY = WrapDegrees(p.RotationY + in.RotationDelta)
		dx, dz, fwd, right := MoveDelta(in, p.RotationY)
		p.Forward, p.Right = fwd, right
		if (dx != 0 || dz != 0) && !WouldCollide(p.BoxAt(p.X+dx, p.Z+dz), r) {
			p.X += dx
			p.Z += dz
		}
	}

	for _, p := range r.players {
		if p.ShootCD > 0 {
			p.ShootCD -= dt
		}
	}

	// 2. Moving obstacles
	for _, m := range r.moving {
		m.Advance()
	}

	// 3. Advance bullets
	for _, b := range r.bullets {
		b.Advance(dt)
	}

	// 4. Resolve impacts
	r.resolveHitsLocked()

	// 5. Drop expired bullets
	kept := r.bullets[:0]
	for _, b := range r.bullets {
		if b.Removed {
			continue
		}
		if b.Life <= 0 {
			r.broadcastLocked(Envelope{T: MsgBulletRemove, Data: BulletRemoveMsg{BulletID: b.ID}})
			continue
		}
		kept = append(kept, b)
	}
	r.bullets = kept

	// 6. Broadcast state
	r.broadcastStateLocked()
}

// resolveHitsLocked tests each live bullet against obstacles first, then
// against players excluding the shooter. First hit consumes the bullet.
// Candidate targets are scanned in ascending connection-id order so a
// simultaneous multi-target overlap resolves deterministically.
func (r *Room) resolveHitsLocked() {
	ids := make([]string, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, b := range r.bullets {
		if b.Removed {
			continue
		}
		box := b.Box()
		if WouldCollide(box, r) {
			b.Removed = true
			r.broadcastLocked(Envelope{T: MsgBulletHitObstacle, Data: BulletHitObstacleMsg{
				BulletPos: Position{X: round2(b.X), Y: round2(b.Y), Z: round2(b.Z)},
			}})
			r.broadcastLocked(Envelope{T: MsgBulletRemove, Data: BulletRemoveMsg{BulletID: b.ID}})
			continue
		}
		for _, id := range ids {
			p := r.players[id]
			if p.UUID == b.OwnerUUID || p.Health <= 0 {
				continue
			}
			if !Intersects(box, p.Box()) {
				continue
			}
			b.Removed = true
			r.broadcastLocked(Envelope{T: MsgBulletRemove, Data: BulletRemoveMsg{BulletID: b.ID}})
			died := p.ApplyDamage(BulletDamage)
			r.broadcastLocked(Envelope{T: MsgPlayerHit, Data: PlayerHitMsg{TargetID: id, NewHealth: p.Health}})
			if shooter := r.playerByUUIDLocked(b.OwnerUUID); shooter != nil {
				shooter.Score++
			}
			if died {
				r.concludeLocked(b.OwnerUUID, b.OwnerID, b.OwnerName, p, "finished")
			}
			break
		}
	}
}

// Reap removes players whose grace deadline has lapsed. A match still in
// PLAYING concludes in favor of the remaining player.
func (r *Room) Reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for connID, p := range r.players {
		if p.Connected || p.GraceUntil.IsZero() || now.Before(p.GraceUntil) {
			continue
		}
		delete(r.players, connID)
		delete(r.inputs, connID)
		delete(r.clients, connID)
		Log.Infow("grace expired, player removed", "room", r.Code, "uuid", p.UUID)

		if r.phase == PhasePlaying && len(r.players) == 1 {
			for _, winner := range r.players {
				r.concludeLocked(winner.UUID, winner.ConnID, winner.Name, p, "abandoned")
			}
		}
	}
	// A started match with nobody left is over; a still-waiting empty
	// room keeps waiting for its roster until the idle TTL.
	if len(r.players) == 0 && r.phase == PhasePlaying {
		r.phase = PhaseFinished
		r.disposeAt = now
	}
}

// Disposable reports whether the manager may drop this room.
func (r *Room) Disposable(now time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.players) == 0 {
		// Provisioned rooms linger empty until their roster shows up,
		// but not forever.
		if r.phase == PhaseFinished {
			return true
		}
		return now.Sub(r.createdAt) > emptyRoomTTL
	}
	return r.phase == PhaseFinished && !r.disposeAt.IsZero() && now.After(r.disposeAt)
}

// concludeLocked transitions to FINISHED once, announces the winner and
// hands the result to the background reporter. Repeat conclusions (e.g. a
// second disconnect against a finished match) are no-ops.
func (r *Room) concludeLocked(winnerUUID, winnerID, winnerName string, loser *Player, status string) {
	if r.phase == PhaseFinished {
		return
	}
	r.phase = PhaseFinished
	r.disposeAt = time.Now().Add(disposeDelay)

	if shooter := r.playerByUUIDLocked(winnerUUID); shooter != nil {
		winnerID, winnerName = shooter.ConnID, shooter.Name
	}
	r.broadcastLocked(Envelope{T: MsgPlayerWon, Data: PlayerWonMsg{
		WinnerID:   winnerID,
		LoserID:    loser.ConnID,
		WinnerName: winnerName,
		LoserName:  loser.Name,
	}})
	Log.Infow("match concluded", "room", r.Code, "winner", winnerName, "loser", loser.Name, "status", status)
	r.reportLocked(winnerUUID, loser, status)
}

// reportLocked builds the fixed results payload and dispatches it.
// Best-effort: the reporter never blocks the tick.
func (r *Room) reportLocked(winnerUUID string, loser *Player, status string) {
	if r.reporter == nil {
		return
	}
	outcome := func(uuid string) string {
		if uuid == winnerUUID {
			return "won"
		}
		if status == "abandoned" {
			return "left"
		}
		return "lost"
	}
	res := MatchResult{
		SessionID: r.SessionID,
		RoomCode:  r.Code,
		Status:    status,
		Duration:  round2(time.Since(r.startedAt).Seconds()),
	}
	seen := make(map[string]bool)
	for _, p := range r.players {
		res.Players = append(res.Players, PlayerResult{
			UUID: p.UUID, Name: p.Name, Outcome: outcome(p.UUID), Score: p.Score,
		})
		seen[p.UUID] = true
	}
	if loser != nil && !seen[loser.UUID] {
		res.Players = append(res.Players, PlayerResult{
			UUID: loser.UUID, Name: loser.Name, Outcome: outcome(loser.UUID), Score: loser.Score,
		})
	}
	r.reporter.Report(res)
}

// Snapshot returns the full-state init payload.
func (r *Room) Snapshot() InitMsg {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := InitMsg{
		Players:         make(map[string]PlayerState, len(r.players)),
		Obstacles:       make([]ObstacleState, 0, len(r.obstacles)),
		MovingObstacles: movingStates(r.moving),
	}
	for id, p := range r.players {
		msg.Players[id] = p.ToState()
	}
	for i := range r.obstacles {
		msg.Obstacles = append(msg.Obstacles, obstacleState(&r.obstacles[i]))
	}
	return msg
}

// Broadcast sends an event to every connected client in the room.
func (r *Room) Broadcast(env Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcastLocked(env)
}

// BroadcastExcept sends an event to everyone but one connection.
func (r *Room) BroadcastExcept(connID string, env Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, c := range r.clients {
		if id != connID {
			c.SendJSON(env)
		}
	}
}

func (r *Room) broadcastLocked(env Envelope) {
	for _, c := range r.clients {
		c.SendJSON(env)
	}
}

func (r *Room) broadcastStateLocked() {
	st := StateUpdateMsg{
		Players:         make(map[string]PlayerState, len(r.players)),
		Bullets:         make([]BulletState, 0, len(r.bullets)),
		MovingObstacles: movingStates(r.moving),
	}
	for id, p := range r.players {
		st.Players[id] = p.ToState()
	}
	for _, b := range r.bullets {
		st.Bullets = append(st.Bullets, b.ToState())
	}
	data, err := msgpack.Marshal(st)
	if err != nil {
		Log.Errorw("state marshal failed", "room", r.Code, "err", err)
		return
	}
	for _, c := range r.clients {
		c.SendBinary(data)
	}
}

func obstacleState(o *Obstacle) ObstacleState {
	return ObstacleState{
		ID:         o.ID,
		X:          o.X,
		Y:          round2(o.Y),
		Z:          o.Z,
		RotationY:  o.RotationY,
		Size:       SizeDTO{X: o.Size.X * 2, Y: o.Size.Y * 2, Z: o.Size.Z * 2},
		PrefabType: o.PrefabType,
	}
}

func movingStates(moving []*MovingObstacle) []ObstacleState {
	out := make([]ObstacleState, 0, len(moving))
	for _, m := range moving {
		out = append(out, obstacleState(&m.Obstacle))
	}
	return out
}
