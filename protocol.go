package main

import "encoding/json"

// Client -> Server message types
const (
	MsgCreateRoom = "createRoom"
	MsgJoinRoom   = "joinRoom"
	MsgMove       = "move"
	MsgShoot      = "shoot"
)

// Server -> Client message types
const (
	MsgYourID             = "yourId"
	MsgRoomCreated        = "roomCreated"
	MsgRoomJoined         = "roomJoined"
	MsgErrorRoom          = "errorRoom"
	MsgInit               = "init"
	MsgNewPlayerConnected = "newPlayerConnected"
	MsgStateUpdate        = "stateUpdate"
	MsgBulletRemove       = "bulletRemove"
	MsgBulletHitObstacle  = "bulletHitObstacle"
	MsgPlayerHit          = "playerHit"
	MsgPlayerWon          = "playerWon"
	MsgPlayerDisconnected = "playerDisconnected"
)

// Envelope wraps all outgoing messages with a type field
type Envelope struct {
	T    string      `json:"t"`
	Data interface{} `json:"d,omitempty"`
}

// InEnvelope is used for incoming messages — json.RawMessage avoids double-unmarshal
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d,omitempty"`
}

// InputCommand is the per-tick movement intent. Only the most recently
// received command is consulted each tick; intermediate ones are
// overwritten.
type InputCommand struct {
	Forward       bool    `json:"forward"`
	Backward      bool    `json:"backward"`
	Left          bool    `json:"left"`
	Right         bool    `json:"right"`
	RotationDelta float64 `json:"rotationDelta"`
}

// CreateRoomMsg opens an ad-hoc room over the socket
type CreateRoomMsg struct {
	Name string `json:"name"`
}

// JoinRoomMsg joins a room by code, claiming a backend-issued identity.
// Token is required for provisioned rooms when token signing is enabled.
type JoinRoomMsg struct {
	RoomCode string `json:"roomCode"`
	UUID     string `json:"uuId"`
	Name     string `json:"name,omitempty"`
	Token    string `json:"token,omitempty"`
}

// MoveMsg carries one input command
type MoveMsg struct {
	Input InputCommand `json:"input"`
}

// YourIDMsg is unicast to a player after a successful join
type YourIDMsg struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ProfileImage string `json:"profileImage,omitempty"`
}

// RoomCodeMsg carries a room code (roomCreated / roomJoined)
type RoomCodeMsg struct {
	RoomCode string `json:"roomCode"`
}

// ErrorRoomMsg is a unicast join rejection
type ErrorRoomMsg struct {
	Msg string `json:"msg"`
}

// PlayerState is broadcast per player each tick
type PlayerState struct {
	ID           string  `json:"id" msgpack:"id"`
	UUID         string  `json:"uuId" msgpack:"uuId"`
	Name         string  `json:"name" msgpack:"name"`
	ProfileImage string  `json:"profileImage,omitempty" msgpack:"profileImage,omitempty"`
	X            float64 `json:"x" msgpack:"x"`
	Y            float64 `json:"y" msgpack:"y"`
	Z            float64 `json:"z" msgpack:"z"`
	RotationY    float64 `json:"rotationY" msgpack:"rotationY"`
	Forward      int     `json:"forward" msgpack:"forward"`
	Right        int     `json:"right" msgpack:"right"`
	Health       float64 `json:"health" msgpack:"health"`
}

// BulletState is broadcast per live projectile
type BulletState struct {
	ID        int     `json:"id" msgpack:"id"`
	OwnerID   string  `json:"ownerId" msgpack:"ownerId"`
	X         float64 `json:"x" msgpack:"x"`
	Y         float64 `json:"y" msgpack:"y"`
	Z         float64 `json:"z" msgpack:"z"`
	RotationY float64 `json:"rotationY" msgpack:"rotationY"`
}

// ObstacleState describes a box in the arena layout
type ObstacleState struct {
	ID         int     `json:"id" msgpack:"id"`
	X          float64 `json:"x" msgpack:"x"`
	Y          float64 `json:"y" msgpack:"y"`
	Z          float64 `json:"z" msgpack:"z"`
	RotationY  float64 `json:"rotationY" msgpack:"rotationY"`
	Size       SizeDTO `json:"size" msgpack:"size"`
	PrefabType int     `json:"prefabType" msgpack:"prefabType"`
}

// SizeDTO is a full-extent size vector (clients scale meshes by it)
type SizeDTO struct {
	X float64 `json:"x" msgpack:"x"`
	Y float64 `json:"y" msgpack:"y"`
	Z float64 `json:"z" msgpack:"z"`
}

// Position is a bare coordinate triple
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// InitMsg is the full snapshot sent on join and on match start
type InitMsg struct {
	Players         map[string]PlayerState `json:"players"`
	Obstacles       []ObstacleState        `json:"obstacles"`
	MovingObstacles []ObstacleState        `json:"movingObstacles"`
}

// StateUpdateMsg is the per-tick broadcast. It travels as a msgpack
// binary frame; everything else is JSON text.
type StateUpdateMsg struct {
	Players         map[string]PlayerState `json:"players" msgpack:"players"`
	Bullets         []BulletState          `json:"bullets" msgpack:"bullets"`
	MovingObstacles []ObstacleState        `json:"movingObstacles" msgpack:"movingObstacles"`
}

// BulletRemoveMsg tells clients to despawn a bullet
type BulletRemoveMsg struct {
	BulletID int `json:"bulletId"`
}

// BulletHitObstacleMsg carries the impact point for hit effects
type BulletHitObstacleMsg struct {
	BulletPos Position `json:"bulletPos"`
}

// PlayerHitMsg is broadcast when a bullet damages a player
type PlayerHitMsg struct {
	TargetID  string  `json:"targetId"`
	NewHealth float64 `json:"newHealth"`
}

// PlayerWonMsg concludes the match
type PlayerWonMsg struct {
	WinnerID   string `json:"winnerId"`
	LoserID    string `json:"loserId"`
	WinnerName string `json:"winnerName"`
	LoserName  string `json:"loserName"`
}

// PlayerDisconnectedMsg is broadcast when a player drops
type PlayerDisconnectedMsg struct {
	PlayerID string `json:"playerId"`
}
