package main

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait         = 10 * time.Second
	pongWait          = 60 * time.Second
	pingPeriod        = (pongWait * 9) / 10
	maxMessageSize    = 4096
	sendBufSize       = 256
	maxMessagesPerSec = 120 // clients send one move per frame
	maxNameLen        = 16
)

// Client represents one WebSocket connection. playerID doubles as the
// connection-scoped player id the room keys its state by.
type Client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	playerID   string
	roomCode   string
	remoteAddr string
	msgCount   int
	msgResetAt time.Time
}

// NewClient creates a new Client with a fresh connection id.
func NewClient(hub *Hub, conn *websocket.Conn, remoteAddr string) *Client {
	return &Client{
		hub:        hub,
		conn:       conn,
		send:       make(chan []byte, sendBufSize),
		playerID:   GenerateID(5),
		remoteAddr: remoteAddr,
	}
}

// ReadPump reads messages from the WebSocket connection.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.TrackDisconnect(c.remoteAddr)
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				Log.Debugw("ws error", "addr", c.remoteAddr, "err", err)
			}
			break
		}

		// Rate limiting
		now := time.Now()
		if now.After(c.msgResetAt) {
			c.msgCount = 0
			c.msgResetAt = now.Add(time.Second)
		}
		c.msgCount++
		if c.msgCount > maxMessagesPerSec {
			Log.Warnw("rate limit exceeded, disconnecting", "addr", c.remoteAddr)
			break
		}

		c.handleMessage(message)
	}
}

// WritePump writes messages to the WebSocket connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			// 0xFF prefix marks frames queued by SendBinary
			var err error
			if len(message) > 0 && message[0] == 0xFF {
				err = c.conn.WriteMessage(websocket.BinaryMessage, message[1:])
			} else {
				err = c.conn.WriteMessage(websocket.TextMessage, message)
			}
			if err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// SendJSON sends a JSON message to the client.
func (c *Client) SendJSON(msg interface{}) {
	data, err := json.Marshal(msg)
	if err != nil {
		Log.Errorw("marshal error", "err", err)
		return
	}
	c.SendRaw(data)
}

// SendRaw sends pre-marshaled bytes as a text message to the client.
func (c *Client) SendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
		// Client too slow, drop message
	}
}

// SendBinary sends pre-marshaled bytes as a binary WebSocket message.
// Prefixes with 0xFF so WritePump can distinguish from text.
func (c *Client) SendBinary(data []byte) {
	defer func() { recover() }()
	msg := make([]byte, len(data)+1)
	msg[0] = 0xFF
	copy(msg[1:], data)
	select {
	case c.send <- msg:
	default:
	}
}

// handleMessage routes incoming commands (single-pass decode via
// InEnvelope). Malformed payloads are logged and dropped, never fatal.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		Log.Debugw("unmarshal error", "addr", c.remoteAddr, "err", err)
		return
	}

	switch env.T {
	case MsgCreateRoom:
		c.handleCreateRoom(env.D)
	case MsgJoinRoom:
		c.handleJoinRoom(env.D)
	case MsgMove:
		c.handleMove(env.D)
	case MsgShoot:
		c.handleShoot()
	}
}

func (c *Client) errorRoom(msg string) {
	c.SendJSON(Envelope{T: MsgErrorRoom, Data: ErrorRoomMsg{Msg: msg}})
}

func cleanName(name string) string {
	if name == "" {
		name = "Player"
	}
	if len(name) > maxNameLen {
		name = name[:maxNameLen]
	}
	return name
}

// handleCreateRoom opens an ad-hoc room with the creator enrolled. Rooms
// created this way have no pre-agreed roster and admit any identity
// until capacity.
func (c *Client) handleCreateRoom(data json.RawMessage) {
	if c.roomCode != "" {
		return
	}
	var msg CreateRoomMsg
	if len(data) > 0 {
		if err := json.Unmarshal(data, &msg); err != nil {
			Log.Debugw("bad createRoom payload", "err", err)
			return
		}
	}
	name := cleanName(msg.Name)
	identity := uuid.NewString()

	room, err := c.hub.rooms.CreateRoom(nil, true)
	if err != nil {
		c.errorRoom(err.Error())
		return
	}
	if _, _, err := room.AddPlayer(identity, name, "", c.playerID, c); err != nil {
		c.errorRoom(err.Error())
		return
	}
	c.roomCode = room.Code

	c.SendJSON(Envelope{T: MsgYourID, Data: YourIDMsg{ID: c.playerID, Name: name}})
	c.SendJSON(Envelope{T: MsgRoomCreated, Data: RoomCodeMsg{RoomCode: room.Code}})
	c.SendJSON(Envelope{T: MsgInit, Data: room.Snapshot()})
}

// handleJoinRoom admits (or readmits) an identity into a room.
func (c *Client) handleJoinRoom(data json.RawMessage) {
	if c.roomCode != "" {
		return
	}
	var msg JoinRoomMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		Log.Debugw("bad joinRoom payload", "err", err)
		return
	}

	room := c.hub.rooms.GetRoom(msg.RoomCode)
	if room == nil {
		c.errorRoom("Room not found")
		return
	}

	// Provisioned rooms require a backend-signed token binding the
	// claimed identity to this session.
	if !room.Open() && c.hub.tokens.Enabled() {
		sid, uid, err := c.hub.tokens.ValidateJoin(msg.Token)
		if err != nil || sid != room.SessionID || uid != msg.UUID {
			c.errorRoom("Invalid join token")
			return
		}
	}

	identity := msg.UUID
	if identity == "" {
		identity = uuid.NewString()
	}

	p, started, err := room.AddPlayer(identity, cleanName(msg.Name), "", c.playerID, c)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotAllowed):
			c.errorRoom("You are not on the list for this room")
		case errors.Is(err, ErrRoomFull):
			c.errorRoom("Room is full")
		case errors.Is(err, ErrAlreadyJoined):
			c.errorRoom("Already connected from another client")
		case errors.Is(err, ErrMatchOver):
			c.errorRoom("Match already finished")
		default:
			c.errorRoom(err.Error())
		}
		return
	}
	c.roomCode = room.Code

	c.SendJSON(Envelope{T: MsgYourID, Data: YourIDMsg{ID: c.playerID, Name: p.Name, ProfileImage: p.ProfileImage}})
	c.SendJSON(Envelope{T: MsgRoomJoined, Data: RoomCodeMsg{RoomCode: room.Code}})
	c.SendJSON(Envelope{T: MsgInit, Data: room.Snapshot()})
	room.BroadcastExcept(c.playerID, Envelope{T: MsgNewPlayerConnected, Data: room.Snapshot()})

	if started {
		// Match starts: everyone gets a fresh full snapshot
		room.Broadcast(Envelope{T: MsgInit, Data: room.Snapshot()})
	}
}

func (c *Client) handleMove(data json.RawMessage) {
	if c.roomCode == "" {
		return
	}
	var msg MoveMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		Log.Debugw("bad move payload", "err", err)
		return
	}
	if room := c.hub.rooms.GetRoom(c.roomCode); room != nil {
		room.BufferInput(c.playerID, msg.Input)
	}
}

func (c *Client) handleShoot() {
	if c.roomCode == "" {
		return
	}
	if room := c.hub.rooms.GetRoom(c.roomCode); room != nil {
		room.Shoot(c.playerID)
	}
}
