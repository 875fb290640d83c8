package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"
)

func startTestServer(t *testing.T, secret []byte) (*httptest.Server, *RoomManager) {
	t.Helper()
	rooms := NewRoomManager(nil)
	go rooms.Run()
	t.Cleanup(rooms.Stop)

	tokens := NewTokenService(secret)
	hub := NewHub(rooms, tokens)
	go hub.Run()

	srv := httptest.NewServer(SetupRoutes(hub, NewProvisionServer(rooms, tokens, "", "http://game.test")))
	t.Cleanup(srv.Close)
	return srv, rooms
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendCmd(t *testing.T, conn *websocket.Conn, typ string, data interface{}) {
	t.Helper()
	if err := conn.WriteJSON(Envelope{T: typ, Data: data}); err != nil {
		t.Fatalf("send %s: %v", typ, err)
	}
}

// waitForEvent reads frames until a JSON event of the wanted type arrives,
// skipping binary state frames. An unexpected errorRoom fails the test.
func waitForEvent(t *testing.T, conn *websocket.Conn, typ string) map[string]interface{} {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", typ, err)
		}
		if mt != websocket.TextMessage {
			continue
		}
		var env struct {
			T string          `json:"t"`
			D json.RawMessage `json:"d"`
		}
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("bad frame %q: %v", raw, err)
		}
		if env.T == MsgErrorRoom && typ != MsgErrorRoom {
			t.Fatalf("unexpected errorRoom while waiting for %s: %s", typ, env.D)
		}
		if env.T != typ {
			continue
		}
		out := make(map[string]interface{})
		if len(env.D) > 0 {
			if err := json.Unmarshal(env.D, &out); err != nil {
				t.Fatalf("bad %s payload: %v", typ, err)
			}
		}
		return out
	}
}

// waitForState reads binary state frames until pred holds.
func waitForState(t *testing.T, conn *websocket.Conn, pred func(StateUpdateMsg) bool) StateUpdateMsg {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		mt, raw, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for state: %v", err)
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		var st StateUpdateMsg
		if err := msgpack.Unmarshal(raw, &st); err != nil {
			t.Fatalf("bad state frame: %v", err)
		}
		if pred(st) {
			return st
		}
	}
}

func TestHealthz(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status %d", resp.StatusCode)
	}
}

func TestJoinUnknownRoom(t *testing.T) {
	srv, _ := startTestServer(t, nil)
	conn := dialWS(t, srv)
	sendCmd(t, conn, MsgJoinRoom, map[string]string{"roomCode": "0000", "name": "Eve"})
	msg := waitForEvent(t, conn, MsgErrorRoom)
	if msg["msg"] != "Room not found" {
		t.Errorf("errorRoom %v", msg)
	}
}

func TestFullMatchFlow(t *testing.T) {
	srv, _ := startTestServer(t, nil)

	alice := dialWS(t, srv)
	sendCmd(t, alice, MsgCreateRoom, map[string]string{"name": "Alice"})
	your := waitForEvent(t, alice, MsgYourID)
	aliceID, _ := your["id"].(string)
	if aliceID == "" {
		t.Fatal("no connection id assigned")
	}
	created := waitForEvent(t, alice, MsgRoomCreated)
	code, _ := created["roomCode"].(string)
	if len(code) != 4 {
		t.Fatalf("room code %q", code)
	}
	init := waitForEvent(t, alice, MsgInit)
	if obs, ok := init["obstacles"].([]interface{}); !ok || len(obs) != 7 {
		t.Fatalf("init arena: %v", init["obstacles"])
	}

	bob := dialWS(t, srv)
	sendCmd(t, bob, MsgJoinRoom, map[string]string{"roomCode": code, "name": "Bob"})
	your = waitForEvent(t, bob, MsgYourID)
	bobID, _ := your["id"].(string)
	waitForEvent(t, bob, MsgRoomJoined)
	waitForEvent(t, bob, MsgInit)

	waitForEvent(t, alice, MsgNewPlayerConnected)
	start := waitForEvent(t, alice, MsgInit)
	if players, ok := start["players"].(map[string]interface{}); !ok || len(players) != 2 {
		t.Fatalf("match-start snapshot players: %v", start["players"])
	}

	// The driver now streams binary state to both sides
	st := waitForState(t, alice, func(st StateUpdateMsg) bool { return len(st.Players) == 2 })
	if st.Players[bobID].Z != 6 || st.Players[bobID].RotationY != 180 {
		t.Errorf("bob spawn %+v", st.Players[bobID])
	}
	if st.Players[aliceID].Z != -6 || st.Players[aliceID].RotationY != 0 {
		t.Errorf("alice spawn %+v", st.Players[aliceID])
	}

	// Bob strafes out of the firing line (yaw 180: right input moves -x)
	for i := 0; i < 50; i++ {
		sendCmd(t, bob, MsgMove, MoveMsg{Input: InputCommand{Right: true}})
		time.Sleep(10 * time.Millisecond)
	}
	waitForState(t, alice, func(st StateUpdateMsg) bool {
		return st.Players[bobID].X < -0.6
	})

	// Alice fires down the lane; a prop on the lane soaks the shot
	sendCmd(t, alice, MsgShoot, struct{}{})
	waitForState(t, alice, func(st StateUpdateMsg) bool { return len(st.Bullets) == 1 })
	hit := waitForEvent(t, alice, MsgBulletHitObstacle)
	if _, ok := hit["bulletPos"]; !ok {
		t.Errorf("bulletHitObstacle payload %v", hit)
	}
	waitForEvent(t, alice, MsgBulletRemove)

	// Bob drops; Alice is told and the entity enters grace
	bob.Close()
	gone := waitForEvent(t, alice, MsgPlayerDisconnected)
	if gone["playerId"] != bobID {
		t.Errorf("playerDisconnected %v", gone)
	}
}

func TestProvisionedJoinRequiresToken(t *testing.T) {
	srv, _ := startTestServer(t, []byte("s3cret"))

	resp, err := http.Post(srv.URL+"/api/rooms", "application/json", provisionBody())
	if err != nil {
		t.Fatal(err)
	}
	var out ProvisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()

	link, err := url.Parse(out.JoinLinks[0].URL)
	if err != nil {
		t.Fatal(err)
	}
	q := link.Query()

	// Without the signed token the roster identity is refused
	eve := dialWS(t, srv)
	sendCmd(t, eve, MsgJoinRoom, map[string]string{"roomCode": out.RoomCode, "uuId": q.Get("uuid")})
	if msg := waitForEvent(t, eve, MsgErrorRoom); msg["msg"] != "Invalid join token" {
		t.Errorf("errorRoom %v", msg)
	}

	alice := dialWS(t, srv)
	sendCmd(t, alice, MsgJoinRoom, map[string]string{
		"roomCode": out.RoomCode,
		"uuId":     q.Get("uuid"),
		"token":    q.Get("token"),
	})
	your := waitForEvent(t, alice, MsgYourID)
	if your["name"] != "Alice" {
		t.Errorf("roster identity not applied: %v", your)
	}
	waitForEvent(t, alice, MsgRoomJoined)
}
