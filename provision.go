package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/crypto/bcrypt"
)

const joinTokenExpiry = 24 * time.Hour

// TokenService signs and validates join tokens that bind a backend-issued
// identity to one game session. With no secret the service is disabled
// and provisioned rooms fall back to roster-only checks.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. An empty secret disables it.
func NewTokenService(secret []byte) *TokenService {
	return &TokenService{secret: secret}
}

// Enabled reports whether token signing is configured.
func (t *TokenService) Enabled() bool {
	return t != nil && len(t.secret) > 0
}

// SignJoin issues a token for one identity in one session.
func (t *TokenService) SignJoin(sessionID, uuid string) (string, error) {
	claims := jwt.MapClaims{
		"sid":  sessionID,
		"uuid": uuid,
		"exp":  time.Now().Add(joinTokenExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// ValidateJoin checks a join token and returns (sessionID, uuid).
func (t *TokenService) ValidateJoin(tokenStr string) (string, string, error) {
	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return t.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", "", fmt.Errorf("invalid token")
	}
	sid, ok := claims["sid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	uuid, ok := claims["uuid"].(string)
	if !ok {
		return "", "", fmt.Errorf("invalid token claims")
	}
	return sid, uuid, nil
}

// ProvisionServer is the out-of-band API the game backend calls to set up
// a room for an agreed pair of identities and hand out join links.
type ProvisionServer struct {
	rooms   *RoomManager
	tokens  *TokenService
	keyHash string // bcrypt hash of the provisioning key; empty disables auth
	baseURL string
}

// NewProvisionServer wires the provisioning API.
func NewProvisionServer(rooms *RoomManager, tokens *TokenService, keyHash, baseURL string) *ProvisionServer {
	return &ProvisionServer{rooms: rooms, tokens: tokens, keyHash: keyHash, baseURL: baseURL}
}

// Register mounts the API routes.
func (ps *ProvisionServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/rooms", ps.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/{code}/qr", ps.handleQR)
}

func (ps *ProvisionServer) authorized(r *http.Request) bool {
	if ps.keyHash == "" {
		return true
	}
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, prefix) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(ps.keyHash), []byte(strings.TrimPrefix(h, prefix))) == nil
}

// ProvisionRequest is the room descriptor the backend submits.
type ProvisionRequest struct {
	Players []AllowedPlayer `json:"players"`
}

// JoinLink is one player's entry point into the room.
type JoinLink struct {
	UUID string `json:"uuid"`
	URL  string `json:"url"`
}

// ProvisionResponse echoes the room identifiers and the join links.
type ProvisionResponse struct {
	RoomCode  string     `json:"roomCode"`
	SessionID string     `json:"sessionId"`
	JoinLinks []JoinLink `json:"joinLinks"`
}

func (ps *ProvisionServer) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	if !ps.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req ProvisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if len(req.Players) != RoomCapacity {
		http.Error(w, fmt.Sprintf("exactly %d players required", RoomCapacity), http.StatusBadRequest)
		return
	}
	seen := make(map[string]bool)
	for i := range req.Players {
		p := &req.Players[i]
		if p.UUID == "" || seen[p.UUID] {
			http.Error(w, "player uuids must be set and distinct", http.StatusBadRequest)
			return
		}
		seen[p.UUID] = true
		if p.Name == "" {
			p.Name = "Player"
		}
	}

	room, err := ps.rooms.CreateRoom(req.Players, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	resp := ProvisionResponse{RoomCode: room.Code, SessionID: room.SessionID}
	for _, p := range req.Players {
		link, err := ps.joinLink(room, p.UUID)
		if err != nil {
			http.Error(w, "could not sign join token", http.StatusInternalServerError)
			return
		}
		resp.JoinLinks = append(resp.JoinLinks, JoinLink{UUID: p.UUID, URL: link})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// joinLink builds the URL a player opens to enter the room. The link
// carries the room code and identity; with tokens enabled it also
// carries the signed proof the socket handler checks on joinRoom.
func (ps *ProvisionServer) joinLink(room *Room, uuid string) (string, error) {
	q := url.Values{}
	q.Set("gameSessionUuid", room.Code)
	q.Set("uuid", uuid)
	if ps.tokens.Enabled() {
		token, err := ps.tokens.SignJoin(room.SessionID, uuid)
		if err != nil {
			return "", err
		}
		q.Set("token", token)
	}
	return ps.baseURL + "/?" + q.Encode(), nil
}

func (ps *ProvisionServer) handleQR(w http.ResponseWriter, r *http.Request) {
	if !ps.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	code := r.PathValue("code")
	uuid := r.URL.Query().Get("uuid")
	room := ps.rooms.GetRoom(code)
	if room == nil || !room.OnRoster(uuid) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	link, err := ps.joinLink(room, uuid)
	if err != nil {
		http.Error(w, "could not sign join token", http.StatusInternalServerError)
		return
	}
	png, err := qrcode.Encode(link, qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "qr encoding failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}
