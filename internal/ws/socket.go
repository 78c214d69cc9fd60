package ws

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/kiliankoe/botornot/internal/game"
	"github.com/kiliankoe/botornot/internal/profile"
	"github.com/rs/zerolog/log"
)

const namespace = "/"

// ConnCtx is attached to every socket once its identity is resolved.
type ConnCtx struct {
	Identity game.Identity
}

// Engine is the part of the game engine the transport drives.
type Engine interface {
	CreateRoom(id game.Identity, conn string) (string, error)
	JoinRoom(id game.Identity, conn, roomID string) error
	LeaveRoom(userID, roomID string) error
	ListRooms(conn string)
	Topics(conn string)
	UpdateProfile(id game.Identity)
	StartGame(userID, roomID string, s game.Settings) error
	SubmitAnswer(userID, roomID, text string) error
	SubmitVotes(userID, roomID string, votes game.VoteSet) error
	NextRound(userID, roomID string) error
	RequestState(userID, conn, roomID string) error
	SkipTimer(userID, roomID string) error
	SendReaction(userID, roomID, emoji string) error
	Resume(id game.Identity, conn string) bool
	Disconnect(userID, conn string)
}

// Identities resolves handshakes and persists renames.
type Identities interface {
	Resolve(ctx context.Context, h profile.Handshake) (game.Identity, error)
	Update(ctx context.Context, id, name, avatar string) (game.Identity, error)
}

// Server is the socket.io transport. It implements game.Broadcaster.
type Server struct {
	engine     Engine
	identities Identities
	corsOrigin string

	io    *socketio.Server
	mu    sync.RWMutex
	conns map[string]socketio.Conn // socket id -> conn
}

func New(identities Identities, corsOrigin string) *Server {
	if corsOrigin == "" {
		corsOrigin = "*"
	}
	return &Server{identities: identities, corsOrigin: corsOrigin, conns: make(map[string]socketio.Conn)}
}

func (srv *Server) SetEngine(e Engine) { srv.engine = e }

// Emit delivers one event to one socket. Unknown sockets are ignored.
func (srv *Server) Emit(conn string, event string, payload any) {
	srv.mu.RLock()
	c := srv.conns[conn]
	srv.mu.RUnlock()
	if c == nil {
		return
	}
	if payload == nil {
		c.Emit(event)
		return
	}
	c.Emit(event, payload)
}

// EmitAll delivers one event to every connected socket.
func (srv *Server) EmitAll(event string, payload any) {
	if srv.io == nil {
		return
	}
	srv.io.BroadcastToNamespace(namespace, event, payload)
}

type roomPayload struct {
	RoomID string `json:"roomId"`
}

// Mount attaches the socket.io server with its handlers to the gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)
	srv.io = io

	io.OnConnect(namespace, func(s socketio.Conn) error {
		u := s.URL()
		q := u.Query()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := srv.identities.Resolve(ctx, profile.Handshake{
			UserID: q.Get("userId"),
			Name:   q.Get("name"),
			Avatar: q.Get("avatar"),
		})
		if err != nil {
			log.Error().Err(err).Str("sid", s.ID()).Msg("identity resolution failed")
			return err
		}
		s.SetContext(&ConnCtx{Identity: id})
		srv.add(s)
		log.Info().Str("sid", s.ID()).Str("player", id.ID).Msg("socket connected")
		s.Emit(game.EventProfile, id)
		srv.engine.Resume(id, s.ID())
		return nil
	})

	io.OnEvent(namespace, "create_room", func(s socketio.Conn) {
		id, ok := identity(s)
		if !ok {
			return
		}
		code, err := srv.engine.CreateRoom(id, s.ID())
		if err != nil {
			srv.fail(s, "create_room", err)
			return
		}
		log.Debug().Str("sid", s.ID()).Str("room", code).Msg("create_room")
	})

	io.OnEvent(namespace, "join_room", func(s socketio.Conn, p roomPayload) {
		if id, ok := identity(s); ok {
			srv.fail(s, "join_room", srv.engine.JoinRoom(id, s.ID(), p.RoomID))
		}
	})

	io.OnEvent(namespace, "leave_room", func(s socketio.Conn, p roomPayload) {
		if id, ok := identity(s); ok {
			srv.fail(s, "leave_room", srv.engine.LeaveRoom(id.ID, p.RoomID))
		}
	})

	io.OnEvent(namespace, "request_room_list", func(s socketio.Conn) {
		srv.engine.ListRooms(s.ID())
	})

	io.OnEvent(namespace, "get_topics", func(s socketio.Conn) {
		srv.engine.Topics(s.ID())
	})

	io.OnEvent(namespace, "update_profile", func(s socketio.Conn, p struct {
		Name   string `json:"name"`
		Avatar string `json:"avatar"`
	}) {
		cur, ok := identity(s)
		if !ok {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		id, err := srv.identities.Update(ctx, cur.ID, p.Name, p.Avatar)
		if err != nil {
			srv.fail(s, "update_profile", err)
			return
		}
		s.SetContext(&ConnCtx{Identity: id})
		s.Emit(game.EventProfile, id)
		srv.engine.UpdateProfile(id)
	})

	io.OnEvent(namespace, "start_game", func(s socketio.Conn, p struct {
		RoomID   string        `json:"roomId"`
		Settings game.Settings `json:"settings"`
	}) {
		if id, ok := identity(s); ok {
			srv.fail(s, "start_game", srv.engine.StartGame(id.ID, p.RoomID, p.Settings))
		}
	})

	io.OnEvent(namespace, "submit_answer", func(s socketio.Conn, p struct {
		RoomID string `json:"roomId"`
		Text   string `json:"text"`
	}) {
		if id, ok := identity(s); ok {
			srv.fail(s, "submit_answer", srv.engine.SubmitAnswer(id.ID, p.RoomID, p.Text))
		}
	})

	io.OnEvent(namespace, "submit_votes", func(s socketio.Conn, p struct {
		RoomID string       `json:"roomId"`
		Votes  game.VoteSet `json:"votes"`
	}) {
		if id, ok := identity(s); ok {
			srv.fail(s, "submit_votes", srv.engine.SubmitVotes(id.ID, p.RoomID, p.Votes))
		}
	})

	io.OnEvent(namespace, "next_round_request", func(s socketio.Conn, p roomPayload) {
		if id, ok := identity(s); ok {
			srv.fail(s, "next_round_request", srv.engine.NextRound(id.ID, p.RoomID))
		}
	})

	io.OnEvent(namespace, "request_game_state", func(s socketio.Conn, p roomPayload) {
		if id, ok := identity(s); ok {
			// RequestState already answers with session_not_found on failure.
			_ = srv.engine.RequestState(id.ID, s.ID(), p.RoomID)
		}
	})

	io.OnEvent(namespace, "dev_skip_timer", func(s socketio.Conn, p roomPayload) {
		if id, ok := identity(s); ok {
			srv.fail(s, "dev_skip_timer", srv.engine.SkipTimer(id.ID, p.RoomID))
		}
	})

	io.OnEvent(namespace, "send_reaction", func(s socketio.Conn, p struct {
		RoomID string `json:"roomId"`
		Emoji  string `json:"emoji"`
	}) {
		if id, ok := identity(s); ok {
			srv.fail(s, "send_reaction", srv.engine.SendReaction(id.ID, p.RoomID, p.Emoji))
		}
	})

	io.OnError(namespace, func(s socketio.Conn, e error) {
		sid := ""
		if s != nil {
			sid = s.ID()
		}
		log.Error().Str("sid", sid).Err(e).Msg("socket error")
	})

	io.OnDisconnect(namespace, func(s socketio.Conn, reason string) {
		srv.remove(s)
		if id, ok := identity(s); ok {
			srv.engine.Disconnect(id.ID, s.ID())
		}
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("socket disconnected")
	})

	go func() {
		if err := io.Serve(); err != nil {
			log.Error().Err(err).Msg("socket.io serve stopped")
		}
	}()

	handler := func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", srv.corsOrigin)
		io.ServeHTTP(c.Writer, c.Request)
	}
	r.GET("/socket.io/*any", handler)
	r.POST("/socket.io/*any", handler)

	// CORS preflight for the polling transport.
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", srv.corsOrigin)
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

func (srv *Server) add(c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.conns[c.ID()] = c
}

func (srv *Server) remove(c socketio.Conn) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.conns, c.ID())
}

// fail reports err to the socket as an error event. A nil err is a no-op.
func (srv *Server) fail(s socketio.Conn, event string, err error) {
	if err == nil {
		return
	}
	msg, known := ErrorMessage(err)
	if !known {
		log.Error().Err(err).Str("sid", s.ID()).Str("event", event).Msg("request failed")
	} else {
		log.Debug().Err(err).Str("sid", s.ID()).Str("event", event).Msg("request rejected")
	}
	s.Emit(game.EventError, map[string]any{"message": msg})
}

func identity(s socketio.Conn) (game.Identity, bool) {
	if s == nil {
		return game.Identity{}, false
	}
	ctx, ok := s.Context().(*ConnCtx)
	if !ok || ctx == nil || ctx.Identity.ID == "" {
		return game.Identity{}, false
	}
	return ctx.Identity, true
}

var messages = []struct {
	err error
	msg string
}{
	{game.ErrRoomNotFound, "Room not found"},
	{game.ErrNotInRoom, "You are not in this room"},
	{game.ErrNotHost, "Only the host can do that"},
	{game.ErrInvalidPhase, "Not possible right now"},
	{game.ErrGameInProgress, "Game already started"},
	{game.ErrNotEnoughPlayers, "Need at least 2 players"},
	{game.ErrAlreadySubmitted, "Answer already submitted"},
	{game.ErrAlreadyVoted, "Votes already submitted"},
	{game.ErrAnswerTooShort, "Answer is too short"},
	{game.ErrAnswerTooLong, "Answer is too long"},
	{game.ErrDebugDisabled, "Debug controls are disabled"},
	{game.ErrBadReaction, "Invalid reaction"},
	{profile.ErrInvalidName, "Name must be 1-24 characters"},
}

// ErrorMessage maps an engine error to the text shown to the player. The
// second result is false for errors that are not the player's fault.
func ErrorMessage(err error) (string, bool) {
	for _, m := range messages {
		if errors.Is(err, m.err) {
			return m.msg, true
		}
	}
	return "Something went wrong", false
}
