package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiliankoe/botornot/internal/game"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
)

const qrSize = 320

// Games is what the HTTP surface reads from and pokes at.
type Games interface {
	Rooms() []game.RoomSummary
	HasRoom(id string) bool
	ForceAdvance(roomID string) error
	DeleteRoom(id string)
}

type Topics interface {
	Topics() []game.TopicInfo
}

type Options struct {
	PublicURL string
	AdminUser string
	AdminPass string
}

// Register mounts the HTTP API. Operator routes exist only when both admin
// credentials are set.
func Register(r *gin.Engine, games Games, topics Topics, opts Options) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	api := r.Group("/api")
	api.GET("/topics", func(c *gin.Context) {
		c.JSON(http.StatusOK, topics.Topics())
	})
	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, games.Rooms())
	})
	api.GET("/rooms/:id/qr.png", qrHandler(games, opts.PublicURL))

	if opts.AdminUser == "" || opts.AdminPass == "" {
		return
	}
	admin := api.Group("/admin", gin.BasicAuth(gin.Accounts{opts.AdminUser: opts.AdminPass}))
	admin.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, games.Rooms())
	})
	admin.POST("/rooms/:id/skip", func(c *gin.Context) {
		id := game.NormalizeCode(c.Param("id"))
		err := games.ForceAdvance(id)
		switch {
		case err == nil:
			log.Info().Str("room", id).Msg("operator skipped phase")
			c.JSON(http.StatusOK, gin.H{"ok": true})
		case errors.Is(err, game.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
		case errors.Is(err, game.ErrInvalidPhase):
			c.JSON(http.StatusConflict, gin.H{"error": "nothing_to_skip"})
		default:
			log.Error().Err(err).Str("room", id).Msg("operator skip failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		}
	})
	admin.DELETE("/rooms/:id", func(c *gin.Context) {
		id := game.NormalizeCode(c.Param("id"))
		if !games.HasRoom(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		games.DeleteRoom(id)
		log.Info().Str("room", id).Msg("operator closed room")
		c.Status(http.StatusNoContent)
	})
}

// qrHandler renders the join link of a room as a PNG. Without a public URL
// the link is derived from the request.
func qrHandler(games Games, publicURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := game.NormalizeCode(c.Param("id"))
		if !games.HasRoom(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
			return
		}
		png, err := qrcode.Encode(JoinURL(publicURL, c.Request, id), qrcode.Medium, qrSize)
		if err != nil {
			log.Error().Err(err).Str("room", id).Msg("qr generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "qr_failed"})
			return
		}
		c.Header("Cache-Control", "no-cache")
		c.Data(http.StatusOK, "image/png", png)
	}
}

// JoinURL is the link a QR code points at.
func JoinURL(publicURL string, r *http.Request, roomID string) string {
	base := strings.TrimRight(publicURL, "/")
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/?room=" + url.QueryEscape(roomID)
}
