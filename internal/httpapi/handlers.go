// Package httpapi exposes creature management over REST and mounts the
// websocket battle and matchmaking endpoints.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cory-johannsen/arena/internal/arena"
	"github.com/cory-johannsen/arena/internal/game/creature"
	"github.com/cory-johannsen/arena/internal/game/element"
	"github.com/cory-johannsen/arena/internal/game/stats"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
)

// playerHeader carries the caller's player identity.
const playerHeader = "X-Player-Id"

// CreatureDirectory is the persistence surface the REST layer needs.
type CreatureDirectory interface {
	Create(ctx context.Context, c *creature.Record) (*creature.Record, error)
	GetByID(ctx context.Context, id string) (*creature.Record, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*creature.Record, error)
}

// Handler serves the creature REST API.
type Handler struct {
	log       *zap.Logger
	creatures CreatureDirectory
	presets   []creature.Preset
}

// NewHandler builds the REST handler.
//
// Precondition: creatures must be non-nil.
func NewHandler(log *zap.Logger, creatures CreatureDirectory, presets []creature.Preset) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{log: log.Named("httpapi"), creatures: creatures, presets: presets}
}

// Register mounts the REST routes and, when ws is non-nil, the websocket
// battle and queue endpoints.
func (h *Handler) Register(r *gin.Engine, ws *arena.WSHandler) {
	api := r.Group("/api")
	api.POST("/creatures", h.CreateCreature)
	api.GET("/creatures/:id", h.GetCreature)
	api.GET("/collection", h.GetCollection)
	api.POST("/seed", h.SeedPresets)

	if ws != nil {
		r.GET("/ws/battle/:id", func(c *gin.Context) {
			ws.HandleBattle(c.Writer, c.Request, c.Param("id"))
		})
		r.GET("/ws/queue", func(c *gin.Context) {
			ws.HandleQueue(c.Writer, c.Request)
		})
	}
}

// CreateCreatureRequest is the creature design submitted by a player.
type CreateCreatureRequest struct {
	Name    string      `json:"name"`
	Element string      `json:"element"`
	Stats   stats.Block `json:"stats"`
	MoveIDs []string    `json:"moveIds"`
	Sprite  string      `json:"sprite"`
}

// CreateCreature validates a creature design and adds it to the caller's
// collection at the starting level.
func (h *Handler) CreateCreature(c *gin.Context) {
	ownerID := c.GetHeader(playerHeader)
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": playerHeader + " header is required"})
		return
	}

	var req CreateCreatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if len(req.MoveIDs) != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "exactly 4 moves are required"})
		return
	}

	rec := &creature.Record{
		OwnerID:   ownerID,
		Name:      req.Name,
		Element:   element.Element(req.Element),
		BaseStats: req.Stats,
		Sprite:    req.Sprite,
		Level:     stats.LevelMin,
	}
	copy(rec.MoveIDs[:], req.MoveIDs)

	if err := rec.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.creatures.Create(c.Request.Context(), rec)
	if err != nil {
		if errors.Is(err, postgres.ErrCreatureNameTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": "creature name already taken"})
			return
		}
		h.log.Error("creature create failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create creature"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

// GetCreature returns a creature by id.
func (h *Handler) GetCreature(c *gin.Context) {
	rec, err := h.creatures.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, postgres.ErrCreatureNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "creature not found"})
			return
		}
		h.log.Error("creature lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load creature"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

// GetCollection returns every creature owned by the caller.
func (h *Handler) GetCollection(c *gin.Context) {
	ownerID := c.GetHeader(playerHeader)
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": playerHeader + " header is required"})
		return
	}

	records, err := h.creatures.ListByOwner(c.Request.Context(), ownerID)
	if err != nil {
		h.log.Error("collection lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load collection"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"creatures": records})
}

// SeedPresets grants the caller one copy of each preset creature. Presets
// already in the collection are skipped, so repeated calls are harmless.
func (h *Handler) SeedPresets(c *gin.Context) {
	ownerID := c.GetHeader(playerHeader)
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": playerHeader + " header is required"})
		return
	}

	granted := 0
	for _, p := range h.presets {
		rec := p.Record()
		rec.OwnerID = ownerID
		if _, err := h.creatures.Create(c.Request.Context(), &rec); err != nil {
			if errors.Is(err, postgres.ErrCreatureNameTaken) {
				continue
			}
			h.log.Error("preset seed failed", zap.String("preset", p.Name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to seed presets"})
			return
		}
		granted++
	}
	c.JSON(http.StatusOK, gin.H{"granted": granted})
}
