package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/wfunc/minecraft-monitor/internal/errors"
	"github.com/wfunc/minecraft-monitor/internal/models"
	"github.com/wfunc/minecraft-monitor/internal/nbt"
	"github.com/wfunc/minecraft-monitor/internal/repository"
)

// PlayerHandler 玩家处理器
type PlayerHandler struct {
	players repository.PlayerRepository
}

// NewPlayerHandler 创建玩家处理器
func NewPlayerHandler(players repository.PlayerRepository) *PlayerHandler {
	return &PlayerHandler{players: players}
}

// playerView 背包只暴露是否存在，内容走单独的接口
type playerView struct {
	*models.Player
	HasInventory bool `json:"has_inventory"`
}

func newPlayerView(p *models.Player) playerView {
	return playerView{Player: p, HasInventory: p.HasInventory()}
}

// List 玩家列表
// @Summary 玩家列表
// @Tags Players
// @Produce json
// @Param online query bool false "只返回在线玩家"
// @Success 200 {array} playerView
// @Router /api/v1/players [get]
func (h *PlayerHandler) List(c *gin.Context) {
	onlineOnly := false
	if v := c.Query("online"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, err)
			return
		}
		onlineOnly = parsed
	}

	players, err := h.players.List(c.Request.Context(), onlineOnly)
	if err != nil {
		respondError(c, err)
		return
	}

	views := make([]playerView, 0, len(players))
	for _, p := range players {
		views = append(views, newPlayerView(p))
	}
	c.JSON(http.StatusOK, views)
}

// Get 玩家详情
// @Summary 玩家详情
// @Tags Players
// @Produce json
// @Param id path string true "玩家UUID"
// @Success 200 {object} playerView
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/players/{id} [get]
func (h *PlayerHandler) Get(c *gin.Context) {
	player, ok := h.find(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newPlayerView(player))
}

// Inventory 解码后的背包
// @Summary 玩家背包
// @Tags Players
// @Produce json
// @Param id path string true "玩家UUID"
// @Success 200 {array} nbt.Item
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/players/{id}/inventory [get]
func (h *PlayerHandler) Inventory(c *gin.Context) {
	player, ok := h.find(c)
	if !ok {
		return
	}
	if !player.HasInventory() {
		respondError(c, errors.New(errors.ErrNotFound, "背包数据不存在"))
		return
	}

	items, err := nbt.DecodeItems(*player.Inventory)
	if err != nil {
		respondError(c, errors.Wrap(err, errors.ErrResponseParse, "背包数据无法解析"))
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *PlayerHandler) find(c *gin.Context) (*models.Player, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, err)
		return nil, false
	}

	player, err := h.players.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if player == nil {
		respondError(c, errors.New(errors.ErrNotFound, "玩家不存在"))
		return nil, false
	}
	return player, true
}
