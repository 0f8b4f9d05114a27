package vin

import (
	"context"
	"net/http"

	"github.com/brainforcegit/vin-bot/internal/api/common"
	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/services"
	"github.com/brainforcegit/vin-bot/internal/utils"

	"github.com/gin-gonic/gin"
)

type Lookups interface {
	Lookup(ctx context.Context, vin string, who models.Identity) (*models.Report, error)
	History(ctx context.Context, userKey string) ([]services.HistoryEntry, error)
}

type Handler struct {
	lookups Lookups
}

func NewHandler(lookups Lookups) *Handler {
	return &Handler{lookups: lookups}
}

// CheckVIN godoc
// @Summary Decode a VIN
// @Description Decodes the VIN, stores the report under user_id and returns it.
// A user_id starting with "paid:" is stored in that user's paid history.
// @Tags vin
// @Accept  json
// @Produce  json
// @Param   input  body  CheckVINRequest  true  "VIN and requesting user"
// @Success 200 {object} CheckVINResponse
// @Failure 400 {object} utils.Response
// @Failure 502 {object} utils.Response
// @Failure 500 {object} utils.Response
// @Router /check-vin [post]
func (h *Handler) CheckVIN(c *gin.Context) {
	var req CheckVINRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	report, err := h.lookups.Lookup(c.Request.Context(), req.VIN, models.ParseIdentity(req.UserID))
	if err != nil {
		common.WriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, CheckVINResponse{Status: "ok", Report: report})
}

// History godoc
// @Summary Recent lookups of a user
// @Description Returns up to 10 reports stored under exactly this user_id, newest first.
// @Tags vin
// @Produce  json
// @Param   user_id  path  string  true  "User ID"
// @Success 200 {object} HistoryResponse
// @Failure 500 {object} utils.Response
// @Router /history/{user_id} [get]
func (h *Handler) History(c *gin.Context) {
	userID := c.Param("user_id")

	entries, err := h.lookups.History(c.Request.Context(), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}

	items := make([]HistoryItem, 0, len(entries))
	for _, e := range entries {
		items = append(items, HistoryItem{VIN: e.VIN, Timestamp: e.Timestamp, Report: e.Report})
	}
	c.JSON(http.StatusOK, HistoryResponse{UserID: userID, History: items})
}
