package credit

import (
	"context"
	"net/http"

	"github.com/brainforcegit/vin-bot/internal/api/common"

	"github.com/gin-gonic/gin"
)

type Credits interface {
	Balance(ctx context.Context, userID string) (int, error)
}

type BalanceResponse struct {
	UserID  string `json:"user_id"`
	Credits int    `json:"credits"`
}

type Handler struct {
	credits Credits
}

func NewHandler(credits Credits) *Handler {
	return &Handler{credits: credits}
}

// Balance godoc
// @Summary Credit balance
// @Description Returns the paid lookups a Telegram user can still spend. Unknown users have 0.
// @Tags credit
// @Produce  json
// @Param   user_id  path  string  true  "Telegram user ID"
// @Success 200 {object} BalanceResponse
// @Failure 500 {object} utils.Response
// @Router /credits/{user_id} [get]
func (h *Handler) Balance(c *gin.Context) {
	userID := c.Param("user_id")

	credits, err := h.credits.Balance(c.Request.Context(), userID)
	if err != nil {
		common.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, BalanceResponse{UserID: userID, Credits: credits})
}
