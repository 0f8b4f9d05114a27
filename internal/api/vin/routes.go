package vin

import "github.com/gin-gonic/gin"

func RegisterRoutes(r gin.IRouter, h *Handler) {
	r.POST("/check-vin", h.CheckVIN)
	r.GET("/history/:user_id", h.History)
}
