package vin

import (
	"time"

	"github.com/brainforcegit/vin-bot/internal/models"
)

// CheckVINRequest is the body of POST /check-vin. The VIN shape itself is
// checked by the lookup service so every caller gets the same rule.
type CheckVINRequest struct {
	VIN    string `json:"vin" binding:"required"`
	UserID string `json:"user_id" binding:"required"`
}

type CheckVINResponse struct {
	Status string         `json:"status"`
	Report *models.Report `json:"report"`
}

type HistoryItem struct {
	VIN       string        `json:"vin"`
	Timestamp time.Time     `json:"timestamp"`
	Report    models.Report `json:"report"`
}

type HistoryResponse struct {
	UserID  string        `json:"user_id"`
	History []HistoryItem `json:"history"`
}
