package dto

import (
	"time"

	"circdesk/internal/http-api/models"
)

type PlaceHoldRequest struct {
	TitleID int64 `json:"title_id" binding:"required"`
}

type ProcessNextHoldRequest struct {
	TitleID int64 `json:"title_id" binding:"required"`
	CopyID  int64 `json:"copy_id" binding:"required"`
}

type HoldResponse struct {
	ID           int64      `json:"id"`
	UserID       string     `json:"user_id"`
	TitleID      int64      `json:"title_id"`
	CopyID       *int64     `json:"copy_id,omitempty"`
	Status       string     `json:"status"`
	PlacedAt     time.Time  `json:"placed_at"`
	ReadyAt      *time.Time `json:"ready_at,omitempty"`
	PickupExpire *time.Time `json:"pickup_expire,omitempty"`
	Position     int        `json:"position"`
}

func FromModelToHoldResponse(hold *models.Hold) HoldResponse {
	return HoldResponse{
		ID:           hold.ID,
		UserID:       hold.UserID,
		TitleID:      hold.TitleID,
		CopyID:       hold.CopyID,
		Status:       string(hold.Status),
		PlacedAt:     hold.PlacedAt,
		ReadyAt:      hold.ReadyAt,
		PickupExpire: hold.PickupExpire,
		Position:     hold.Position,
	}
}

func FromModelToHoldResponses(holds []models.Hold) []HoldResponse {
	out := make([]HoldResponse, 0, len(holds))
	for i := range holds {
		out = append(out, FromModelToHoldResponse(&holds[i]))
	}
	return out
}
