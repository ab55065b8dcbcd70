package http

import (
	"time"

	"github.com/glasswing-dev/reservation-backend/internal/resource"
)

type CreateResourceBody struct {
	Name string `json:"name" binding:"required"`
}

type ResourceResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func NewResourceResponse(res *resource.Resource) ResourceResponse {
	return ResourceResponse{
		ID:        res.ID,
		Name:      res.Name,
		CreatedAt: res.CreatedAt,
	}
}
