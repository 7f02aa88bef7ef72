package handler

import (
	"net/http"

	"livepoll/internal/services"
	"livepoll/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	service *services.StatsService
}

func NewStatsHandler(service *services.StatsService) *StatsHandler {
	return &StatsHandler{service: service}
}

// Overview returns dashboard aggregates. The service rejects non-admins.
func (h *StatsHandler) Overview(c *gin.Context) {
	res, err := h.service.Overview(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.StatsOverviewResponse{
		TotalPolls:      res.TotalPolls,
		ActivePolls:     res.ActivePolls,
		CompletedPolls:  res.CompletedPolls,
		TotalVotes:      res.TotalVotes,
		AvgVotesPerPoll: res.AvgVotesPerPoll,
	}))
}
