package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindful/internal/core"
)

func (s *Server) handleRecordSpend(c *gin.Context) {
	var req spendRequest
	if !bindJSON(c, &req) {
		return
	}

	date := s.now()
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.Time
	}

	sp, err := s.spends.Record(c.Request.Context(), core.Spend{
		PeriodID:    c.Param("id"),
		WalletID:    req.WalletID,
		Date:        date,
		Description: req.Description,
		Amount:      req.Amount,
		Category:    req.Category,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": sp})
}

func (s *Server) handleListSpends(c *gin.Context) {
	spends, err := s.spends.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if spends == nil {
		spends = []core.Spend{}
	}
	c.JSON(http.StatusOK, gin.H{"data": spends})
}
