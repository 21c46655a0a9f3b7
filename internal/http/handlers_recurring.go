package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mindful/internal/core"
)

func (s *Server) handleCreateRecurringSpend(c *gin.Context) {
	var req recurringSpendRequest
	if !bindJSON(c, &req) {
		return
	}

	rs, err := s.recurring.Create(c.Request.Context(), req.recurringSpend(c.Param("accountID")))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": rs})
}

func (s *Server) handleListRecurringSpends(c *gin.Context) {
	list, err := s.recurring.List(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if list == nil {
		list = []core.RecurringSpend{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (s *Server) handleGetRecurringSpend(c *gin.Context) {
	rs, err := s.recurring.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rs})
}

func (s *Server) handleSetRecurringSpendActive(c *gin.Context) {
	var req activeRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.IsActive == nil {
		writeError(c, core.Validation([]string{"isActive is required"}))
		return
	}

	rs, err := s.recurring.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rs})
}

func (s *Server) handleRecurringOccurrences(c *gin.Context) {
	periodID := strings.TrimSpace(c.Query("periodId"))
	if periodID == "" {
		writeBadRequest(c, "periodId query parameter is required")
		return
	}

	id := c.Param("id")
	dates, err := s.recurring.Occurrences(c.Request.Context(), id, periodID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": occurrencesResponse{
		RecurringSpendID: id,
		PeriodID:         periodID,
		Dates:            days(dates),
	}})
}
