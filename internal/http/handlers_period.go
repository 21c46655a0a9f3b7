package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mindful/internal/core"
)

func (s *Server) toPeriodResponse(p core.Period) periodResponse {
	return periodResponse{Period: p, Status: p.Status(s.now())}
}

func (s *Server) handleCreatePeriod(c *gin.Context) {
	var req periodRequest
	if !bindJSON(c, &req) {
		return
	}

	p, wallets, err := s.periods.Create(c.Request.Context(), req.input(c.Param("accountID")))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": createPeriodResponse{
		Period:  s.toPeriodResponse(p),
		Wallets: wallets,
	}})
}

func (s *Server) handleListPeriods(c *gin.Context) {
	periods, err := s.periods.List(c.Request.Context(), c.Param("accountID"))
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]periodResponse, 0, len(periods))
	for _, p := range periods {
		out = append(out, s.toPeriodResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (s *Server) handleGetPeriod(c *gin.Context) {
	p, err := s.periods.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.toPeriodResponse(p)})
}

func (s *Server) handleUpdatePeriod(c *gin.Context) {
	var req periodUpdateRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := s.periods.Update(c.Request.Context(), c.Param("id"), req.update())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.toPeriodResponse(p)})
}

func (s *Server) handleClosePeriod(c *gin.Context) {
	p, err := s.periods.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": s.toPeriodResponse(p)})
}

func (s *Server) handleListWallets(c *gin.Context) {
	wallets, err := s.periods.Wallets(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": wallets})
}

func (s *Server) handlePeriodSummary(c *gin.Context) {
	summary, err := s.periods.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": summary})
}

// handleValidateWalletSetup checks a setup without storing anything. The outcome is
// reported in the body, so an invalid setup still answers 200.
func (s *Server) handleValidateWalletSetup(c *gin.Context) {
	var req walletSetupRequest
	if !bindJSON(c, &req) {
		return
	}

	problems := core.ValidateCompleteWalletSetup(req.WalletSetup)
	if problems == nil {
		problems = []string{}
	}
	c.JSON(http.StatusOK, walletSetupResponse{Valid: len(problems) == 0, Errors: problems})
}
