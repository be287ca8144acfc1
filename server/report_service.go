package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/laityts/iptest/config"
	"github.com/laityts/iptest/internal/endpoint"
	"github.com/laityts/iptest/internal/ledger"
	"github.com/laityts/iptest/internal/service/score"
)

// ReportService serves ledger snapshots and composite rankings.
type ReportService struct {
	cfg *config.Config
}

// NewReportService creates a report service.
func NewReportService(cfg *config.Config) *ReportService {
	return &ReportService{cfg: cfg}
}

// GetLedger returns the parsed ledger for an input batch.
// GET /api/ledger?input=as123
func (s *ReportService) GetLedger(c *gin.Context) {
	input := c.Query("input")
	if input == "" {
		c.JSON(http.StatusBadRequest, Error(400, "missing 'input' query parameter"))
		return
	}

	ledgerPath := ledger.PathForInput(endpoint.ResolveInputParam(input))
	entries, err := ledger.NewStore(ledgerPath).Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, Error(500, err.Error()))
		return
	}

	c.JSON(http.StatusOK, Success(gin.H{
		"ledger":  ledgerPath,
		"count":   len(entries),
		"entries": entries,
	}))
}

// GetReport returns the composite ranking for an input batch.
// GET /api/report?input=as123&top=10&speed_file=as123/as123_speed.csv
func (s *ReportService) GetReport(c *gin.Context) {
	input := c.Query("input")
	if input == "" {
		c.JSON(http.StatusBadRequest, Error(400, "missing 'input' query parameter"))
		return
	}

	topN := s.cfg.Score.TopN
	if raw := c.Query("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, Error(400, "invalid 'top' query parameter"))
			return
		}
		topN = n
	}

	ledgerPath := ledger.PathForInput(endpoint.ResolveInputParam(input))
	entries, err := ledger.NewStore(ledgerPath).Snapshot()
	if err != nil {
		c.JSON(http.StatusInternalServerError, Error(500, err.Error()))
		return
	}
	if len(entries) == 0 {
		c.JSON(http.StatusNotFound, Error(404, "ledger has no entries"))
		return
	}

	var speeds *score.Table
	if speedFile := c.Query("speed_file"); speedFile != "" {
		// An unusable speed table degrades to latency-only scoring,
		// mirroring the CLI behavior.
		speeds, _ = score.LoadTable(speedFile)
	}

	ranked := score.Rank(entries, speeds, topN, s.cfg.Score)
	c.JSON(http.StatusOK, Success(gin.H{
		"ledger": ledgerPath,
		"count":  len(ranked),
		"ranked": ranked,
	}))
}
