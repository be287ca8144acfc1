// Package server exposes the verification results over a small read-only
// HTTP API, so dashboards can poll ledgers and rankings without shelling
// out to the CLI.
package server

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/laityts/iptest/config"
)

// Server is the HTTP API over ledgers and rankings.
type Server struct {
	engine        *gin.Engine
	reportService *ReportService
	port          int
}

// NewServer creates the HTTP server on the given port.
func NewServer(cfg *config.Config, port int) *Server {
	gin.SetMode(gin.ReleaseMode)

	server := &Server{
		engine:        gin.Default(),
		reportService: NewReportService(cfg),
		port:          port,
	}

	server.setupRoutes()
	return server
}

func (s *Server) setupRoutes() {
	api := s.engine.Group("/api")
	{
		api.GET("/ledger", s.reportService.GetLedger)
		api.GET("/report", s.reportService.GetReport)
	}

	s.engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, Success(gin.H{"status": "ok"}))
	})
}

// Start runs the server until it fails or is killed.
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	fmt.Printf("HTTP Server starting on http://localhost%s\n", addr)
	fmt.Println("API Endpoints:")
	fmt.Println("  GET    /health")
	fmt.Println("  GET    /api/ledger?input=<batch>")
	fmt.Println("  GET    /api/report?input=<batch>&top=<n>&speed_file=<path>")
	return s.engine.Run(addr)
}

// Engine exposes the router for tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
