// internal/dashboard/dashboard.go

// Package dashboard serves a read-only HTTP view of the result log. It never
// writes to the store.
package dashboard

import (
	_ "embed"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driftmon/internal/appconfig"
	"driftmon/internal/drift"
	"driftmon/internal/report"
	"driftmon/internal/results"
	"driftmon/internal/suite"
)

//go:embed index.html
var indexHTML []byte

// Server exposes the accumulated results over HTTP.
type Server struct {
	cfg     *appconfig.Config
	battery suite.Battery
	store   *results.Store
}

// NewServer builds a dashboard server over the given store.
func NewServer(cfg *appconfig.Config, battery suite.Battery, store *results.Store) *Server {
	return &Server{cfg: cfg, battery: battery, store: store}
}

// Router builds the gin handler tree.
func (s *Server) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", s.handleHealthz)
	r.GET("/", s.handleIndex)

	api := r.Group("/api")
	api.GET("/summary", s.handleSummary)
	api.GET("/timeline", s.handleTimeline)
	api.GET("/report", s.handleReport)
	api.GET("/drift", s.handleDrift)
	return r
}

// Run serves the dashboard until the listener fails.
func (s *Server) Run(addr string) error {
	return s.Router().Run(addr)
}

func (s *Server) handleHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

type summaryModel struct {
	ModelID  string   `json:"modelId"`
	Name     string   `json:"name"`
	Accuracy *float64 `json:"accuracy"`
}

type summaryResponse struct {
	Runs     int            `json:"runs"`
	FirstRun string         `json:"firstRun,omitempty"`
	LastRun  string         `json:"lastRun,omitempty"`
	Models   []summaryModel `json:"models"`
}

func (s *Server) handleSummary(c *gin.Context) {
	batches, ok := s.loadBatches(c)
	if !ok {
		return
	}
	resp := summaryResponse{Runs: len(batches)}
	if len(batches) > 0 {
		resp.FirstRun = batches[0].RunID
		resp.LastRun = batches[len(batches)-1].RunID
	}
	caseIDs := s.battery.CaseIDs()
	for _, model := range s.cfg.Models {
		if !model.Enabled {
			continue
		}
		sm := summaryModel{ModelID: model.ID, Name: model.Name}
		// Most recent complete batch wins.
		for i := len(batches) - 1; i >= 0; i-- {
			if batches[i].Complete(model.ID, caseIDs) {
				sm.Accuracy = batches[i].AccuracyMean(model.ID)
				break
			}
		}
		resp.Models = append(resp.Models, sm)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleTimeline(c *gin.Context) {
	batches, ok := s.loadBatches(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, report.BuildTimeline(batches, s.cfg.Models, s.battery.CaseIDs()))
}

func (s *Server) handleReport(c *gin.Context) {
	batches, ok := s.loadBatches(c)
	if !ok {
		return
	}
	driftReport, err := s.detect(batches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	categories := make([]string, 0, len(suite.Categories()))
	for _, category := range suite.Categories() {
		categories = append(categories, string(category))
	}
	c.JSON(http.StatusOK, report.Build(batches, s.cfg.Models, s.battery.CaseIDs(), categories, &driftReport, time.Now()))
}

func (s *Server) handleDrift(c *gin.Context) {
	batches, ok := s.loadBatches(c)
	if !ok {
		return
	}
	driftReport, err := s.detect(batches)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, driftReport)
}

func (s *Server) detect(batches []results.Batch) (drift.Report, error) {
	var modelIDs []string
	for _, model := range s.cfg.Models {
		if model.Enabled {
			modelIDs = append(modelIDs, model.ID)
		}
	}
	opts := drift.Options{Alpha: s.cfg.DriftSignificanceLevel(), MinEffect: s.cfg.DriftMinEffectSize()}
	return drift.Detect(batches, modelIDs, s.battery.CaseIDs(), opts, time.Now())
}

func (s *Server) loadBatches(c *gin.Context) ([]results.Batch, bool) {
	batches, err := s.store.LoadBatches()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return batches, true
}
