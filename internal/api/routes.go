package api

import (
	"context"
	"log"
	"math"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rawblock/isospec-engine/internal/db"
	"github.com/rawblock/isospec-engine/internal/elements"
	"github.com/rawblock/isospec-engine/internal/marginal"
	"github.com/rawblock/isospec-engine/internal/metrics"
	"github.com/rawblock/isospec-engine/internal/spectrum"
	"github.com/rawblock/isospec-engine/pkg/models"
)

// maxFormulaLen caps the formula string for a single request; anything
// longer is a copy-paste accident or abuse, not a molecule.
const maxFormulaLen = 512

// defaultThreshold is the relative peak cutoff used when a request leaves
// both threshold and coverage unset.
const defaultThreshold = 1e-6

type APIHandler struct {
	dbStore *db.PostgresStore
	wsHub   *Hub
}

func SetupRouter(dbStore *db.PostgresStore, wsHub *Hub) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://rawblock.net,https://www.rawblock.net
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore: dbStore,
		wsHub:   wsHub,
	}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/elements", handler.handleElements)
		pub.GET("/stream", wsHub.Subscribe)
	}
	r.GET("/metrics", metrics.Handler())

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// Rate-limit protected endpoints to 30 req/min per IP (burst=5).
	// A single /spectrum request can demand serious CPU — important here.
	auth.Use(NewRateLimiter(30, 5).Middleware("compute"))
	{
		auth.POST("/spectrum", handler.handleComputeSpectrum)
		auth.POST("/marginal", handler.handleComputeMarginal)
		auth.GET("/jobs", handler.handleListJobs)
	}

	return r
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "RawBlock Isotope Engine v1.0",
		"capabilities": gin.H{
			"threshold_generator": true,
			"coverage_generator":  true,
			"marginal_enumerator": true,
			"job_history":         h.dbStore != nil,
		},
		"elements":    len(elements.Symbols()),
		"dbConnected": h.dbStore != nil,
	})
}

// handleElements returns the isotope table the engine computes from.
func (h *APIHandler) handleElements(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"elements": elements.All()})
}

// handleComputeSpectrum runs a fine-structure computation.
// POST /api/v1/spectrum { "formula": "C6H12O6", "threshold": 1e-6 }
// POST /api/v1/spectrum { "formula": "C6H12O6", "coverage": 0.999 }
func (h *APIHandler) handleComputeSpectrum(c *gin.Context) {
	var req models.SpectrumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {formula, threshold|coverage}"})
		return
	}
	if len(req.Formula) == 0 || len(req.Formula) > maxFormulaLen {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Formula missing or too long", "maxLength": maxFormulaLen})
		return
	}

	mol, err := spectrum.NewMolecule(req.Formula)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot resolve formula", "details": err.Error()})
		return
	}

	kind := "threshold"
	if req.Coverage > 0 {
		kind = "coverage"
	}

	jobID := uuid.NewString()
	h.wsHub.BroadcastJobEvent(models.JobEvent{
		Type: "job_started", JobID: jobID, Formula: req.Formula, Kind: kind,
	})

	opts := &spectrum.Options{KeepConfigurations: req.Configurations}
	start := time.Now()

	var peaks []spectrum.Peak
	if kind == "coverage" {
		peaks, err = spectrum.TotalProb(mol, req.Coverage, opts)
	} else {
		threshold := req.Threshold
		if threshold == 0 {
			threshold = defaultThreshold
		}
		peaks, err = spectrum.Threshold(mol, threshold, req.Absolute, opts)
	}
	elapsed := time.Since(start)

	if err != nil {
		metrics.SpectraFailed.WithLabelValues(kind).Inc()
		h.wsHub.BroadcastJobEvent(models.JobEvent{
			Type: "job_failed", JobID: jobID, Formula: req.Formula, Kind: kind, Error: err.Error(),
		})
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Spectrum computation failed", "details": err.Error()})
		return
	}

	result := models.SpectrumResult{
		JobID:            jobID,
		Formula:          req.Formula,
		Kind:             kind,
		MonoisotopicMass: mol.MonoisotopicMass(),
		AvgMass:          mol.AvgMass(),
		PeakCount:        len(peaks),
		ElapsedMs:        float64(elapsed.Microseconds()) / 1000.0,
		Peaks:            make([]models.Peak, len(peaks)),
	}
	total := 0.0
	for i, p := range peaks {
		result.Peaks[i] = models.Peak{Mass: p.Mass, Prob: p.Prob, LogProb: p.LogProb, Configs: p.Configs}
		total += p.Prob
	}
	result.TotalProb = total

	metrics.SpectraComputed.WithLabelValues(kind).Inc()
	metrics.PeakCount.Observe(float64(len(peaks)))
	metrics.ComputeSeconds.Observe(elapsed.Seconds())

	h.wsHub.BroadcastJobEvent(models.JobEvent{
		Type: "job_finished", JobID: jobID, Formula: req.Formula, Kind: kind,
		PeakCount: len(peaks), TotalProb: total, ElapsedMs: result.ElapsedMs,
	})

	if h.dbStore != nil {
		job := models.JobRecord{
			ID: jobID, Formula: req.Formula, Kind: kind,
			PeakCount: len(peaks), TotalProb: total, ElapsedMs: result.ElapsedMs,
		}
		if err := h.dbStore.SaveSpectrumJob(context.Background(), job); err != nil {
			log.Printf("Failed to save spectrum job to DB: %v", err)
		}
	}

	c.JSON(http.StatusOK, result)
}

// handleComputeMarginal enumerates a single element's subisotopologues.
// POST /api/v1/marginal { "element": "C", "atomCount": 100, "cutoff": 1e-6 }
func (h *APIHandler) handleComputeMarginal(c *gin.Context) {
	var req models.MarginalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {element, atomCount, cutoff}"})
		return
	}

	elem, ok := elements.Lookup(req.Element)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown element", "element": req.Element})
		return
	}
	if !(req.Cutoff > 0) || req.Cutoff > 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cutoff must be in (0, 1]"})
		return
	}

	m, err := marginal.NewWithLogProbs(elem.Masses(), elem.Abundances(), elem.LogAbundances(), req.AtomCount)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid marginal parameters", "details": err.Error()})
		return
	}
	modeLprob := m.ModeLogProb()
	pc := marginal.NewPrecalculated(m, math.Log(req.Cutoff), req.Sorted, nil)

	result := models.MarginalResult{
		Element:        req.Element,
		AtomCount:      req.AtomCount,
		ModeLogProb:    modeLprob,
		Configurations: make([][]int32, pc.Len()),
		LogProbs:       make([]float64, pc.Len()),
		Probs:          make([]float64, pc.Len()),
		Masses:         make([]float64, pc.Len()),
		TotalProb:      pc.TotalProb(),
	}
	for i := 0; i < pc.Len(); i++ {
		result.Configurations[i] = pc.Configuration(i)
		result.LogProbs[i] = pc.LogProb(i)
		result.Probs[i] = pc.Prob(i)
		result.Masses[i] = pc.Mass(i)
	}

	c.JSON(http.StatusOK, result)
}

// handleListJobs returns the persisted computation history.
func (h *APIHandler) handleListJobs(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	// Parse pagination parameters
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	jobs, totalCount, err := h.dbStore.ListRecentJobs(c.Request.Context(), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job history", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       jobs,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
	})
}
