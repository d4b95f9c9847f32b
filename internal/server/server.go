// Package server exposes the reconciliation pipeline over HTTP: one
// endpoint accepts the dataset pair as uploads, runs the pipeline once
// and returns the report as JSON. Uploaded databases live in a temp
// file only for the duration of the request.
package server

import (
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"unitdash/internal/catalog"
	"unitdash/internal/pipeline"
	"unitdash/internal/source"
)

// Server wires the HTTP handlers to the pipeline.
type Server struct {
	cfg Config
	log *slog.Logger
}

// New builds a Server. A nil logger falls back to slog.Default.
func New(cfg Config, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{cfg: cfg, log: logger}
}

// Router assembles the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = s.cfg.MaxUploadMB << 20

	r.GET("/healthz", s.handleHealth)
	v1 := r.Group("/v1")
	v1.POST("/reports", s.handleCreateReport)
	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCreateReport runs the whole pipeline for one uploaded dataset
// pair: a SQLite inventory database (required) and a cost-catalog CSV
// (optional). Schema violations are client errors; per-row data issues
// never fail the request.
func (s *Server) handleCreateReport(c *gin.Context) {
	start := time.Now()

	dbUpload, err := c.FormFile("database")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing database upload"})
		return
	}
	dbPath, cleanup, err := s.saveUpload(c, dbUpload)
	if err != nil {
		s.log.Error("save upload failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not store uploaded database"})
		return
	}
	defer cleanup()

	db, err := source.Open(dbPath)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "uploaded file is not a usable sqlite database"})
		return
	}
	defer db.Close()

	tables, err := db.Tables()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	table, err := source.PickTable(tables, c.PostForm("table"), s.cfg.PreferredTable)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	units, err := db.LoadUnits(table)
	if err != nil {
		status := http.StatusBadRequest
		if !errors.Is(err, pipeline.ErrSchemaMismatch) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	input := pipeline.Input{Units: units, SourceTable: table}
	if costsUpload, err := c.FormFile("costs"); err == nil {
		parsed, perr := s.parseCatalog(costsUpload)
		if perr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
			return
		}
		if parsed.Entries == nil {
			parsed.Entries = []pipeline.CatalogEntry{}
		}
		input.Catalog = parsed.Entries
		input.CatalogQuality = &pipeline.CatalogQuality{
			DroppedRows:    parsed.DroppedRows,
			DroppedSamples: parsed.DroppedSamples,
		}
		if parsed.DroppedRows > 0 {
			s.log.Warn("catalog rows dropped during cleaning",
				"dropped", parsed.DroppedRows, "samples", parsed.DroppedSamples)
		}
	}

	report, err := pipeline.Run(input)
	if err != nil {
		if errors.Is(err, pipeline.ErrNoValidRecords) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":      err.Error(),
				"validation": report.Validation,
			})
			return
		}
		s.log.Error("pipeline failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.log.Info("report generated",
		"report_id", report.ReportID,
		"table", table,
		"total_records", report.Validation.TotalRecords,
		"valid_records", report.Validation.ValidRecords,
		"catalog_loaded", report.CatalogLoaded,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	c.JSON(http.StatusOK, report)
}

// saveUpload writes the uploaded database to a temp file and returns the
// path plus its cleanup func.
func (s *Server) saveUpload(c *gin.Context, fh *multipart.FileHeader) (string, func(), error) {
	dir, err := os.MkdirTemp("", "unitdash-upload-*")
	if err != nil {
		return "", nil, err
	}
	path := filepath.Join(dir, "inventory.db")
	if err := c.SaveUploadedFile(fh, path); err != nil {
		os.RemoveAll(dir)
		return "", nil, err
	}
	return path, func() { os.RemoveAll(dir) }, nil
}

func (s *Server) parseCatalog(fh *multipart.FileHeader) (catalog.ParseResult, error) {
	f, err := fh.Open()
	if err != nil {
		return catalog.ParseResult{}, err
	}
	defer f.Close()
	return catalog.Parse(f)
}
