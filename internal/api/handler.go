package api

import (
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/prasenjit/spechub/internal/docview"
	"github.com/prasenjit/spechub/internal/events"
	"github.com/prasenjit/spechub/internal/ingest"
	"github.com/prasenjit/spechub/internal/models"
	"github.com/prasenjit/spechub/internal/sdkgen"
	"github.com/prasenjit/spechub/internal/stats"
	"github.com/prasenjit/spechub/internal/storage"
	"github.com/prasenjit/spechub/internal/tryit"
)

// MaxUploadSize caps spec uploads at 5 MiB.
const MaxUploadSize = 5 << 20

// Handler handles API requests.
type Handler struct {
	store      storage.Storage
	workflow   *ingest.Workflow
	bridge     *sdkgen.Bridge
	hub        *events.Hub
	collector  *stats.Collector
	runner     *tryit.Runner
	uploadsDir string
}

// NewHandler creates a new API handler.
func NewHandler(store storage.Storage, workflow *ingest.Workflow, bridge *sdkgen.Bridge, hub *events.Hub, collector *stats.Collector, uploadsDir string) *Handler {
	return &Handler{
		store:      store,
		workflow:   workflow,
		bridge:     bridge,
		hub:        hub,
		collector:  collector,
		runner:     tryit.NewRunner(30 * time.Second),
		uploadsDir: uploadsDir,
	}
}

// UploadSpec accepts a multipart spec upload and runs the ingestion workflow.
func (h *Handler) UploadSpec(c *gin.Context) {
	file, err := c.FormFile("specfile")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "No file uploaded"})
		return
	}

	if file.Size > MaxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"message": "File exceeds 5 MiB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Only JSON and YAML files are allowed"})
		return
	}

	tempPath := filepath.Join(h.uploadsDir, "tmp-"+uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, tempPath); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	result, err := h.workflow.Ingest(c.Request.Context(), tempPath, ext, c.PostForm("providerId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.collector.RecordUpload(result.Record.ID)

	if result.Outcome == ingest.OutcomeUpdated {
		h.hub.Publish(&models.Event{
			Type:    models.EventSpecUpdated,
			ApiID:   result.Record.ID,
			ApiName: result.Record.Name,
		})
		c.JSON(http.StatusOK, gin.H{
			"message": "API Spec updated successfully",
			"apiId":   result.Record.ID,
			"api":     result.Record,
		})
		return
	}

	h.hub.Publish(&models.Event{
		Type:    models.EventSpecCreated,
		ApiID:   result.Record.ID,
		ApiName: result.Record.Name,
	})
	c.JSON(http.StatusCreated, gin.H{
		"message": "API Spec uploaded successfully",
		"apiId":   result.Record.ID,
		"api":     result.Record,
	})
}

// GetApi returns one record with its full spec document.
func (h *Handler) GetApi(c *gin.Context) {
	rec, err := h.store.GetAPI(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.collector.RecordFetch(rec.ID)
	c.JSON(http.StatusOK, rec)
}

// SaveApi marks a record as saved, optionally attaching provider display
// metadata. Re-saving an already-saved record refreshes its timestamps.
func (h *Handler) SaveApi(c *gin.Context) {
	rec, err := h.store.GetAPI(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	// An empty body is a plain save; a chunked request carries no
	// Content-Length, so attempt the bind and treat EOF as "no body".
	var input models.SaveInput
	if err := c.ShouldBindJSON(&input); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	now := time.Now()
	rec.IsSaved = true
	rec.SavedAt = &now
	rec.UpdatedAt = now
	if input.ProviderName != nil {
		rec.ProviderName = *input.ProviderName
	}
	if input.ProviderWebsite != nil {
		rec.ProviderWebsite = *input.ProviderWebsite
	}
	if input.Description != nil {
		rec.Description = *input.Description
	}

	if err := h.store.UpdateAPI(rec); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	h.hub.Publish(&models.Event{
		Type:    models.EventSpecSaved,
		ApiID:   rec.ID,
		ApiName: rec.Name,
	})
	c.JSON(http.StatusOK, rec)
}

// ListAll returns the projection of every record.
func (h *Handler) ListAll(c *gin.Context) {
	summaries, err := h.store.ListAll()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "apis": summaries})
}

// ListSaved returns the projection of saved records only.
func (h *Handler) ListSaved(c *gin.Context) {
	summaries, err := h.store.ListSaved()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(summaries), "apis": summaries})
}

// ListEndpoints returns the flattened endpoint list for a record's spec.
func (h *Handler) ListEndpoints(c *gin.Context) {
	rec, err := h.store.GetAPI(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	endpoints := docview.Endpoints(rec.Spec)
	c.JSON(http.StatusOK, gin.H{"count": len(endpoints), "endpoints": endpoints})
}

// EndpointDetail returns the parameter and response tables for one endpoint.
func (h *Handler) EndpointDetail(c *gin.Context) {
	path := c.Query("path")
	method := c.Query("method")
	if path == "" || method == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "path and method query parameters are required"})
		return
	}

	rec, err := h.store.GetAPI(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	detail, err := docview.Operation(rec.Spec, path, method)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, detail)
}

// TryInput is the request body for the try-it runner.
type TryInput struct {
	Path   string `json:"path"`
	Method string `json:"method"`
	Input  string `json:"input"`
}

// TryRequest executes a live request against the API the spec documents.
// Failed calls still return 200; the outcome payload carries the failure for
// inline display.
func (h *Handler) TryRequest(c *gin.Context) {
	rec, err := h.store.GetAPI(c.Param("id"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "API not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	var input TryInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	if input.Path == "" || input.Method == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "path and method are required"})
		return
	}

	outcome, err := h.runner.Send(c.Request.Context(), rec.Spec, input.Path, input.Method, input.Input)
	if err != nil {
		if errors.Is(err, tryit.ErrInputParse) {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GenerateSDK invokes the external generator for a record and language.
func (h *Handler) GenerateSDK(c *gin.Context) {
	var input models.GenerateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.ApiID == "" || input.Language == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "apiId and language are required"})
		return
	}

	outputDir, err := h.bridge.Generate(c.Request.Context(), input.ApiID, input.Language)
	if err != nil {
		if errors.Is(err, sdkgen.ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Spec file not found"})
			return
		}
		var genErr *sdkgen.GenerationError
		if errors.As(err, &genErr) {
			h.hub.Publish(&models.Event{
				Type:     models.EventSDKFailed,
				ApiID:    input.ApiID,
				Language: input.Language,
				Message:  genErr.Stderr,
			})
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate SDK", "details": genErr.Stderr})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.collector.RecordGeneration(input.ApiID)
	h.hub.Publish(&models.Event{
		Type:     models.EventSDKGenerated,
		ApiID:    input.ApiID,
		Language: input.Language,
	})
	c.JSON(http.StatusOK, gin.H{"message": "SDK generated successfully!", "sdkPath": outputDir})
}

// DownloadSDK streams a zip archive of the generated output directory.
func (h *Handler) DownloadSDK(c *gin.Context) {
	apiID := c.Param("apiId")
	language := c.Param("language")

	dir, err := h.bridge.OutputDir(apiID, language)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "SDK not found. Please generate it first."})
		return
	}

	// Build the archive fully before sending anything so an archiving
	// failure is a clean 500, never a truncated download.
	archive, err := h.bridge.Archive(dir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to archive SDK"})
		return
	}

	h.collector.RecordDownload(apiID)

	filename := apiID + "-" + language + "-sdk.zip"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Header("Content-Length", strconv.Itoa(len(archive)))
	c.Data(http.StatusOK, "application/zip", archive)
}

// DownloadArchive serves a pre-built archive by the conventional path
// sdks/{apiId}.zip.
func (h *Handler) DownloadArchive(c *gin.Context) {
	apiID := c.Param("apiId")
	path := h.bridge.ArchivePath(apiID)

	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"message": "SDK not found for this API"})
		return
	}

	h.collector.RecordDownload(apiID)
	c.FileAttachment(path, apiID+"-sdk.zip")
}

// ListEvents returns recent activity events, newest first.
func (h *Handler) ListEvents(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, _ = strconv.Atoi(raw)
	}
	recent := h.hub.Recent(limit)
	c.JSON(http.StatusOK, gin.H{"count": len(recent), "events": recent})
}

// GetStats returns the aggregate usage counters.
func (h *Handler) GetStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.collector.Global())
}

// HealthCheck reports liveness.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now()})
}
