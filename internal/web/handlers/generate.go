package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/kozaktomas/stock-metadata/internal/ai"
	"github.com/kozaktomas/stock-metadata/internal/config"
	"github.com/kozaktomas/stock-metadata/internal/constants"
	"github.com/kozaktomas/stock-metadata/internal/database"
	"github.com/kozaktomas/stock-metadata/internal/generator"
	"github.com/kozaktomas/stock-metadata/internal/keywords"
	"github.com/kozaktomas/stock-metadata/internal/stockcsv"
	"github.com/kozaktomas/stock-metadata/internal/title"
)

// ProviderFactory creates the named text provider.
type ProviderFactory func(ctx context.Context, name string) (ai.TextProvider, error)

// GenerateHandler handles synchronous generation and generation jobs.
type GenerateHandler struct {
	config      *config.Config
	jobManager  *JobManager
	runs        database.RunStore
	vocab       *title.Vocabulary
	newProvider ProviderFactory
	logger      zerolog.Logger
}

// NewGenerateHandler creates a new generate handler. A nil factory builds
// providers from cfg; a nil run store disables run history.
func NewGenerateHandler(cfg *config.Config, jm *JobManager, runs database.RunStore, vocab *title.Vocabulary, factory ProviderFactory, logger zerolog.Logger) *GenerateHandler {
	if factory == nil {
		factory = func(ctx context.Context, name string) (ai.TextProvider, error) {
			return ai.NewProvider(ctx, cfg.ProviderSettings(name))
		}
	}
	return &GenerateHandler{
		config:      cfg,
		jobManager:  jm,
		runs:        runs,
		vocab:       vocab,
		newProvider: factory,
		logger:      logger,
	}
}

// GenerateRequest represents a generation request
type GenerateRequest struct {
	Subject     string `json:"subject"`
	Keywords    string `json:"keywords"` // comma separated
	Category    string `json:"category"`
	Mode        string `json:"mode"`
	Strategy    string `json:"strategy"`
	AIShape     string `json:"ai_shape,omitempty"`
	Tier        string `json:"tier,omitempty"`
	Provider    string `json:"provider,omitempty"`
	Rows        int    `json:"rows"`
	Seed        uint64 `json:"seed,omitempty"`
	HeadSize    int    `json:"head_size,omitempty"`
	Budget      int    `json:"budget,omitempty"`
	Stride      int    `json:"stride,omitempty"`
	Connector   string `json:"connector,omitempty"`
	Concurrency int    `json:"concurrency,omitempty"`
}

// GenerateResponse is the JSON form of a synchronous run.
type GenerateResponse struct {
	RunID      string            `json:"run_id,omitempty"`
	Filename   string            `json:"filename"`
	Records    []stockcsv.Record `json:"records"`
	AIFailures int               `json:"ai_failures"`
	Cancelled  bool              `json:"cancelled"`
	Seed       uint64            `json:"seed"`
	Usage      *UsageInfo        `json:"usage,omitempty"`
}

// toConfig converts the request into a generation config, filling unset
// tunables from the server configuration.
func (h *GenerateHandler) toConfig(req GenerateRequest) (generator.GenerationConfig, error) {
	cfg := generator.GenerationConfig{
		Subject:         req.Subject,
		Keywords:        keywords.Clean(req.Keywords),
		Category:        req.Category,
		Rows:            req.Rows,
		Seed:            req.Seed,
		HeadSize:        req.HeadSize,
		StufferBudget:   req.Budget,
		ConnectorStride: req.Stride,
		Connector:       req.Connector,
		Concurrency:     req.Concurrency,
		AIConcurrency:   h.config.AI.Concurrency,
	}
	if cfg.HeadSize == 0 {
		cfg.HeadSize = h.config.Generation.HeadSize
	}
	if cfg.StufferBudget == 0 {
		cfg.StufferBudget = h.config.Generation.StufferBudget
	}
	if cfg.ConnectorStride == 0 {
		cfg.ConnectorStride = h.config.Generation.ConnectorStride
	}

	var err error
	if req.Mode != "" {
		if cfg.Mode, err = keywords.ParseRotationMode(req.Mode); err != nil {
			return cfg, &generator.ValidationError{Field: "mode", Message: err.Error()}
		}
	}
	if req.Strategy != "" {
		if cfg.Strategy, err = title.ParseStrategy(req.Strategy); err != nil {
			return cfg, &generator.ValidationError{Field: "strategy", Message: err.Error()}
		}
	}
	if req.AIShape != "" {
		if cfg.AIShape, err = title.ParseStrategy(req.AIShape); err != nil {
			return cfg, &generator.ValidationError{Field: "ai_shape", Message: err.Error()}
		}
	}
	if cfg.Tier, err = ai.ParseModelTier(req.Tier); err != nil {
		return cfg, &generator.ValidationError{Field: "tier", Message: err.Error()}
	}
	return cfg.WithDefaults(), nil
}

// prepare validates the request and builds a generator. The provider is nil
// unless the request asks for AI titles.
func (h *GenerateHandler) prepare(ctx context.Context, req GenerateRequest) (*generator.Generator, generator.GenerationConfig, ai.TextProvider, error) {
	cfg, err := h.toConfig(req)
	if err != nil {
		return nil, cfg, nil, err
	}

	var provider ai.TextProvider
	var requester *title.Requester
	if cfg.Strategy == title.StrategyExternal {
		provider, err = h.newProvider(ctx, req.Provider)
		if err != nil {
			return nil, cfg, nil, fmt.Errorf("failed to create AI provider: %w", err)
		}
		requester, err = title.NewRequester(provider, title.RequesterOptions{
			Timeout: h.config.AI.Timeout,
			Retries: h.config.AI.Retries,
			Logger:  h.logger,
		})
		if err != nil {
			return nil, cfg, nil, err
		}
	}

	if err := cfg.Validate(requester != nil); err != nil {
		return nil, cfg, nil, err
	}
	return generator.New(requester, h.vocab, h.logger), cfg, provider, nil
}

// respondPrepareError maps configuration problems to client errors.
func respondPrepareError(w http.ResponseWriter, err error) {
	var verr *generator.ValidationError
	switch {
	case errors.As(err, &verr):
		respondError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, ai.ErrMissingCredentials):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func usageInfo(provider ai.TextProvider) *UsageInfo {
	if provider == nil {
		return nil
	}
	usage := provider.GetUsage()
	return &UsageInfo{
		Requests:     usage.Requests,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		TotalCost:    usage.TotalCost,
	}
}

// Generate runs a generation synchronously and returns the CSV (or JSON with ?format=json).
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	gen, cfg, provider, err := h.prepare(r.Context(), req)
	if err != nil {
		respondPrepareError(w, err)
		return
	}

	result, err := gen.Generate(r.Context(), cfg, generator.Options{})
	if err != nil {
		respondPrepareError(w, err)
		return
	}
	if result.Cancelled {
		// Client went away.
		h.logger.Warn().Str("subject", sanitizeForLog(cfg.Subject)).Int("rows", len(result.Records)).Msg("synchronous generation aborted")
		return
	}

	runID := uuid.New().String()
	if h.saveRun(runID, cfg, result) {
		w.Header().Set("X-Run-ID", runID)
	} else {
		runID = ""
	}

	filename := stockcsv.DefaultFileName(len(result.Records))
	if wantsJSON(r) {
		respondJSON(w, http.StatusOK, GenerateResponse{
			RunID:      runID,
			Filename:   filename,
			Records:    result.Records,
			AIFailures: result.AIFailures,
			Seed:       result.Seed,
			Usage:      usageInfo(provider),
		})
		return
	}
	respondCSV(w, filename, result.Records)
}

// Start starts a new generation job
func (h *GenerateHandler) Start(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	// Providers outlive the request, so they are not bound to its context.
	gen, cfg, provider, err := h.prepare(context.Background(), req)
	if err != nil {
		respondPrepareError(w, err)
		return
	}

	jobID := uuid.New().String()
	job := h.jobManager.CreateJob(jobID, req, cfg.Rows)

	ctx, cancel := context.WithCancel(context.Background())
	job.setCancel(cancel)

	go h.runGenerateJob(ctx, cancel, job, gen, cfg, provider)

	respondJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  jobID,
		"subject": cfg.Subject,
		"status":  string(JobStatusPending),
	})
}

// List returns all jobs
func (h *GenerateHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.jobManager.ListJobs())
}

// lookupJob resolves the {jobId} URL parameter or writes an error response.
func (h *GenerateHandler) lookupJob(w http.ResponseWriter, r *http.Request) *GenerateJob {
	jobID := chi.URLParam(r, "jobId")
	if jobID == "" {
		respondError(w, http.StatusBadRequest, "missing job ID")
		return nil
	}

	job := h.jobManager.GetJob(jobID)
	if job == nil {
		respondError(w, http.StatusNotFound, "job not found")
		return nil
	}
	return job
}

// Status returns the status of a generation job
func (h *GenerateHandler) Status(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}
	respondJSON(w, http.StatusOK, job)
}

// Events streams job events via SSE
func (h *GenerateHandler) Events(w http.ResponseWriter, r *http.Request) {
	streamSSEEvents(w, r,
		func(id string) SSEJob {
			job := h.jobManager.GetJob(id)
			if job == nil {
				return nil
			}
			return job
		},
		func(job SSEJob) any {
			return job
		},
	)
}

// Download returns the rows of a finished job as CSV. Cancelled jobs
// return the rows completed before cancellation.
func (h *GenerateHandler) Download(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}

	if job.GetStatus() == JobStatusFailed {
		respondError(w, http.StatusConflict, "job failed")
		return
	}
	records, ok := job.Records()
	if !ok {
		respondError(w, http.StatusConflict, "job is still running")
		return
	}
	respondCSV(w, stockcsv.DefaultFileName(len(records)), records)
}

// Cancel cancels a running job. Deleting a finished job removes it.
func (h *GenerateHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	job := h.lookupJob(w, r)
	if job == nil {
		return
	}

	if job.finished() {
		h.jobManager.DeleteJob(job.ID)
		respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
		return
	}

	job.Cancel()
	respondJSON(w, http.StatusOK, map[string]bool{"cancelled": true})
}

// runGenerateJob runs the generation job in the background
func (h *GenerateHandler) runGenerateJob(ctx context.Context, cancel context.CancelFunc, job *GenerateJob, gen *generator.Generator, cfg generator.GenerationConfig, provider ai.TextProvider) {
	defer cancel()

	job.mu.Lock()
	if job.Status == JobStatusPending {
		job.Status = JobStatusRunning
	}
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "started", Message: "Generation started"})

	result, err := gen.Generate(ctx, cfg, generator.Options{
		OnProgress: func(info generator.ProgressInfo) {
			job.mu.Lock()
			job.ProcessedRows = info.Current
			job.Progress = int(float64(info.Current) / float64(info.Total) * 100)
			job.mu.Unlock()
			job.SendEvent(JobEvent{
				Type: "progress",
				Data: map[string]any{
					"current":  info.Current,
					"total":    info.Total,
					"filename": info.Filename,
					"title":    info.Title,
				},
			})
		},
	})
	if err != nil {
		h.failJob(job, fmt.Sprintf("generation failed: %v", err))
		return
	}

	jobResult := &GenerateJobResult{
		Rows:       len(result.Records),
		AIFailures: result.AIFailures,
		Cancelled:  result.Cancelled,
		Seed:       result.Seed,
		DurationMs: result.Duration.Milliseconds(),
		Preview:    result.Preview(constants.PreviewRows),
		Usage:      usageInfo(provider),
	}
	h.saveRun(job.ID, cfg, result)

	now := time.Now()
	job.mu.Lock()
	if result.Cancelled {
		job.Status = JobStatusCancelled
	} else {
		job.Status = JobStatusCompleted
		job.Progress = 100
	}
	job.CompletedAt = &now
	job.ProcessedRows = len(result.Records)
	job.Result = jobResult
	job.records = result.Records
	job.mu.Unlock()

	if result.Cancelled {
		job.SendEvent(JobEvent{Type: "cancelled", Message: "Job was cancelled", Data: jobResult})
		return
	}
	job.SendEvent(JobEvent{Type: "completed", Data: jobResult})
}

// saveRun records a finished run in the history and reports whether it was stored.
func (h *GenerateHandler) saveRun(id string, cfg generator.GenerationConfig, result *generator.Result) bool {
	if h.runs == nil || len(result.Records) == 0 {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := h.runs.SaveRun(ctx, &database.StoredRun{
		ID:         id,
		Subject:    cfg.Subject,
		Strategy:   string(cfg.Strategy),
		Mode:       string(cfg.Mode),
		Category:   cfg.Category,
		Requested:  cfg.Rows,
		AIFailures: result.AIFailures,
		Cancelled:  result.Cancelled,
		Seed:       result.Seed,
		CreatedAt:  time.Now().UTC(),
		Records:    result.Records,
	})
	if err != nil {
		h.logger.Warn().Err(err).Str("run_id", id).Msg("failed to save run")
		return false
	}
	return true
}

func (h *GenerateHandler) failJob(job *GenerateJob, message string) {
	now := time.Now()
	job.mu.Lock()
	job.Status = JobStatusFailed
	job.Error = message
	job.CompletedAt = &now
	job.mu.Unlock()
	job.SendEvent(JobEvent{Type: "job_error", Message: message})
	h.logger.Error().Str("job_id", job.ID).Msg(message)
}
