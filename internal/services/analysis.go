package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leaseguard/leaseguard-api/internal/assistant"
	"github.com/leaseguard/leaseguard-api/internal/chunker"
	"github.com/leaseguard/leaseguard-api/internal/config"
	"github.com/leaseguard/leaseguard-api/internal/extractor"
	"github.com/leaseguard/leaseguard-api/internal/models"
	"github.com/leaseguard/leaseguard-api/internal/orchestrator"
	"github.com/leaseguard/leaseguard-api/internal/prescreen"
	"github.com/leaseguard/leaseguard-api/internal/reconcile"
	"github.com/leaseguard/leaseguard-api/internal/repository"
	"github.com/leaseguard/leaseguard-api/internal/storage"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

const analysisInstructions = `You are a lease agreement analyst. Analyze the lease document above and respond ONLY with a valid JSON object (no markdown, no code blocks) of this shape:
{
  "property_details": {"address": "", "property_type": "", "size": "", "condition": "", "low_confidence": false},
  "financial_terms": {"monthly_rent": "", "deposit": "", "utility_costs": "", "payment_terms": "", "low_confidence": false},
  "lease_period": {"start_date": "", "end_date": "", "duration": "", "notice_period": "", "low_confidence": false},
  "parties": {"landlord": "", "tenant": "", "low_confidence": false},
  "insights": [{"title": "", "content": "", "severity": "informational|moderate|warning", "rating": {"value": 0, "label": ""}, "indicators": [""]}],
  "recommendations": [""],
  "compliance_score": 0,
  "compliance_level": "green|yellow|red"
}
Set low_confidence to true on any section you could not determine reliably. Rate compliance_score from 0 (severe problems) to 100 (fully compliant).`

type AnalysisService interface {
	UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error)
	AnalyzeDocument(ctx context.Context, id string, force bool) (*models.AnalysisResponse, error)
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error)
}

type analysisService struct {
	repo       repository.Repository
	storage    storage.Storage
	engine     *prescreen.Engine
	orch       *orchestrator.Orchestrator
	reconciler *reconcile.Reconciler
	cfg        *config.Config
	logger     *utils.Logger
}

// NewAnalysisService wires the analysis pipeline: chunking, pre-screening,
// the generation job orchestrator and reconciliation.
func NewAnalysisService(
	repo repository.Repository,
	store storage.Storage,
	client assistant.Client,
	cfg *config.Config,
	logger *utils.Logger,
) (AnalysisService, error) {
	engine, err := prescreen.NewEngine(prescreen.Options{
		ScanEnabled:      cfg.PrescreenScanEnabled,
		ChecklistEnabled: cfg.PrescreenChecklistEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build pre-screening engine: %w", err)
	}

	orch := orchestrator.New(client, orchestrator.Options{
		BaseDelay:  cfg.PollBaseDelay,
		Growth:     cfg.PollGrowth,
		MaxDelay:   cfg.PollMaxDelay,
		MaxRetries: cfg.MaxPollRetries,
		Timeout:    cfg.AnalysisTimeout,
	}, logger.WithComponent("orchestrator"))

	reconciler := reconcile.New(reconcile.Options{
		CriticalTitles:        cfg.CriticalTitles,
		SummaryTitles:         cfg.SummaryTitles,
		InformationalKeywords: cfg.InformationalKeywords,
		SeriousKeywords:       cfg.SeriousKeywords,
	})

	return &analysisService{
		repo:       repo,
		storage:    store,
		engine:     engine,
		orch:       orch,
		reconciler: reconciler,
		cfg:        cfg,
		logger:     logger,
	}, nil
}

func (s *analysisService) UploadDocument(ctx context.Context, req *models.UploadRequest) (*models.UploadResponse, error) {
	docID := utils.GenerateID()

	var extractedText string
	var err error

	switch {
	case req.ContentType == "application/pdf":
		extractedText, err = extractor.ExtractPDF(req.File)
	case isDOCXContentType(req.ContentType):
		extractedText, err = extractor.ExtractDOCX(req.File)
	case isTextContentType(req.ContentType):
		extractedText, err = extractor.ExtractTXT(req.File)
	default:
		s.logger.Warn("Unsupported content type", "content_type", req.ContentType, "filename", req.Filename)
		return nil, utils.NewBadRequestError(fmt.Sprintf("Unsupported file type '%s'. Only PDF, DOCX and TXT are allowed", req.ContentType))
	}

	if err != nil {
		s.logger.Error("Failed to extract text", "error", err, "content_type", req.ContentType, "filename", req.Filename)
		return nil, utils.NewBadRequestError("No text could be extracted from the document. The file may be empty or corrupted")
	}
	if strings.TrimSpace(extractedText) == "" {
		return nil, utils.NewBadRequestError("No text could be extracted from the document. The file may be empty or corrupted")
	}

	s3Key := fmt.Sprintf("documents/%s/%s", docID, req.Filename)
	if err := s.storage.Upload(ctx, s3Key, req.File, req.ContentType); err != nil {
		s.logger.Error("Failed to upload to S3", "error", err, "s3_key", s3Key)
		return nil, utils.NewInternalError("Failed to store document")
	}

	now := time.Now()
	doc := &models.Document{
		ID:            docID,
		Filename:      req.Filename,
		FileSize:      int64(len(req.File)),
		ContentType:   normalizeContentType(req.ContentType),
		S3Key:         s3Key,
		ExtractedText: extractedText,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		s.logger.Error("Failed to save document to database", "error", err, "doc_id", docID)
		_ = s.storage.Delete(ctx, s3Key)
		return nil, utils.NewInternalError("Failed to save document metadata")
	}

	s.logger.Info("Document uploaded",
		"id", docID,
		"filename", req.Filename,
		"content_type", req.ContentType,
		"text_length", len(extractedText))

	return &models.UploadResponse{
		ID:          docID,
		Filename:    req.Filename,
		FileSize:    doc.FileSize,
		ContentType: doc.ContentType,
		CreatedAt:   now,
		Message:     "Document uploaded successfully. Use /documents/{id}/analyze to analyze it.",
	}, nil
}

// AnalyzeDocument runs the full pipeline. A stored result is returned as-is
// unless force is set, in which case it feeds reconciliation as the
// secondary input for the fresh run.
func (s *analysisService) AnalyzeDocument(ctx context.Context, id string, force bool) (*models.AnalysisResponse, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}

	if !force {
		if stored, analyzedAt, err := s.repo.GetResult(ctx, id); err == nil && stored != nil {
			s.logger.Info("Returning stored analysis", "id", id)
			return &models.AnalysisResponse{ID: id, Result: stored, AnalyzedAt: *analyzedAt}, nil
		}
	}

	chunks := chunker.Split(doc.ExtractedText, s.cfg.MaxChunkLength)

	// The pre-screen runs up front so its annotation can ride with the
	// final chunk message.
	preRes := s.engine.Scan(doc.ExtractedText)
	instructions := analysisInstructions
	if ann := preRes.Annotation(); ann != "" {
		instructions = instructions + "\n\n" + ann
	}

	s.logger.Info("Starting document analysis",
		"id", id,
		"chunks", len(chunks),
		"prescreen_hits", len(preRes.Violations))

	// The remote job and the secondary lookup proceed in parallel; the
	// job dominates wall-clock time.
	var primary *models.AnalysisResult
	var secondary *models.AnalysisResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		primary, err = s.orch.Analyze(gctx, chunks, instructions)
		return err
	})
	g.Go(func() error {
		if !force {
			return nil
		}
		stored, _, err := s.repo.GetResult(gctx, id)
		if err != nil {
			// Reconciliation degrades gracefully without a secondary.
			s.logger.Warn("Failed to load previous result", "error", err, "id", id)
			return nil
		}
		secondary = stored
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, s.classifyAnalysisError(id, err)
	}

	final := s.reconciler.Reconcile(primary, secondary, preRes)

	analyzedAt := time.Now()
	if err := s.repo.SaveResult(ctx, id, final, analyzedAt); err != nil {
		s.logger.Error("Failed to save analysis result", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to save analysis results")
	}

	s.logger.Info("Document analyzed",
		"id", id,
		"insights", len(final.Insights),
		"compliance_score", final.ComplianceScore,
		"compliance_level", final.ComplianceLevel)

	return &models.AnalysisResponse{ID: id, Result: final, AnalyzedAt: analyzedAt}, nil
}

func (s *analysisService) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}
	return doc, nil
}

func (s *analysisService) GetAnalysis(ctx context.Context, id string) (*models.AnalysisResponse, error) {
	result, analyzedAt, err := s.repo.GetResult(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get analysis", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve analysis")
	}
	if result == nil {
		return nil, utils.NewNotFoundError("Document has not been analyzed yet")
	}
	return &models.AnalysisResponse{ID: id, Result: result, AnalyzedAt: *analyzedAt}, nil
}

// classifyAnalysisError maps orchestrator error kinds onto API errors so
// callers can distinguish "try again" from hard failures.
func (s *analysisService) classifyAnalysisError(id string, err error) error {
	var timeoutErr *orchestrator.TimeoutError
	var terminalErr *orchestrator.JobTerminalError
	var malformedErr *orchestrator.MalformedResponseError

	switch {
	case errors.As(err, &timeoutErr):
		s.logger.Error("Analysis timed out", "id", id, "cause", timeoutErr.Cause)
		return utils.NewGatewayTimeoutError("Analysis timed out. Please try again")
	case errors.As(err, &terminalErr):
		s.logger.Error("Analysis job failed", "id", id, "state", terminalErr.State, "reason", terminalErr.Reason)
		return utils.NewInternalError("Analysis job failed")
	case errors.As(err, &malformedErr):
		s.logger.Error("Malformed analysis response", "id", id, "excerpt", malformedErr.Excerpt)
		return utils.NewInternalError("Analysis produced an unreadable result")
	default:
		s.logger.Error("Analysis failed", "id", id, "error", err)
		return utils.NewInternalError("Failed to analyze document")
	}
}

func isDOCXContentType(contentType string) bool {
	docxTypes := []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"application/vnd.openxmlformats-officedocument.wordprocessingml",
		"application/docx",
		"application/x-docx",
	}
	for _, docxType := range docxTypes {
		if contentType == docxType {
			return true
		}
	}
	return false
}

func isTextContentType(contentType string) bool {
	switch contentType {
	case "text/plain", "text/txt", "application/txt", "application/x-txt":
		return true
	}
	return false
}

func normalizeContentType(contentType string) string {
	if isDOCXContentType(contentType) {
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	}
	if isTextContentType(contentType) {
		return "text/plain"
	}
	return contentType
}
