package services

import (
	"context"
	"fmt"
	"strconv"

	"github.com/leaseguard/leaseguard-api/internal/cache"
	"github.com/leaseguard/leaseguard-api/internal/report"
	"github.com/leaseguard/leaseguard-api/internal/repository"
	"github.com/leaseguard/leaseguard-api/internal/storage"
	"github.com/leaseguard/leaseguard-api/internal/utils"
)

type ReportService interface {
	GenerateReport(ctx context.Context, id string) ([]byte, error)
}

type reportService struct {
	repo     repository.Repository
	storage  storage.Storage
	renderer *report.Renderer
	cache    cache.Store
	logger   *utils.Logger
}

func NewReportService(
	repo repository.Repository,
	store storage.Storage,
	renderer *report.Renderer,
	reportCache cache.Store,
	logger *utils.Logger,
) ReportService {
	return &reportService{
		repo:     repo,
		storage:  store,
		renderer: renderer,
		cache:    reportCache,
		logger:   logger,
	}
}

// GenerateReport renders the analysis PDF for a document. Reports are cached
// per analysis run; re-analysis changes the analyzed timestamp and therefore
// the cache key.
func (s *reportService) GenerateReport(ctx context.Context, id string) ([]byte, error) {
	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get document", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve document")
	}
	if doc == nil {
		return nil, utils.NewNotFoundError("Document not found")
	}

	result, analyzedAt, err := s.repo.GetResult(ctx, id)
	if err != nil {
		s.logger.Error("Failed to get analysis result", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to retrieve analysis")
	}
	if result == nil {
		return nil, utils.NewNotFoundError("Document has not been analyzed yet")
	}

	key := cache.Key(id, strconv.FormatInt(analyzedAt.UnixNano(), 10))
	if pdf, ok := s.cache.Get(key); ok {
		s.logger.Info("Serving cached report", "id", id)
		return pdf, nil
	}

	pdf, err := s.renderer.Render(result, report.Metadata{
		DocumentID:  id,
		Filename:    doc.Filename,
		GeneratedAt: *analyzedAt,
	})
	if err != nil {
		s.logger.Error("Failed to render report", "error", err, "id", id)
		return nil, utils.NewInternalError("Failed to generate report")
	}

	s.cache.Put(key, pdf)

	// An S3 copy is kept for audit purposes; a failed copy never blocks
	// serving the freshly rendered report.
	s3Key := fmt.Sprintf("reports/%s.pdf", id)
	if err := s.storage.Upload(ctx, s3Key, pdf, "application/pdf"); err != nil {
		s.logger.Warn("Failed to archive report copy", "error", err, "s3_key", s3Key)
	}

	s.logger.Info("Report generated", "id", id, "bytes", len(pdf))
	return pdf, nil
}
