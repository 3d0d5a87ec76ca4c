package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"eglise/internal/amqp"
	"eglise/internal/core"
	"eglise/internal/sheets"
	"eglise/internal/storage"
)

// YearCloseService orchestrates year closing across SQLite, AMQP and the
// archive export. The AMQP client and archive writer are optional; when
// absent the corresponding step is skipped.
type YearCloseService struct {
	storage    *storage.SQLiteRepository
	amqpClient *amqp.Client
	archive    sheets.ArchiveWriter
}

func NewYearCloseService(storage *storage.SQLiteRepository, amqpClient *amqp.Client, archive sheets.ArchiveWriter) *YearCloseService {
	return &YearCloseService{
		storage:    storage,
		amqpClient: amqpClient,
		archive:    archive,
	}
}

// CloseYear closes the year in SQLite first, then announces it. The
// announcement is best-effort: the close stands even when the broker or
// the export is unavailable.
func (s *YearCloseService) CloseYear(ctx context.Context, year int, note *string) (core.YearSummary, error) {
	summary, err := s.storage.CloseYear(ctx, year, note)
	if err != nil {
		return core.YearSummary{}, fmt.Errorf("close year: %w", err)
	}

	s.announceClosed(ctx, summary)
	return summary, nil
}

// AutoClosePreviousYear closes last year if it is still open. Returns nil
// when there was nothing to do.
func (s *YearCloseService) AutoClosePreviousYear(ctx context.Context, now time.Time) (*core.YearSummary, error) {
	summary, err := s.storage.CheckAndClosePreviousYear(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("auto close previous year: %w", err)
	}
	if summary == nil {
		return nil, nil
	}

	s.announceClosed(ctx, *summary)
	return summary, nil
}

// ExportYearArchive reads the year's summary and contribution rows and
// writes them to the configured archive.
func (s *YearCloseService) ExportYearArchive(ctx context.Context, year int) (string, error) {
	if s.archive == nil {
		return "", fmt.Errorf("archive writer not configured")
	}

	summary, err := s.storage.GetYearSummary(ctx, year)
	if err != nil {
		return "", fmt.Errorf("load year summary: %w", err)
	}
	if summary == nil {
		return "", fmt.Errorf("%w: year %d has no summary", core.ErrNotFound, year)
	}

	contributions, err := s.storage.ListContributionsByYearWithMember(ctx, year)
	if err != nil {
		return "", fmt.Errorf("load contributions: %w", err)
	}

	ref, err := s.archive.WriteYearArchive(ctx, *summary, contributions)
	if err != nil {
		return "", fmt.Errorf("write archive: %w", err)
	}

	slog.InfoContext(ctx, "Exported year archive",
		"year", year,
		"contributions", len(contributions),
		"ref", ref)
	return ref, nil
}

func (s *YearCloseService) announceClosed(ctx context.Context, summary core.YearSummary) {
	if err := s.publishYearClosed(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "Failed to publish year closed message",
			"year", summary.Year, "error", err)
		// Don't fail the request - the year is closed locally
	}

	if s.archive != nil {
		if _, err := s.ExportYearArchive(ctx, summary.Year); err != nil {
			slog.ErrorContext(ctx, "Failed to export year archive",
				"year", summary.Year, "error", err)
		}
	}
}

func (s *YearCloseService) publishYearClosed(ctx context.Context, summary core.YearSummary) error {
	if s.amqpClient == nil {
		slog.WarnContext(ctx, "AMQP client not available, skipping year closed message")
		return nil
	}

	var note, closedAt string
	if summary.Note != nil {
		note = *summary.Note
	}
	if summary.ClosedAt != nil {
		closedAt = *summary.ClosedAt
	}
	msg := amqp.NewYearClosedMessage(summary.Year, summary.Total.String(), note, closedAt)
	return s.amqpClient.PublishYearClosed(ctx, msg)
}

// Close closes both storage and AMQP connections
func (s *YearCloseService) Close() error {
	var errs []error

	if s.storage != nil {
		if err := s.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("storage: %w", err))
		}
	}

	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close year service: %v", errs)
	}

	return nil
}
