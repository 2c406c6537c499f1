package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lonshanworld/inventory-forecasting/apperrors"
	"github.com/lonshanworld/inventory-forecasting/archive"
	"github.com/lonshanworld/inventory-forecasting/models"
)

// Ledger persists sales records keyed by (product_id, date).
type Ledger interface {
	UpsertSalesRecords(ctx context.Context, records []models.SalesRecord) error
}

// Recorder observes ingestion outcomes.
type Recorder interface {
	ObserveUpload(accepted, rejected int)
	ObserveArchiveFailure()
}

type nopRecorder struct{}

func (nopRecorder) ObserveUpload(int, int)  {}
func (nopRecorder) ObserveArchiveFailure() {}

// Service validates uploads, writes accepted rows to the ledger and
// archives the raw text.
type Service struct {
	validator *Validator
	ledger    Ledger
	archiver  archive.Archiver
	recorder  Recorder
}

// NewService wires an ingestion service. A nil archiver disables archival
// and a nil recorder disables metrics.
func NewService(validator *Validator, ledger Ledger, archiver archive.Archiver, recorder Recorder) *Service {
	if archiver == nil {
		archiver = archive.Nop{}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{validator: validator, ledger: ledger, archiver: archiver, recorder: recorder}
}

// Upload parses text, upserts every accepted row in file order and archives
// the original text. Archival failure is logged and does not fail the call.
func (s *Service) Upload(ctx context.Context, filename, text string) (Result, error) {
	logger := zerolog.Ctx(ctx).With().Str("component", "ingest").Str("filename", filename).Logger()
	start := time.Now()

	result, err := s.validator.Parse(text)
	if err != nil {
		logger.Info().Err(err).Msg("rejected sales upload")
		return Result{}, err
	}

	if len(result.Accepted) > 0 {
		if err := s.ledger.UpsertSalesRecords(ctx, result.Accepted); err != nil {
			logger.Error().Err(err).Int("records", len(result.Accepted)).Msg("failed to store sales records")
			return Result{}, apperrors.NewDependencyError("sales ledger", err)
		}
	}

	if key, err := s.archiver.Archive(ctx, filename, []byte(text)); err != nil {
		s.recorder.ObserveArchiveFailure()
		logger.Warn().Err(err).Msg("failed to archive sales upload")
	} else if key != "" {
		logger.Debug().Str("key", key).Msg("archived sales upload")
	}

	s.recorder.ObserveUpload(len(result.Accepted), len(result.Rejected))
	logger.Info().
		Int("processed", len(result.Accepted)).
		Int("errors", len(result.Rejected)).
		Dur("duration", time.Since(start)).
		Msg("ingested sales upload")
	return result, nil
}

// Record validates and upserts a single sales row.
func (s *Service) Record(ctx context.Context, productID, date, quantity, price string) (models.SalesRecord, error) {
	record, reason := NormalizeRow(productID, date, quantity, price, s.validator.now())
	if reason != "" {
		return models.SalesRecord{}, &apperrors.ValidationError{Message: reason}
	}
	if err := s.ledger.UpsertSalesRecords(ctx, []models.SalesRecord{record}); err != nil {
		return models.SalesRecord{}, apperrors.NewDependencyError("sales ledger", err)
	}
	zerolog.Ctx(ctx).Info().
		Str("product_id", record.ProductID).
		Str("date", record.Date).
		Msg("recorded sale")
	return record, nil
}
