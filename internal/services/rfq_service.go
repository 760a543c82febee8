package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"rfqpulse/internal/errors"
	"rfqpulse/internal/infrastructure"
	"rfqpulse/internal/parsing"
	"rfqpulse/internal/store"
	"rfqpulse/internal/validation"
	"rfqpulse/pkg/contracts/domain"
)

// RFQService runs the ingestion workflow: upload spooling, parse preview and
// the confirmed load into the store.
type RFQService struct {
	store          *store.Store
	logger         *slog.Logger
	validate       *validator.Validate
	workbooks      *validation.WorkbookValidator
	uploadDir      string
	maxUploadBytes int64
}

// NewRFQService creates the ingestion service. uploadDir is created on
// demand when the first upload arrives; maxUploadMB caps spooled workbook
// size, zero means unlimited.
func NewRFQService(st *store.Store, uploadDir string, maxUploadMB int64, logger *slog.Logger) *RFQService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RFQService{
		store:          st,
		logger:         logger,
		validate:       validator.New(),
		workbooks:      validation.NewWorkbookValidator(logger),
		uploadDir:      uploadDir,
		maxUploadBytes: maxUploadMB << 20,
	}
}

// Upload spools an uploaded workbook into the upload directory under a
// collision-free name and returns the stored path. The original filename is
// kept as a prefix so filename metadata extraction still works on it.
func (s *RFQService) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", errors.NewStorageError("create upload dir", err)
	}

	base := filepath.Base(filename)
	if base == "" || base == "." || !strings.HasSuffix(strings.ToLower(base), ".xlsx") {
		return "", errors.NewAppValidationError("upload must be an .xlsx workbook")
	}

	stem := strings.TrimSuffix(base, filepath.Ext(base))
	dest := filepath.Join(s.uploadDir, fmt.Sprintf("%s.%s.xlsx", stem, uuid.New().String()[:8]))

	f, err := os.Create(dest)
	if err != nil {
		return "", errors.NewStorageError("create upload file", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(dest)
		return "", errors.NewStorageError("write upload file", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", errors.NewStorageError("write upload file", err)
	}

	if err := s.workbooks.ValidateWorkbook(dest); err != nil {
		os.Remove(dest)
		return "", errors.NewAppValidationError(err.Error())
	}
	if err := s.workbooks.ValidateSize(dest, s.maxUploadBytes); err != nil {
		os.Remove(dest)
		return "", errors.NewAppValidationError(err.Error())
	}

	s.logger.InfoContext(ctx, "upload spooled",
		slog.String("filename", base),
		slog.String("path", dest))
	return dest, nil
}

// Preview holds everything the confirmation step needs: the parsed records,
// the sheet inventory and the metadata recovered from the filename.
type Preview struct {
	Result   *parsing.Result           `json:"result"`
	Sheets   []string                  `json:"sheets"`
	Metadata *parsing.FilenameMetadata `json:"metadata,omitempty"`
}

// Preview parses a spooled workbook without persisting anything. An empty
// sheet asks for auto-selection.
func (s *RFQService) Preview(ctx context.Context, path, sheet string) (*Preview, error) {
	result, err := parsing.ParseFile(path, sheet, s.logger)
	if err != nil {
		infrastructure.ParseFailures.Inc()
		return nil, err
	}

	sheets, err := parsing.ListSheets(path)
	if err != nil {
		return nil, err
	}

	preview := &Preview{Result: result, Sheets: sheets}
	if meta, ok := parsing.MetadataFromFilename(uploadOriginalName(path)); ok {
		preview.Metadata = &meta
	}
	return preview, nil
}

// ImportRequest is the confirmed load of one parsed workbook. ID and Date
// are required; everything else defaults from the filename metadata when
// present.
type ImportRequest struct {
	Path        string    `json:"path" validate:"required"`
	Sheet       string    `json:"sheet,omitempty"`
	ID          string    `json:"rfq_id" validate:"required,max=64"`
	Creator     string    `json:"creator,omitempty" validate:"max=128"`
	Station     string    `json:"station,omitempty" validate:"max=64"`
	Project     string    `json:"project,omitempty" validate:"max=256"`
	Date        time.Time `json:"rfq_date" validate:"required"`
	IsPotential bool      `json:"is_potential"`
	Notes       string    `json:"notes,omitempty"`
	Replace     bool      `json:"replace"`
}

// Import parses the workbook and loads it into the store under the given
// identity. Loading an existing ID without Replace is a conflict; with
// Replace the previous rows are dropped in the same transaction.
func (s *RFQService) Import(ctx context.Context, req ImportRequest) (*domain.Solicitation, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, errors.NewAppError(errors.ErrTypeValidation, "invalid import request", err)
	}

	exists, err := s.store.Exists(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if exists && !req.Replace {
		return nil, errors.NewConflictError(
			fmt.Sprintf("RFQ %s already loaded; set replace to overwrite", req.ID))
	}

	result, err := parsing.ParseFile(req.Path, req.Sheet, s.logger)
	if err != nil {
		infrastructure.ParseFailures.Inc()
		return nil, err
	}

	sol := domain.Solicitation{
		ID:          req.ID,
		Creator:     req.Creator,
		Station:     req.Station,
		Project:     req.Project,
		Date:        req.Date,
		SourceFile:  uploadOriginalName(req.Path),
		SheetName:   result.Sheet,
		IsPotential: req.IsPotential,
		Notes:       req.Notes,
	}

	if err := s.store.LoadResult(ctx, sol, result); err != nil {
		return nil, err
	}
	infrastructure.RFQsImported.Inc()

	s.logger.InfoContext(ctx, "rfq imported",
		slog.String("rfq_id", sol.ID),
		slog.String("format", string(result.Variant)),
		slog.Int("items", len(result.Items)),
		slog.Int("bids", len(result.Bids)),
		slog.Bool("replaced", exists))

	loaded, err := s.store.Get(ctx, sol.ID)
	if err != nil {
		return nil, err
	}
	loaded.ItemCount = len(result.Items)
	loaded.BidderCount = len(result.Bidders)
	return loaded, nil
}

// List returns all loaded solicitations, newest first, with item and bidder
// counts filled in.
func (s *RFQService) List(ctx context.Context) ([]domain.Solicitation, error) {
	return s.store.List(ctx)
}

// Detail is a solicitation together with its full item and bid sets.
type Detail struct {
	Solicitation domain.Solicitation `json:"rfq"`
	Items        []domain.Item       `json:"items"`
	Bids         []domain.Bid        `json:"bids"`
}

// Get loads one solicitation with its items and bids.
func (s *RFQService) Get(ctx context.Context, id string) (*Detail, error) {
	sol, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.store.Items(ctx, id)
	if err != nil {
		return nil, err
	}
	bids, err := s.store.Bids(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Detail{Solicitation: *sol, Items: items, Bids: bids}, nil
}

// Delete removes a solicitation; items and bids go with it.
func (s *RFQService) Delete(ctx context.Context, id string) error {
	exists, err := s.store.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		return errors.NewNotFoundError("RFQ " + id)
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "rfq deleted", slog.String("rfq_id", id))
	return nil
}

// Bidders returns every bidder name seen across all loaded solicitations.
func (s *RFQService) Bidders(ctx context.Context) ([]string, error) {
	return s.store.Bidders(ctx)
}

// uploadOriginalName strips the uuid suffix Upload appended, recovering the
// name the user uploaded under. Paths that never went through Upload pass
// through unchanged.
func uploadOriginalName(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if i := strings.LastIndex(stem, "."); i > 0 && len(stem)-i-1 == 8 {
		return stem[:i] + filepath.Ext(base)
	}
	return base
}
