package gasmarket

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"gas-market/core/reconcile"
	"gas-market/core/storage"
	"gas-market/core/validation"
	"gas-market/feature/gasmarket/export"
	"gas-market/feature/gasmarket/models"
	"gas-market/feature/gasmarket/parser"
	"gas-market/feature/gasmarket/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrNotFound is returned when an export matches no records.
var ErrNotFound = errors.New("no records found for the given month and year")

// uploadExtension is the only accepted upload file extension.
const uploadExtension = ".txt"

// Options configures a Service.
type Options struct {
	// Parser is the upload parser configuration.
	Parser parser.Config
	// Strategy is used for uploads that do not name one.
	Strategy reconcile.Strategy
	// MaxBytes caps upload size. Zero disables the check.
	MaxBytes int64
	// Clock stamps written rows. Defaults to the system clock in UTC.
	Clock reconcile.Clock
	// Storage archives uploads and exports when non-nil.
	Storage storage.Client
	// Bucket is the archive bucket.
	Bucket string
}

// Service handles gas market operations.
type Service struct {
	store    *store.Store
	engine   *reconcile.Engine[models.Candidate, models.Record]
	parser   parser.Config
	strategy reconcile.Strategy
	maxBytes int64
	clock    reconcile.Clock
	client   storage.Client
	bucket   string
	logger   *zap.Logger
	exports  singleflight.Group
}

// NewService creates a new gas market service.
func NewService(db *gorm.DB, logger *zap.Logger, opts Options) *Service {
	if opts.Clock == nil {
		opts.Clock = reconcile.SystemClock{}
	}
	if opts.Strategy == "" {
		opts.Strategy = reconcile.TouchThenAppend
	}

	st := store.New(db)
	return &Service{
		store:    st,
		engine:   reconcile.NewEngine[models.Candidate, models.Record](st, opts.Clock),
		parser:   opts.Parser,
		strategy: opts.Strategy,
		maxBytes: opts.MaxBytes,
		clock:    opts.Clock,
		client:   opts.Storage,
		bucket:   opts.Bucket,
		logger:   logger,
	}
}

// List returns stored records; onlyPending leaves out superseded rows.
func (s *Service) List(ctx context.Context, onlyPending bool) ([]models.Record, error) {
	return s.store.List(ctx, onlyPending)
}

// Create stores a single record.
func (s *Service) Create(ctx context.Context, c models.Candidate) (*models.Record, error) {
	c = c.Trim()
	if err := reconcile.Validate(reconcile.TouchThenAppend, []models.Candidate{c}); err != nil {
		return nil, err
	}
	return s.store.Create(ctx, c, s.clock.Now())
}

// CreateBatch stamps the stored rows superseded by the batch and appends it.
func (s *Service) CreateBatch(ctx context.Context, candidates []models.Candidate) (*reconcile.Outcome[models.Record], error) {
	return s.Reconcile(ctx, reconcile.TouchThenAppend, candidates)
}

// Merge updates records matching by date, spreadsheet, sheet and product and
// inserts the rest.
func (s *Service) Merge(ctx context.Context, candidates []models.Candidate) (*reconcile.Outcome[models.Record], error) {
	return s.Reconcile(ctx, reconcile.MatchAndMerge, candidates)
}

// Reconcile writes candidates with the given strategy.
func (s *Service) Reconcile(ctx context.Context, strategy reconcile.Strategy, candidates []models.Candidate) (*reconcile.Outcome[models.Record], error) {
	trimmed := make([]models.Candidate, len(candidates))
	for i, c := range candidates {
		trimmed[i] = c.Trim()
	}

	out, err := s.engine.Reconcile(ctx, strategy, trimmed)
	if err != nil {
		return out, err
	}

	s.logger.Info("Records reconciled",
		zap.String("strategy", string(strategy)),
		zap.Int("records", len(candidates)),
		zap.Int64("touched", out.Touched),
		zap.Int("created", out.Created),
		zap.Int("updated", out.Updated),
	)
	return out, nil
}

// UploadResult describes a processed upload.
type UploadResult struct {
	File      string
	Format    parser.Format
	Delimiter string
	Strategy  reconcile.Strategy
	Outcome   *reconcile.Outcome[models.Record]
}

// Upload parses a text file and reconciles its records. Any row error rejects
// the whole file. strategy may be empty to use the configured default.
func (s *Service) Upload(ctx context.Context, filename string, payload []byte, strategy string) (*UploadResult, error) {
	st, err := s.resolveStrategy(strategy)
	if err != nil {
		return nil, err
	}

	res, err := s.parse(filename, payload)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	out, err := s.Reconcile(ctx, st, res.Records)
	if err != nil {
		return nil, err
	}

	s.archive(ctx, uploadObjectName(filename, s.clock), payload, "text/plain")

	return &UploadResult{
		File:      filename,
		Format:    res.Format,
		Delimiter: res.DelimiterName(),
		Strategy:  st,
		Outcome:   out,
	}, nil
}

// Preview is the dry run view of an upload.
type Preview struct {
	File      string                             `json:"arquivo"`
	Format    parser.Format                      `json:"formato"`
	Delimiter string                             `json:"delimitador,omitempty"`
	Records   []models.Candidate                 `json:"registros"`
	Errors    []validation.Detail                `json:"erros"`
	Plan      *reconcile.Plan[models.Candidate] `json:"plano,omitempty"`
	Valid     bool                               `json:"valido"`
}

// Preview parses an upload and plans its writes without touching storage.
// Row errors and batch validation failures are reported in the preview.
func (s *Service) Preview(ctx context.Context, filename string, payload []byte, strategy string) (*Preview, error) {
	st, err := s.resolveStrategy(strategy)
	if err != nil {
		return nil, err
	}

	res, err := s.parse(filename, payload)
	if err != nil {
		return nil, err
	}

	p := &Preview{
		File:      filename,
		Format:    res.Format,
		Delimiter: res.DelimiterName(),
		Records:   res.Records,
		Errors:    validation.Details(res.Err()),
	}
	if len(p.Errors) > 0 {
		return p, nil
	}

	plan, err := reconcile.BuildPlan(st, res.Records)
	if err != nil {
		if !validation.IsValidation(err) {
			return nil, err
		}
		p.Errors = validation.Details(err)
		return p, nil
	}
	p.Plan = plan
	p.Valid = true
	return p, nil
}

// Export renders the records of a month to an xlsx workbook. Concurrent
// requests for the same month share one build.
func (s *Service) Export(ctx context.Context, month, year int) ([]byte, string, error) {
	if month < 1 || month > 12 {
		return nil, "", validation.New(validation.KindInvalidParameter, "month must be between 1 and 12")
	}
	if current := s.clock.Now().Year(); year < 2000 || year > current {
		return nil, "", validation.New(validation.KindInvalidParameter, "year must be between 2000 and %d", current)
	}

	name := export.FileName(month, year)
	// Shared by every caller waiting on name, so it must outlive the first one.
	buildCtx := context.WithoutCancel(ctx)
	v, err, shared := s.exports.Do(name, func() (any, error) {
		records, err := s.store.ListByMonth(buildCtx, month, year)
		if err != nil {
			return nil, err
		}
		if len(records) == 0 {
			return nil, ErrNotFound
		}
		data, err := export.Build(records)
		if err != nil {
			return nil, fmt.Errorf("failed to build export: %w", err)
		}
		s.logger.Info("Export built", zap.String("file", name), zap.Int("records", len(records)))
		s.archive(buildCtx, path.Join("exports", name), data, export.ContentType)
		return data, nil
	})
	if err != nil {
		return nil, "", err
	}
	if shared {
		s.logger.Debug("Export shared with concurrent request", zap.String("file", name))
	}
	return v.([]byte), name, nil
}

func (s *Service) resolveStrategy(name string) (reconcile.Strategy, error) {
	if strings.TrimSpace(name) == "" {
		return s.strategy, nil
	}
	st, err := reconcile.ParseStrategy(name)
	if err != nil {
		return "", validation.New(validation.KindInvalidParameter, "%v", err)
	}
	return st, nil
}

func (s *Service) parse(filename string, payload []byte) (*parser.Result, error) {
	if !strings.EqualFold(filepath.Ext(filename), uploadExtension) {
		return nil, validation.New(validation.KindInvalidFile, "file must have the %s extension", uploadExtension)
	}
	if s.maxBytes > 0 && int64(len(payload)) > s.maxBytes {
		return nil, validation.New(validation.KindInvalidFile, "file exceeds the %d byte limit", s.maxBytes)
	}

	res, err := parser.Parse(s.parser, payload)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Upload parsed", zap.String("file", filename), zap.String("result", res.Summary()))
	return res, nil
}

// archive stores data in object storage. Failures are logged, never returned.
func (s *Service) archive(ctx context.Context, objectName string, data []byte, contentType string) {
	if s.client == nil {
		return
	}
	if _, err := storage.Archive(ctx, s.client, s.bucket, objectName, data, contentType); err != nil {
		s.logger.Warn("Archive failed", zap.String("object", objectName), zap.Error(err))
		return
	}
	s.logger.Debug("Archived", zap.String("object", objectName))
}

func uploadObjectName(filename string, clock reconcile.Clock) string {
	base := path.Base(filepath.ToSlash(filename))
	return path.Join("uploads", clock.Now().Format("2006-01-02"), uuid.NewString()+"-"+base)
}
