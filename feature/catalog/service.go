package catalog

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"batchsync/core/gormstore"
	"batchsync/core/logger"
	"batchsync/core/storage"
	"batchsync/core/upsert"
	"batchsync/feature/catalog/models"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service orchestrates catalog sync runs.
type Service struct {
	db     *gorm.DB
	client storage.Client
	bucket string
	logger *zap.Logger
}

// NewService creates a catalog service. client may be nil when every sync
// sources from local files.
func NewService(db *gorm.DB, client storage.Client, bucket string, logger *zap.Logger) *Service {
	return &Service{db: db, client: client, bucket: bucket, logger: logger}
}

// SyncOptions controls a single sync run.
type SyncOptions struct {
	// Object is the product JSON object name in the configured bucket.
	Object string
	// File is a local product JSON path; takes precedence over Object.
	File string
	// MatchFields overrides the default SKU match key.
	MatchFields []string
	// UpdateFields overrides the default updatable field set.
	UpdateFields []string
	// BatchSize is the accumulator flush threshold.
	BatchSize int
	// CaseInsensitive folds string match keys; requires a CI collation on
	// the match columns.
	CaseInsensitive bool
	// DryRun loads and counts records without touching the database.
	DryRun bool
	// WriteReport uploads the run report JSON to the bucket afterwards.
	WriteReport bool
}

// SyncReport summarizes one sync run.
type SyncReport struct {
	RunID         string `json:"run_id"`
	Source        string `json:"source"`
	Loaded        int    `json:"loaded"`
	Created       int    `json:"created"`
	Updated       int    `json:"updated"`
	Batches       int    `json:"batches"`
	DryRun        bool   `json:"dry_run"`
	ExecutionTime string `json:"execution_time"`
}

// Sync loads products from the configured source and reconciles them into
// the products table. Batches already flushed stay committed when a later
// batch fails; the returned error is the store's own.
func (s *Service) Sync(ctx context.Context, opts SyncOptions) (*SyncReport, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	log := logger.WithRunID(s.logger, runID)

	var (
		products []models.Product
		source   string
		err      error
	)
	switch {
	case opts.File != "":
		source = opts.File
		products, err = LoadProductsFile(opts.File)
	case opts.Object != "":
		if s.client == nil {
			return nil, fmt.Errorf("no storage client configured for object %s", opts.Object)
		}
		source = fmt.Sprintf("%s/%s", s.bucket, opts.Object)
		products, err = LoadProducts(ctx, s.client, s.bucket, opts.Object)
	default:
		return nil, fmt.Errorf("no product source given (object or file)")
	}
	if err != nil {
		return nil, err
	}

	report := &SyncReport{
		RunID:  runID,
		Source: source,
		Loaded: len(products),
		DryRun: opts.DryRun,
	}
	log.Info("Catalog sync started",
		zap.String("source", source),
		zap.Int("products", len(products)),
		zap.Bool("dry_run", opts.DryRun))

	if len(products) == 0 || opts.DryRun {
		report.ExecutionTime = time.Since(startTime).String()
		return report, nil
	}

	matchFields := opts.MatchFields
	if len(matchFields) == 0 {
		matchFields = models.MatchFields()
	}
	updateFields := opts.UpdateFields
	if len(updateFields) == 0 {
		updateFields = models.UpdateFields()
	}

	store := gormstore.New[models.Product](s.db, log)
	if err := store.CheckColumns(append(append([]string{}, matchFields...), updateFields...)...); err != nil {
		return nil, err
	}

	params := upsert.Params{
		MatchFields:     matchFields,
		UpdateFields:    updateFields,
		CaseInsensitive: opts.CaseInsensitive,
	}
	acc := upsert.NewAccumulator(store, params,
		upsert.WithThreshold(opts.BatchSize),
		upsert.WithObserver(func(o upsert.Outcome) {
			report.Batches++
			report.Created += len(o.Created)
			report.Updated += len(o.Updated)
			log.Info("Batch reconciled",
				zap.Int("batch", report.Batches),
				zap.Int("created", len(o.Created)),
				zap.Int("updated", len(o.Updated)))
		}))

	for i := range products {
		if err := acc.Push(ctx, &products[i]); err != nil {
			return nil, err
		}
	}
	if err := acc.Close(ctx); err != nil {
		return nil, err
	}

	report.ExecutionTime = time.Since(startTime).String()
	log.Info("Catalog sync completed",
		zap.Int("created", report.Created),
		zap.Int("updated", report.Updated),
		zap.String("duration", report.ExecutionTime))

	if opts.WriteReport && s.client != nil {
		if err := s.saveReport(ctx, report); err != nil {
			// The sync itself succeeded; a failed report upload is logged,
			// not fatal.
			log.Error("Failed to upload sync report", zap.Error(err))
		}
	}

	return report, nil
}

func (s *Service) saveReport(ctx context.Context, report *SyncReport) error {
	jsonData, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}

	objName := fmt.Sprintf("reports/catalog-sync-%s.json", report.RunID)
	reader := bytes.NewReader(jsonData)

	_, err = s.client.PutObject(ctx, s.bucket, objName, reader, int64(len(jsonData)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", objName, err)
	}
	return nil
}
