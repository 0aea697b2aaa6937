// Package batch extracts every FITS file of a source and exports the
// records. A failing file is logged and skipped; the rest of the run goes on.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	apperrors "go-fits-inspector/internal/errors"
	"go-fits-inspector/internal/export"
	"go-fits-inspector/internal/extractor"
	"go-fits-inspector/internal/observer"
	"go-fits-inspector/internal/storage"
	"go-fits-inspector/pkg/models"
)

// FileError records a file that produced no record
type FileError struct {
	File string
	Err  error
}

func (e FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.File, e.Err)
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one run. Records follow the source listing order.
type Result struct {
	RunID   string
	Source  string
	Listed  int
	Records []models.Metadata
	Failed  []FileError
	// Output is the export path, empty when nothing was written.
	Output string
}

// Runner drives extraction over a source
type Runner struct {
	extractor extractor.MetadataExtractor
	publisher observer.Subject
	workers   int
	log       logrus.FieldLogger
}

// NewRunner creates a runner. workers <= 1 processes files sequentially.
func NewRunner(ex extractor.MetadataExtractor, publisher observer.Subject, workers int, log logrus.FieldLogger) *Runner {
	return &Runner{extractor: ex, publisher: publisher, workers: workers, log: log}
}

// Run extracts every FITS file of src. It fails only when the source cannot
// be listed.
func (r *Runner) Run(ctx context.Context, src storage.Source) (*Result, error) {
	names, err := src.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", src.Location(), err)
	}

	res := &Result{RunID: uuid.NewString(), Source: src.Location(), Listed: len(names)}
	r.notify(ctx, observer.BatchEvent{
		EventType: observer.BatchStarted,
		RunID:     res.RunID,
		Metadata:  map[string]interface{}{"source": res.Source, "files": len(names)},
	})

	records := make([]*models.Metadata, len(names))
	errs := make([]error, len(names))
	process := func(ctx context.Context, i int) {
		records[i], errs[i] = r.extractOne(ctx, res.RunID, src, names[i])
	}

	if r.workers > 1 && len(names) > 1 {
		pool := NewWorkerPool(ctx, r.workers, process)
		pool.Start()
		for i := range names {
			if err := pool.Submit(i); err != nil {
				break
			}
		}
		pool.Wait()
		pool.Close()
		if n := pool.Skipped(); n > 0 {
			r.log.WithField("skipped", n).Warn("batch cancelled, queued files dropped")
		}
	} else {
		for i := range names {
			if ctx.Err() != nil {
				break
			}
			process(ctx, i)
		}
	}

	// Files never reached because of cancellation fail with the context error.
	for i := range names {
		if records[i] == nil && errs[i] == nil {
			errs[i] = ctx.Err()
		}
	}

	for i, name := range names {
		if errs[i] != nil {
			res.Failed = append(res.Failed, FileError{File: name, Err: errs[i]})
			continue
		}
		res.Records = append(res.Records, *records[i])
	}

	r.notify(ctx, observer.BatchEvent{
		EventType: observer.BatchCompleted,
		RunID:     res.RunID,
		Success:   len(res.Records) > 0,
		Metadata:  map[string]interface{}{"records": len(res.Records), "failed": len(res.Failed)},
	})
	return res, nil
}

// Export runs the batch and writes the records to outPath. With no records
// no file is created and a warning is logged; that is not an error.
func (r *Runner) Export(ctx context.Context, src storage.Source, exp export.Exporter, outPath string) (*Result, error) {
	res, err := r.Run(ctx, src)
	if err != nil {
		return nil, err
	}

	err = export.WriteFile(outPath, exp, res.Records)
	switch {
	case errors.Is(err, export.ErrNoRecords):
		r.notify(ctx, observer.BatchEvent{
			EventType: observer.ExportSkipped,
			RunID:     res.RunID,
			Metadata:  map[string]interface{}{"source": res.Source},
		})
		return res, nil
	case err != nil:
		return res, apperrors.NewInternalError("cannot write export", err).WithDetails(outPath)
	}

	res.Output = outPath
	r.notify(ctx, observer.BatchEvent{
		EventType: observer.ExportWritten,
		RunID:     res.RunID,
		Success:   true,
		Metadata:  map[string]interface{}{"path": outPath, "format": exp.Format(), "records": len(res.Records)},
	})
	return res, nil
}

func (r *Runner) extractOne(ctx context.Context, runID string, src storage.Source, name string) (*models.Metadata, error) {
	start := time.Now()
	md, err := r.readAndExtract(ctx, src, name)
	if err != nil {
		r.notify(ctx, observer.BatchEvent{
			EventType:      observer.FileFailed,
			RunID:          runID,
			File:           name,
			ProcessingTime: time.Since(start),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	r.notify(ctx, observer.BatchEvent{
		EventType:      observer.FileExtracted,
		RunID:          runID,
		File:           name,
		ProcessingTime: time.Since(start),
		Success:        true,
	})
	return &md, nil
}

func (r *Runner) readAndExtract(ctx context.Context, src storage.Source, name string) (models.Metadata, error) {
	if err := ctx.Err(); err != nil {
		return models.Metadata{}, err
	}
	rc, err := src.Open(ctx, name)
	if err != nil {
		return models.Metadata{}, err
	}
	defer rc.Close()
	return r.extractor.Extract(ctx, name, rc)
}

func (r *Runner) notify(ctx context.Context, event observer.BatchEvent) {
	if r.publisher != nil {
		r.publisher.NotifyObservers(ctx, event)
	}
}
