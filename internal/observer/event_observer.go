package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// BatchEvent represents one step of a batch run
type BatchEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RunID          string                 `json:"run_id"`
	File           string                 `json:"file,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of batch event
type EventType string

const (
	// BatchStarted when a source has been listed
	BatchStarted EventType = "batch_started"
	// FileExtracted when a file produced a record
	FileExtracted EventType = "file_extracted"
	// FileFailed when a file was skipped
	FileFailed EventType = "file_failed"
	// BatchCompleted when every file has been visited
	BatchCompleted EventType = "batch_completed"
	// ExportWritten when the export file exists
	ExportWritten EventType = "export_written"
	// ExportSkipped when there was nothing to export
	ExportSkipped EventType = "export_skipped"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event BatchEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event BatchEvent)
}

// LoggingObserver logs batch events
type LoggingObserver struct {
	logger logrus.FieldLogger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger logrus.FieldLogger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles batch events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event BatchEvent) {
	fields := logrus.Fields{
		"event_type": event.EventType,
		"run_id":     event.RunID,
	}
	if event.File != "" {
		fields["file"] = event.File
	}
	if event.ProcessingTime > 0 {
		fields["processing_time_ms"] = event.ProcessingTime.Milliseconds()
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	entry := o.logger.WithFields(fields)
	switch event.EventType {
	case BatchStarted:
		entry.Info("Batch started")
	case FileExtracted:
		entry.Debug("File extracted")
	case FileFailed:
		entry.Error("File skipped")
	case BatchCompleted:
		entry.Info("Batch completed")
	case ExportWritten:
		entry.Info("Export written")
	case ExportSkipped:
		entry.Warn("No valid FITS files, nothing exported")
	default:
		entry.Info("Batch event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver counts batch outcomes
type MetricsObserver struct {
	mu                  sync.RWMutex
	runs                int64
	extracted           int64
	failed              int64
	totalProcessingTime time.Duration
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{}
}

// OnEvent handles batch events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event BatchEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case BatchStarted:
		o.runs++
	case FileExtracted:
		o.extracted++
		o.totalProcessingTime += event.ProcessingTime
	case FileFailed:
		o.failed++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// Metrics is a snapshot of MetricsObserver counters
type Metrics struct {
	Runs              int64         `json:"runs"`
	Extracted         int64         `json:"extracted"`
	Failed            int64         `json:"failed"`
	AvgProcessingTime time.Duration `json:"avg_processing_time"`
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() Metrics {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avg := time.Duration(0)
	if o.extracted > 0 {
		avg = o.totalProcessingTime / time.Duration(o.extracted)
	}
	return Metrics{Runs: o.runs, Extracted: o.extracted, Failed: o.failed, AvgProcessingTime: avg}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	log       logrus.FieldLogger
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(log logrus.FieldLogger) Subject {
	return &EventPublisher{
		observers: make([]Observer, 0),
		log:       log,
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order, before returning
func (p *EventPublisher) NotifyObservers(ctx context.Context, event BatchEvent) {
	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	for _, obs := range observers {
		p.deliver(ctx, obs, event)
	}
}

func (p *EventPublisher) deliver(ctx context.Context, obs Observer, event BatchEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't crash the batch
			p.log.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
