// Package watch owns the control loop that drives each candidate file
// through stabilize → extract → classify → name → rename.
package watch

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rfields/scanwatch/constants"
	"github.com/rfields/scanwatch/internal/common"
	"github.com/rfields/scanwatch/internal/extract"
	"github.com/rfields/scanwatch/internal/llm"
	"github.com/rfields/scanwatch/internal/rename"
	"github.com/rfields/scanwatch/internal/resilience"
)

// LoopConfig holds the loop's scheduling knobs.
type LoopConfig struct {
	PollInterval time.Duration
	Workers      int
	QueueSize    int
}

// Loop coordinates per-file processing. Intake and processing are
// independent units of concurrency joined by a buffered queue; a
// mutex-guarded pending set coalesces duplicate notifications so no path
// is processed twice concurrently.
type Loop struct {
	cfg LoopConfig

	detector   *StabilityDetector
	extractor  extract.PageExtractor
	classifier llm.Classifier
	builder    *rename.Builder
	renamer    *rename.Executor
	exec       *resilience.Executor
	classifyCl resilience.ErrorClassifier
	log        *slog.Logger

	pending *pendingSet
}

func NewLoop(
	cfg LoopConfig,
	detector *StabilityDetector,
	extractor extract.PageExtractor,
	classifier llm.Classifier,
	builder *rename.Builder,
	renamer *rename.Executor,
	exec *resilience.Executor,
	classifyClassifier resilience.ErrorClassifier,
	logger *slog.Logger,
) *Loop {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1024
	}
	if logger == nil {
		logger = slog.Default()
	}
	if classifyClassifier == nil {
		classifyClassifier = defaultClassifyClassifier
	}
	return &Loop{
		cfg:        cfg,
		detector:   detector,
		extractor:  extractor,
		classifier: classifier,
		builder:    builder,
		renamer:    renamer,
		exec:       exec,
		classifyCl: classifyClassifier,
		log:        logger,
		pending:    newPendingSet(),
	}
}

// Run consumes candidate paths until the channel closes or ctx is
// cancelled, then waits for in-flight files to finish. Intake never
// blocks on processing: admitted paths go onto a buffered queue served
// by a fixed pool of workers.
func (l *Loop) Run(ctx context.Context, paths <-chan string) error {
	queue := make(chan string, l.cfg.QueueSize)

	g := new(errgroup.Group)
	for i := 0; i < l.cfg.Workers; i++ {
		g.Go(func() error {
			for path := range queue {
				l.process(ctx, path)
				l.pending.release(path)
			}
			return nil
		})
	}

intake:
	for {
		select {
		case <-ctx.Done():
			break intake
		case path, ok := <-paths:
			if !ok {
				break intake
			}
			if !l.pending.admit(path) {
				l.log.Debug("duplicate notification coalesced", "path", path)
				continue
			}
			l.log.Info("file discovered", "path", path, "state", string(constants.StateDiscovered))
			select {
			case queue <- path:
			default:
				// Backpressure: the queue is saturated; drop and rely on
				// a future notification.
				l.log.Warn("queue full, dropping path", "path", path)
				l.pending.release(path)
			}
		}
	}

	close(queue)
	return g.Wait()
}

// process runs one file through the pipeline. Every terminal outcome is
// logged with its state and reason; the loop itself never stops over a
// single bad file.
func (l *Loop) process(ctx context.Context, path string) {
	jobID := uuid.New().String()[:8]
	log := l.log.With("path", path, "job_id", jobID)

	// Stabilizing
	log.Debug("state transition", "state", string(constants.StateStabilizing))
	if ok := l.stabilize(ctx, path, log); !ok {
		return
	}

	// Extracting
	log.Debug("state transition", "state", string(constants.StateExtracting))
	payload, err := l.extractor.Extract(ctx, path)
	if err != nil {
		l.finishWithError(log, err, "extract")
		return
	}

	// Classifying (bounded retry with backoff on model unavailability)
	log.Debug("state transition", "state", string(constants.StateClassifying))
	var result llm.Classification
	err = l.exec.Execute(ctx, "classify", func(ctx context.Context) error {
		var cerr error
		result, cerr = l.classifier.Classify(ctx, payload)
		return cerr
	}, l.classifyCl)
	if err != nil {
		l.finishWithError(log, err, "classify")
		return
	}
	if result.Kind == llm.KindUnrecognized {
		log.Warn("model reply unrecognized, parking for review", "reply_bytes", len(result.RawText))
	}

	// Naming
	log.Debug("state transition", "state", string(constants.StateNaming))
	st, err := os.Stat(path)
	if err != nil {
		l.finishWithError(log, common.Wrap(common.ErrTransientFile, "stat before naming", err), "name")
		return
	}
	target := l.builder.Build(path, st.ModTime(), result)

	// Renaming
	log.Debug("state transition", "state", string(constants.StateRenaming))
	outcome, err := l.renamer.Apply(path, target)
	if err != nil {
		l.finishWithError(log, err, "rename")
		return
	}

	log.Info("file processed",
		"state", string(constants.StateDone),
		"kind", string(result.Kind),
		"new_path", outcome.NewPath,
		"collision_suffix", outcome.Suffix,
	)
}

// stabilize polls until the file stops changing. Returns false when the
// path was dropped (vanished, timed out, or the loop is shutting down).
func (l *Loop) stabilize(ctx context.Context, path string, log *slog.Logger) bool {
	ticker := time.NewTicker(l.cfg.PollInterval)
	defer ticker.Stop()

	for {
		stable, err := l.detector.Observe(path)
		if err != nil {
			log.Warn("dropping unstable path", "error", err)
			return false
		}
		if stable {
			return true
		}
		select {
		case <-ctx.Done():
			l.detector.Forget(path)
			return false
		case <-ticker.C:
		}
	}
}

func (l *Loop) finishWithError(log *slog.Logger, err error, stage string) {
	if errors.Is(err, common.ErrTransientFile) {
		// Not terminal: the file moved away or is locked. A future
		// notification will re-admit it.
		log.Warn("dropping path on transient file error", "stage", stage, "error", err)
		return
	}
	if errors.Is(err, context.Canceled) {
		log.Info("processing cancelled", "stage", stage)
		return
	}
	log.Error("file failed",
		"state", string(constants.StateFailed),
		"stage", stage,
		"error", err,
	)
}

func defaultClassifyClassifier(err error) resilience.ErrorClassification {
	if errors.Is(err, context.Canceled) {
		return resilience.ErrorClassification{}
	}
	retryable := common.IsRetryable(err)
	return resilience.ErrorClassification{Retryable: retryable, RecordFailure: retryable}
}
