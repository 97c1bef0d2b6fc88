// Package pipeline runs one document question-answering job: load, chunk, index,
// then answer every question against the job's own index.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/docqa/internal/answer"
	"github.com/hyperjump/docqa/internal/indexer"
	"github.com/hyperjump/docqa/internal/models"
	"github.com/hyperjump/docqa/internal/vector"
	"github.com/hyperjump/docqa/pkg/utils"
)

const (
	DefaultTopK            = 3
	DefaultQuestionWorkers = 1

	errorAnswerPrefix = "Error processing question: "
	cancelledAnswer   = "Processing cancelled"
)

// Loader produces the plain text of the job's document. indexer.LoadFunc values are assignable to it.
type Loader = func(ctx context.Context) (string, error)

// IndexFactory creates an empty vector index for a run.
type IndexFactory interface {
	New() vector.Index
}

// AnswerSynthesizer answers a question from retrieved chunk texts.
type AnswerSynthesizer interface {
	Synthesize(ctx context.Context, question string, chunks []string) (*answer.Answer, error)
}

// Orchestrator coordinates a processing run.
type Orchestrator struct {
	chunker  *indexer.Chunker
	indexes  IndexFactory
	synth    AnswerSynthesizer
	reporter StatusReporter
	topK     int
	workers  int
	logger   *zap.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = utils.OrNop(l) }
}

// WithReporter sets the status sink.
func WithReporter(r StatusReporter) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.reporter = r
		}
	}
}

// WithTopK sets how many chunks are retrieved per question.
func WithTopK(k int) Option {
	return func(o *Orchestrator) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithQuestionWorkers sets how many questions are answered concurrently.
func WithQuestionWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(chunker *indexer.Chunker, indexes IndexFactory, synth AnswerSynthesizer, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		chunker:  chunker,
		indexes:  indexes,
		synth:    synth,
		reporter: nopReporter{},
		topK:     DefaultTopK,
		workers:  DefaultQuestionWorkers,
		logger:   zap.NewNop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes one job. A loader or indexing failure sets status error and is returned.
// Per-question failures become placeholder answers. When ctx is cancelled during the
// question loop, Run returns the partial result together with the context error.
func (o *Orchestrator) Run(ctx context.Context, jobID string, load Loader, questions []string) (*models.ProcessingResult, error) {
	start := o.now()
	log := o.logger.With(zap.String("job_id", jobID))

	o.report(ctx, jobID, models.StatusProcessing, "Downloading and processing document", 10)
	text, err := load(ctx)
	if err != nil {
		log.Error("document load failed", zap.Error(err))
		o.report(ctx, jobID, models.StatusError, "Failed to process document: "+err.Error(), 0)
		return nil, err
	}

	o.report(ctx, jobID, models.StatusProcessing, "Extracting text and generating embeddings", 30)
	chunks := o.chunker.Chunk(text)
	index := o.indexes.New()
	if err := index.Index(ctx, chunks); err != nil {
		log.Error("indexing failed", zap.Error(err))
		o.report(ctx, jobID, models.StatusError, "Failed to index document: "+err.Error(), 0)
		return nil, fmt.Errorf("failed to index document: %w", err)
	}
	log.Info("document indexed",
		zap.Int("chunks", len(chunks)),
		zap.Int("indexed", index.Size()))

	o.report(ctx, jobID, models.StatusProcessing, "Generating answers", 60)

	records := make([]*models.AnswerRecord, len(questions))
	var (
		mu   sync.Mutex
		done int
	)
	g := new(errgroup.Group)
	g.SetLimit(o.workers)
	for i, q := range questions {
		if ctx.Err() != nil {
			records[i] = o.placeholder(q, cancelledAnswer, start)
			continue
		}
		g.Go(func() error {
			rec := o.answerOne(ctx, index, q, start)
			if rec.Failed && !cancelled(rec) {
				log.Warn("question failed", zap.Int("question", i+1), zap.String("answer", rec.Answer))
			}
			records[i] = rec

			// Reported under mu so progress reaches the sink in increasing order.
			mu.Lock()
			defer mu.Unlock()
			done++
			o.report(ctx, jobID, models.StatusProcessing,
				fmt.Sprintf("Processing question %d of %d", done, len(questions)),
				utils.Percent(done, len(questions), 60, 90))
			return nil
		})
	}
	_ = g.Wait()

	result := aggregate(records, o.now().Sub(start))
	if err := ctx.Err(); err != nil {
		result.Partial = true
		answered := 0
		for _, r := range records {
			if !cancelled(r) {
				answered++
			}
		}
		log.Warn("processing cancelled", zap.Int("answered", answered), zap.Int("questions", len(questions)))
		o.report(ctx, jobID, models.StatusPartial,
			fmt.Sprintf("Processing cancelled: %d of %d questions answered", answered, len(questions)), 100)
		return result, err
	}

	o.report(ctx, jobID, models.StatusCompleted, "Processing completed", 100)
	log.Info("processing completed",
		zap.Int("questions", len(questions)),
		zap.Int("tokens", result.Metadata.TokenCount),
		zap.Float64("seconds", result.Metadata.ProcessingTime))
	return result, nil
}

func (o *Orchestrator) answerOne(ctx context.Context, index vector.Index, question string, start time.Time) *models.AnswerRecord {
	if ctx.Err() != nil {
		return o.placeholder(question, cancelledAnswer, start)
	}
	results, err := index.Search(ctx, question, o.topK)
	if err != nil {
		return o.failure(ctx, question, err, start)
	}
	texts := make([]string, len(results))
	for i, r := range results {
		texts[i] = r.Chunk.Text
	}
	ans, err := o.synth.Synthesize(ctx, question, texts)
	if err != nil {
		return o.failure(ctx, question, err, start)
	}

	rec := &models.AnswerRecord{
		Question:       question,
		Answer:         ans.Text,
		Confidence:     ans.Confidence,
		SourceSection:  models.UnknownSection,
		TokensUsed:     ans.TokensUsed,
		ProcessingTime: o.now().Sub(start).Seconds(),
	}
	if len(results) > 0 {
		rec.SourceSection = results[0].Chunk.Section
		rec.SimilarityScore = results[0].Similarity
	}
	return rec
}

func (o *Orchestrator) failure(ctx context.Context, question string, err error, start time.Time) *models.AnswerRecord {
	if ctx.Err() != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		return o.placeholder(question, cancelledAnswer, start)
	}
	return o.placeholder(question, errorAnswerPrefix+err.Error(), start)
}

func (o *Orchestrator) placeholder(question, text string, start time.Time) *models.AnswerRecord {
	return &models.AnswerRecord{
		Question:       question,
		Answer:         text,
		ProcessingTime: o.now().Sub(start).Seconds(),
		Failed:         true,
	}
}

func (o *Orchestrator) report(ctx context.Context, jobID string, status models.Status, msg string, progress int) {
	o.reporter.Report(ctx, jobID, models.ProcessingStatus{
		Status:    status,
		Message:   msg,
		Progress:  progress,
		UpdatedAt: o.now(),
	})
}

func cancelled(r *models.AnswerRecord) bool {
	return r.Failed && r.Answer == cancelledAnswer
}

func aggregate(records []*models.AnswerRecord, elapsed time.Duration) *models.ProcessingResult {
	result := &models.ProcessingResult{
		Answers: make([]string, len(records)),
		Metadata: models.ResultMetadata{
			ProcessingTime:    elapsed.Seconds(),
			ConfidenceScores:  make([]float64, len(records)),
			DocumentProcessed: true,
		},
		Records: records,
	}
	for i, r := range records {
		result.Answers[i] = r.Answer
		result.Metadata.ConfidenceScores[i] = r.Confidence
		result.Metadata.TokenCount += r.TokensUsed
	}
	return result
}
