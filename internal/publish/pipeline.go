package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/turbolytics/thumbnailer/internal"
	"github.com/turbolytics/thumbnailer/internal/iiif"
	"github.com/turbolytics/thumbnailer/internal/pairtree"
	"github.com/turbolytics/thumbnailer/internal/progress"
	"github.com/turbolytics/thumbnailer/internal/thumbnail"
)

type Option func(*Pipeline)

func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithTracker(tracker progress.Tracker) Option {
	return func(p *Pipeline) {
		p.tracker = tracker
	}
}

func WithTransformer(transformer thumbnail.Transformer) Option {
	return func(p *Pipeline) {
		p.transformer = transformer
	}
}

func WithRepository(repository internal.Repository) Option {
	return func(p *Pipeline) {
		p.repository = repository
	}
}

func WithEncoder(encoder *pairtree.Encoder) Option {
	return func(p *Pipeline) {
		p.encoder = encoder
	}
}

func WithSize(size iiif.Size) Option {
	return func(p *Pipeline) {
		p.size = size
	}
}

func WithACL(acl string) Option {
	return func(p *Pipeline) {
		p.acl = acl
	}
}

// Pipeline publishes a thumbnail for each job, one job at a time. The
// progress tracker is only consulted and appended from the Run goroutine;
// recording after a successful upload is what makes a re-run skip the job.
type Pipeline struct {
	logger      *zap.Logger
	tracker     progress.Tracker
	transformer thumbnail.Transformer
	repository  internal.Repository
	encoder     *pairtree.Encoder
	size        iiif.Size
	acl         string

	mu       sync.Mutex
	stats    Stats
	failures []Failure
}

func New(opts ...Option) (*Pipeline, error) {
	p := &Pipeline{
		logger:  zap.NewNop(),
		tracker: progress.Disabled{},
		encoder: pairtree.New(""),
		size:    iiif.Size{Kind: iiif.SizeFull},
		acl:     internal.ACLPublicRead,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.transformer == nil {
		return nil, errors.New("publish: no transformer configured")
	}
	if p.repository == nil {
		return nil, errors.New("publish: no repository configured")
	}

	return p, nil
}

// Run processes jobs in order. Per-job failures are logged, counted and
// skipped. Run only returns an error when the progress log cannot be
// written or ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, jobs []Job) (Stats, error) {
	p.mu.Lock()
	p.stats = Stats{
		Total:     len(jobs),
		StartedAt: time.Now(),
	}
	p.failures = nil
	p.mu.Unlock()

	p.logger.Info("starting publish run",
		zap.Int("jobs", len(jobs)),
		zap.Int("completed", p.tracker.Len()),
		zap.String("size", p.size.String()),
	)

	var runErr error
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			p.logger.Info("context cancelled, stopping publish run")
			runErr = err
			break
		}

		if err := p.process(ctx, job); err != nil {
			runErr = err
			break
		}
	}

	p.mu.Lock()
	p.stats.FinishedAt = time.Now()
	p.stats.Current = ""
	p.stats.State = ""
	stats := p.stats
	p.mu.Unlock()

	p.logger.Info("publish run finished",
		zap.Int("total", stats.Total),
		zap.Int("skipped", stats.Skipped),
		zap.Int("published", stats.Published),
		zap.Int("failed", stats.Failed),
		zap.Int64("bytes_uploaded", stats.BytesUploaded),
		zap.Duration("duration", stats.FinishedAt.Sub(stats.StartedAt)),
	)

	return stats, runErr
}

func (p *Pipeline) process(ctx context.Context, job Job) error {
	fsm := NewFSM(
		FSMWithLogger(p.logger.Named("fsm").With(zap.String("id", job.ID))),
	)
	p.observe(job, fsm)

	if p.tracker.Contains(job.ID) {
		if err := p.transition(job, fsm, StateSkipped); err != nil {
			return err
		}
		p.logger.Debug("skipping previously created thumbnail", zap.String("id", job.ID))
		p.finish(fsm, 0)
		return nil
	}

	p.logger.Info("generating thumbnail",
		zap.String("path", job.Path),
		zap.String("id", job.ID),
	)

	if err := p.transition(job, fsm, StateTransforming); err != nil {
		return err
	}
	derivative, err := p.transformer.Transform(ctx, job.Path, p.size)
	if err != nil {
		return p.fail(job, fsm, err)
	}

	if err := p.transition(job, fsm, StateEncoding); err != nil {
		return err
	}
	request := iiif.NewRequest(job.ID, p.size)
	key, err := p.encoder.Key(job.ID, request.Path())
	if err != nil {
		return p.fail(job, fsm, err)
	}

	if err := p.transition(job, fsm, StateUploading); err != nil {
		return err
	}
	obj := internal.NewObject(key, derivative.Body, derivative.ContentType)
	obj.ACL = p.acl
	obj.Metadata = derivative.Metadata()
	if err := p.repository.Put(ctx, obj); err != nil {
		return p.fail(job, fsm, err)
	}

	if err := p.tracker.Record(job.ID); err != nil {
		p.fail(job, fsm, err)
		return fmt.Errorf("recording %s in progress log: %w", job.ID, err)
	}
	if err := p.transition(job, fsm, StateRecorded); err != nil {
		return err
	}

	p.logger.Debug("thumbnail published",
		zap.String("id", job.ID),
		zap.String("key", key),
		zap.Int64("content_length", obj.Len()),
	)
	p.finish(fsm, obj.Len())
	return nil
}

func (p *Pipeline) transition(job Job, fsm *FSM, to State) error {
	if err := fsm.Transition(to); err != nil {
		return fmt.Errorf("job %s: %w", job.ID, err)
	}
	p.mu.Lock()
	p.stats.State = to
	p.mu.Unlock()
	return nil
}

// fail records a per-job failure. It only returns an error if the FSM
// refuses the transition.
func (p *Pipeline) fail(job Job, fsm *FSM, cause error) error {
	stage := fsm.Current()
	p.logger.Error("unable to publish thumbnail",
		zap.String("id", job.ID),
		zap.String("path", job.Path),
		zap.String("stage", string(stage)),
		zap.Error(cause),
	)

	if err := p.transition(job, fsm, StateFailed); err != nil {
		return err
	}

	p.mu.Lock()
	p.failures = append(p.failures, Failure{
		ID:    job.ID,
		Path:  job.Path,
		State: stage,
		Error: cause.Error(),
	})
	p.mu.Unlock()

	p.finish(fsm, 0)
	return nil
}

func (p *Pipeline) observe(job Job, fsm *FSM) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats.Current = job.ID
	p.stats.State = fsm.Current()
}

// finish counts a job once its FSM has reached a terminal state.
func (p *Pipeline) finish(fsm *FSM, bytes int64) {
	if !fsm.Terminal() {
		p.logger.Error("job finished in a non-terminal state",
			zap.String("state", string(fsm.Current())),
		)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Processed++
	switch fsm.Current() {
	case StateSkipped:
		p.stats.Skipped++
	case StateRecorded:
		p.stats.Published++
		p.stats.BytesUploaded += bytes
	case StateFailed:
		p.stats.Failed++
	}
}

// Stats is safe to call while Run is in progress.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

func (p *Pipeline) Failures() []Failure {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Failure(nil), p.failures...)
}
