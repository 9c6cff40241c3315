package download

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/handiism/trackflyer/internal/logging"
	"github.com/handiism/trackflyer/internal/model"
	"github.com/handiism/trackflyer/internal/notice"
	"github.com/handiism/trackflyer/internal/pool"
	"github.com/handiism/trackflyer/internal/status"
	"github.com/phuslu/log"
	"golang.org/x/sync/errgroup"
)

// Resolver turns a track into a stream URL in a single attempt.
type Resolver interface {
	Resolve(ctx context.Context, track *model.Track) (string, error)
}

// Source opens a byte stream. The sequence yields progress, then exactly one
// error or success.
type Source interface {
	Open(ctx context.Context, url string) iter.Seq[model.DownloadResult]
}

// Embedder finishes a downloaded track. Embed returns when the track is done.
type Embedder interface {
	Embed(ctx context.Context, data []byte, track *model.Track) error
}

// Config wires an Orchestrator. Pool, Resolver, Source and Embedder are
// required.
type Config struct {
	Pool     *pool.Pool
	Status   *status.Broadcast
	Notice   *notice.Rolling
	Resolver Resolver
	Source   Source
	Embedder Embedder
	Sink     Sink

	// OnFinished is called on its own goroutine each time a terminal
	// transition leaves the finish predicate true.
	OnFinished func()

	Logger *log.Logger
}

// Orchestrator runs one job per track on the pool and keeps the batch counters.
type Orchestrator struct {
	pool       *pool.Pool
	status     *status.Broadcast
	notice     *notice.Rolling
	resolver   Resolver
	source     Source
	embedder   Embedder
	sink       Sink
	onFinished func()
	logger     *log.Logger

	mu     sync.Mutex
	counts model.BatchCounts
	single bool

	renderMu sync.Mutex
}

type job struct {
	track   *model.Track
	key     string
	batchID string

	// lines are the notice entries this job currently owns.
	lines []string
	ended atomic.Bool
}

// New creates an Orchestrator.
func New(cfg Config) (*Orchestrator, error) {
	var missing []error
	if cfg.Pool == nil {
		missing = append(missing, errors.New("pool is required"))
	}
	if cfg.Resolver == nil {
		missing = append(missing, errors.New("resolver is required"))
	}
	if cfg.Source == nil {
		missing = append(missing, errors.New("source is required"))
	}
	if cfg.Embedder == nil {
		missing = append(missing, errors.New("embedder is required"))
	}
	if err := errors.Join(missing...); err != nil {
		return nil, err
	}

	if cfg.Status == nil {
		cfg.Status = status.NewBroadcast()
	}
	if cfg.Notice == nil {
		cfg.Notice = notice.New()
	}
	if cfg.Sink == nil {
		cfg.Sink = SinkFunc(func(string) {})
	}

	return &Orchestrator{
		pool:       cfg.Pool,
		status:     cfg.Status,
		notice:     cfg.Notice,
		resolver:   cfg.Resolver,
		source:     cfg.Source,
		embedder:   cfg.Embedder,
		sink:       cfg.Sink,
		onFinished: cfg.OnFinished,
		logger:     logging.OrDiscard(cfg.Logger),
	}, nil
}

// SubmitBatch adds tracks to the running totals, marks each Queued and
// schedules one job per track. It returns the batch id used in logs. Tracks
// the pool refuses are failed with a resolve failure wrapping pool.ErrClosed.
// An empty batch still reports the finish predicate to OnFinished.
func (o *Orchestrator) SubmitBatch(tracks []*model.Track) string {
	batchID := uuid.NewString()
	if len(tracks) == 0 {
		// nothing will reach a terminal stage, so settle the predicate now
		o.checkFinished()
		return batchID
	}

	o.mu.Lock()
	o.counts.Total += len(tracks)
	o.single = len(tracks) == 1
	o.mu.Unlock()

	jobs := make([]*job, len(tracks))
	for i, track := range tracks {
		jobs[i] = &job{track: track, key: track.Key(), batchID: batchID}
		o.status.Set(jobs[i].key, model.Queued())
	}

	o.logger.Info().Str("batch_id", batchID).Int("jobs", len(jobs)).Msg("batch submitted")
	o.notify()

	for _, j := range jobs {
		if err := o.pool.Submit(func(ctx context.Context) { o.run(ctx, j) }); err != nil {
			o.fail(j, ErrResolve, err)
		}
	}
	return batchID
}

// IsFinished reports whether every submitted job was converted or failed.
func (o *Orchestrator) IsFinished() bool {
	return o.Counts().Finished()
}

// Counts returns a snapshot of the batch counters.
func (o *Orchestrator) Counts() model.BatchCounts {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.counts
}

// IsSingleDownload reports whether the latest batch held exactly one job.
func (o *Orchestrator) IsSingleDownload() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.single
}

// Status returns the per-job stage broadcast.
func (o *Orchestrator) Status() *status.Broadcast {
	return o.status
}

// Wait blocks until no job is queued or running, or ctx is done.
func (o *Orchestrator) Wait(ctx context.Context) error {
	return o.pool.Wait(ctx)
}

// Announce replaces the notice lines and renders.
func (o *Orchestrator) Announce(lines ...string) {
	o.notice.Replace(lines...)
	o.notify()
}

// ClearNotice empties the notice and renders.
func (o *Orchestrator) ClearNotice() {
	o.notice.Clear()
	o.notify()
}

// run is the job task. Every exit path ends the job exactly once.
func (o *Orchestrator) run(ctx context.Context, j *job) {
	kind := ErrResolve
	defer func() {
		if r := recover(); r != nil {
			o.fail(j, kind, fmt.Errorf("panic: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		o.fail(j, kind, err)
		return
	}

	url, err := o.resolver.Resolve(ctx, j.track)
	if err != nil {
		o.fail(j, kind, err)
		return
	}

	kind = ErrTransport
	downloading := "Downloading " + j.key
	o.addLine(j, downloading)
	o.publish(j, model.Downloading(0))

	data, err := o.download(ctx, j, url)
	if err != nil {
		o.fail(j, kind, err)
		return
	}

	kind = ErrProcessing
	o.mu.Lock()
	o.counts.Downloaded++
	o.mu.Unlock()

	o.publish(j, model.Converting())
	processing := "Processing " + j.key
	o.addLine(j, processing)
	o.dropLine(j, downloading)
	o.notify()

	if err := o.convert(ctx, j, data); err != nil {
		o.fail(j, kind, err)
		return
	}
	o.complete(j)
}

func (o *Orchestrator) download(ctx context.Context, j *job, url string) ([]byte, error) {
	for res := range o.source.Open(ctx, url) {
		switch res.Kind {
		case model.ResultProgress:
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			o.publish(j, model.Downloading(res.Progress))
		case model.ResultError:
			return nil, res.Err
		case model.ResultSuccess:
			return res.Data, nil
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return nil, errStreamEnded
}

// convert runs the embed step as a second unit and joins it.
func (o *Orchestrator) convert(ctx context.Context, j *job, data []byte) error {
	var g errgroup.Group
	g.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("embed panicked: %v", r)
			}
		}()
		return o.embedder.Embed(ctx, data, j.track)
	})
	return g.Wait()
}

func (o *Orchestrator) complete(j *job) {
	if !j.ended.CompareAndSwap(false, true) {
		return
	}

	o.mu.Lock()
	o.counts.Converted++
	o.mu.Unlock()

	o.status.Set(j.key, model.Downloaded())
	o.dropLines(j)
	o.logger.Debug().Str("batch_id", j.batchID).Str("job", j.key).Str("stage", "downloaded").Msg("job done")

	o.notify()
	o.checkFinished()
}

func (o *Orchestrator) fail(j *job, kind, cause error) {
	if !j.ended.CompareAndSwap(false, true) {
		return
	}
	jerr := &JobError{Kind: kind, Key: j.key, Err: cause}

	o.mu.Lock()
	o.counts.Failed++
	o.mu.Unlock()

	o.status.Set(j.key, model.Failed(jerr))
	o.dropLines(j)
	o.logger.Warn().Str("batch_id", j.batchID).Str("job", j.key).Str("stage", "failed").Err(jerr).Msg("job failed")

	o.notify()
	o.checkFinished()
}

func (o *Orchestrator) publish(j *job, st model.Stage) {
	if j.ended.Load() {
		return
	}
	o.status.Set(j.key, st)
	o.notify()
}

func (o *Orchestrator) addLine(j *job, line string) {
	j.lines = append(j.lines, line)
	o.notice.Append(line)
}

func (o *Orchestrator) dropLine(j *job, line string) {
	for i, l := range j.lines {
		if l == line {
			j.lines = append(j.lines[:i], j.lines[i+1:]...)
			break
		}
	}
	o.notice.Remove(line)
}

func (o *Orchestrator) dropLines(j *job) {
	for _, line := range j.lines {
		o.notice.Remove(line)
	}
	j.lines = nil
}

// notify renders the summary. Renders are serialized so sinks need no locking.
func (o *Orchestrator) notify() {
	o.renderMu.Lock()
	defer o.renderMu.Unlock()
	o.sink.Render(o.notice.Render(o.Counts()))
}

func (o *Orchestrator) checkFinished() {
	if o.onFinished != nil && o.IsFinished() {
		go o.onFinished()
	}
}
