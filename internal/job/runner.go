package job

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("job")

var (
	runningJobsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "complemake_running_jobs",
		Help: "Number of tool/test jobs currently executing.",
	})
	failedJobsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "complemake_failed_jobs_total",
		Help: "Number of tool/test jobs that have failed so far this run.",
	})
)

func init() {
	prometheus.MustRegister(runningJobsGauge, failedJobsCounter)
}

// Runner is a fixed-size worker pool that executes Jobs pushed onto its
// queue, mirroring the dispatch loop a build driver uses to turn a
// steady trickle of now-ready targets into bounded subprocess
// concurrency (§5). It is safe for concurrent use.
type Runner struct {
	queue     chan *Job
	results   chan Result
	wg        sync.WaitGroup
	keepGoing bool

	mu         sync.Mutex
	failed     int64
	errs       *multierror.Error
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// NewRunner starts a pool of parallelism workers reading from an
// internally buffered queue. keepGoing controls whether a job failure
// stops new jobs from being dispatched (matching the build subcommand's
// --keep_going flag semantics of §6).
func NewRunner(ctx context.Context, parallelism int, keepGoing bool) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	r := &Runner{
		queue:     make(chan *Job, parallelism*4),
		results:   make(chan Result, parallelism*4),
		keepGoing: keepGoing,
		stopCh:    make(chan struct{}),
	}
	for i := 0; i < parallelism; i++ {
		r.wg.Add(1)
		go r.work(ctx, i)
	}
	return r
}

func (r *Runner) work(ctx context.Context, id int) {
	defer r.wg.Done()
	for {
		select {
		case <-r.stopCh:
			return
		case j, ok := <-r.queue:
			if !ok {
				return
			}
			r.runOne(ctx, j)
		}
	}
}

func (r *Runner) runOne(ctx context.Context, j *Job) {
	runningJobsGauge.Inc()
	defer runningJobsGauge.Dec()
	log.Debugf("running job %s for %s", j.ID, j.Target.Ident())
	res := j.Execute(ctx)
	if res.Err != nil {
		atomic.AddInt64(&r.failed, 1)
		failedJobsCounter.Inc()
		r.mu.Lock()
		r.errs = multierror.Append(r.errs, res.Err)
		r.mu.Unlock()
		if !r.keepGoing {
			r.stopOnce.Do(func() { close(r.stopCh) })
		}
	}
	r.results <- res
}

// Submit enqueues a job. It blocks if the queue is full, which is the
// mechanism by which a slow build step applies backpressure to the
// scheduler feeding it newly-ready targets.
func (r *Runner) Submit(j *Job) {
	if j.ID == uuid.Nil {
		j.ID = uuid.New()
	}
	select {
	case <-r.stopCh:
		return
	case r.queue <- j:
	}
}

// Results returns the channel of completed job results; callers drain it
// to drive the target state machine's DependencyUpdated/MarkUpToDate
// transitions.
func (r *Runner) Results() <-chan Result {
	return r.results
}

// Close stops accepting new jobs, waits for in-flight workers to finish,
// and closes the results channel.
func (r *Runner) Close() {
	close(r.queue)
	r.wg.Wait()
	close(r.results)
}

// FailedCount returns how many jobs have failed so far.
func (r *Runner) FailedCount() int {
	return int(atomic.LoadInt64(&r.failed))
}

// Err returns the aggregated failure, or nil if nothing has failed.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.errs.ErrorOrNil()
}

// Summary renders a human-readable one-line summary of how many jobs
// failed, for the final status line (§6).
func (r *Runner) Summary(total int) string {
	failed := r.FailedCount()
	if failed == 0 {
		return humanize.Comma(int64(total)) + " jobs succeeded"
	}
	return humanize.Comma(int64(failed)) + " of " + humanize.Comma(int64(total)) + " jobs failed"
}
