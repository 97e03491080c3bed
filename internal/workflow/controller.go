// Package workflow drives a content session through its pipeline stages.
package workflow

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/unalkalkan/ReelPilot/internal/apierror"
	"github.com/unalkalkan/ReelPilot/internal/cancel"
	"github.com/unalkalkan/ReelPilot/internal/generation"
	"github.com/unalkalkan/ReelPilot/pkg/types"
)

const DefaultHistoryLimit = 100

// Generator is the set of network operations the controller drives
type Generator interface {
	DiscoverTrendingTopics(ctx context.Context, mode types.Mode, style types.Style, count int) (*types.TopicAnalysis, error)
	GenerateScript(ctx context.Context, req generation.ScriptRequest) (*types.Script, error)
	GenerateVisuals(ctx context.Context, req generation.VisualsRequest, onProgress generation.ProgressFunc) ([]types.GeneratedImage, error)
	GeneratePublishingSuggestions(ctx context.Context, topic string, keywords []string) (*types.PublishingSuggestions, error)
}

// CredentialVerifier checks that a generation client can be built
type CredentialVerifier interface {
	Verify(ctx context.Context) error
}

// Clipboard receives exported text
type Clipboard interface {
	Copy(ctx context.Context, sessionID, text string) error
}

// Options configures a Controller
type Options struct {
	ID           string
	Config       types.SessionConfig
	TopicCount   int
	AudioDelay   time.Duration
	VideoDelay   time.Duration
	HistoryLimit int
	Credentials  CredentialVerifier
	Clipboard    Clipboard
	Sleep        func(ctx context.Context, d time.Duration) error
	Now          func() time.Time
}

// OptionsFromConfig builds controller options from the service configuration
func OptionsFromConfig(cfg *types.Config) Options {
	return Options{
		Config: types.SessionConfig{
			Mode:     cfg.Session.Mode,
			Style:    cfg.Session.Style,
			Audacity: cfg.Session.Audacity,
		},
		TopicCount:   cfg.Pipeline.TrendingTopicCount,
		AudioDelay:   time.Duration(cfg.Pipeline.AudioStageDelayMs) * time.Millisecond,
		VideoDelay:   time.Duration(cfg.Pipeline.VideoPlanningDelayMs) * time.Millisecond,
		HistoryLimit: cfg.Pipeline.HistoryLimit,
	}
}

// Controller owns one session. Intents may be called from any goroutine;
// generation runs in a background goroutine and at most one operation is
// in flight at a time.
type Controller struct {
	id      string
	gen     Generator
	opts    Options
	sleep   func(ctx context.Context, d time.Duration) error
	now     func() time.Time
	cancels *cancel.Coordinator

	ctx  context.Context
	stop context.CancelFunc
	wg   sync.WaitGroup

	mu      sync.Mutex
	s       session
	epoch   uint64
	credErr error
	tok     *cancel.Token
}

// New creates a controller in InitialConfig, or in Error when the
// credential check fails.
func New(gen Generator, opts Options) *Controller {
	opts.Config = opts.Config.Normalized()
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, stop := context.WithCancel(context.Background())
	c := &Controller{
		id:      opts.ID,
		gen:     gen,
		opts:    opts,
		sleep:   opts.Sleep,
		now:     opts.Now,
		cancels: cancel.NewCoordinator(),
		ctx:     ctx,
		stop:    stop,
		s:       newSession(opts.Config, opts.Now()),
	}

	if opts.Credentials != nil {
		if err := opts.Credentials.Verify(ctx); err != nil {
			log.Printf("[Workflow] Session %s: credential check failed: %v", c.id, err)
			c.credErr = err
			c.setStageLocked(types.StageError)
			c.s.errMsg = DisplayMessage("", err)
		}
	}
	return c
}

// ID returns the session identifier
func (c *Controller) ID() string {
	return c.id
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.snapshot(c.id, c.credErr != nil)
}

// UpdateConfig replaces the session parameters. Values are normalized.
func (c *Controller) UpdateConfig(cfg types.SessionConfig) (types.SessionConfig, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.busy {
		return c.s.config, ErrBusy
	}
	c.s.config = cfg.Normalized()
	c.touch()
	return c.s.config, nil
}

// Advance starts the step after the current checkpoint. It returns false
// when the request was ignored.
func (c *Controller) Advance() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.busy {
		log.Printf("[Workflow] Session %s: advance ignored, operation in progress at %s", c.id, c.s.stage)
		return false
	}
	if c.credErr != nil {
		c.failLocked(DisplayMessage("", c.credErr))
		return false
	}

	from := c.s.stage
	next, ok := nextPending[from]
	if !ok {
		log.Printf("[Workflow] Session %s: nothing to advance from %s", c.id, from)
		return false
	}
	if from == types.StageInitialConfig && c.s.config.CustomTopic != "" {
		c.s.topic = c.s.config.CustomTopic
		next = types.StageScriptGenerationPending
	}

	return c.startLocked(from, next)
}

// SubmitScriptFeedback stores feedback and, when non-empty at the script
// checkpoint, regenerates the script with it. It reports whether a
// regeneration started.
func (c *Controller) SubmitScriptFeedback(feedback string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.busy {
		return false, ErrBusy
	}
	c.s.feedback = feedback
	c.touch()
	if feedback == "" || c.s.stage != types.StageScriptGenerationResults {
		return false, nil
	}
	return c.startLocked(c.s.stage, types.StageScriptGenerationPending), nil
}

// SelectTopic chooses the topic used for script generation
func (c *Controller) SelectTopic(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.busy {
		return ErrBusy
	}
	if c.s.stage != types.StageTrendAnalysisResults {
		return ErrNotAllowed
	}
	c.s.topic = topic
	c.s.refinement = ""
	c.touch()
	return nil
}

// SubmitTopicRefinement stores a free-text angle for the selected topic
func (c *Controller) SubmitTopicRefinement(refinement string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.s.busy {
		return ErrBusy
	}
	c.s.refinement = refinement
	c.touch()
	return nil
}

// CancelOperation cancels the in-flight cancellable operation, if any
func (c *Controller) CancelOperation() bool {
	cancelled := c.cancels.CancelActive()
	if cancelled {
		log.Printf("[Workflow] Session %s: cancellation requested", c.id)
	}
	return cancelled
}

// Reset abandons any in-flight work and returns to InitialConfig with
// the original parameters. A credential failure survives the reset.
func (c *Controller) Reset() {
	c.cancels.CancelActive()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	prev, history := c.s.stage, c.s.history
	c.s = newSession(c.opts.Config, c.now())
	c.s.stage, c.s.history = prev, history
	if c.credErr != nil {
		c.s.errMsg = DisplayMessage("", c.credErr)
		c.setStageLocked(types.StageError)
		return
	}
	c.setStageLocked(types.StageInitialConfig)
	log.Printf("[Workflow] Session %s: reset from %s", c.id, prev)
}

// Wait blocks until background work has finished
func (c *Controller) Wait() {
	c.wg.Wait()
}

// Close cancels background work and waits for it
func (c *Controller) Close() {
	c.stop()
	c.cancels.CancelActive()
	c.wg.Wait()
}

// startLocked enters next from the checkpoint from and launches the
// background run. c.mu must be held.
func (c *Controller) startLocked(from, next types.Stage) bool {
	if msg := checkPrerequisites(next, &c.s); msg != "" {
		c.failLocked(msg)
		return false
	}

	c.enterLocked(next)
	epoch := c.epoch
	c.wg.Add(1)
	go c.run(epoch, from, next)
	return true
}

// enterLocked moves into a pending stage and marks the session busy
func (c *Controller) enterLocked(stage types.Stage) {
	handler := pendingStages[stage]
	c.s.busy = true
	c.s.errMsg = ""
	c.s.notice = ""
	enter(stage, &c.s)
	c.s.progress = handler.progress(c.inputLocked())
	c.tok = nil
	if handler.cancellable {
		c.tok = c.cancels.Begin(c.ctx)
	}
	c.setStageLocked(stage)
}

func (c *Controller) inputLocked() stageInput {
	return stageInput{
		config:     c.s.config,
		topic:      c.s.topic,
		refinement: c.s.refinement,
		feedback:   c.s.feedback,
		script:     copyScript(c.s.script),
	}
}

// run executes stage and, in autonomous mode, every stage after it until
// the pipeline ends, fails, halts or is superseded by a reset.
func (c *Controller) run(epoch uint64, from, stage types.Stage) {
	defer c.wg.Done()

	for {
		handler := pendingStages[stage]

		c.mu.Lock()
		if c.epoch != epoch {
			c.mu.Unlock()
			return
		}
		in := c.inputLocked()
		tok := c.tok
		c.tok = nil
		c.mu.Unlock()

		ctx := c.ctx
		if tok != nil {
			ctx = tok.Context()
		}
		log.Printf("[Workflow] Session %s: running %s", c.id, stage)
		out, err := handler.run(c, ctx, epoch, in)
		if tok != nil {
			c.cancels.Finish(tok)
		}

		c.mu.Lock()
		if c.epoch != epoch {
			log.Printf("[Workflow] Session %s: discarding stale result of %s", c.id, stage)
			c.mu.Unlock()
			return
		}

		if err != nil {
			if apierror.IsCancelled(err) {
				if out.apply != nil {
					out.apply(&c.s)
				}
				c.s.busy = false
				c.s.progress = ""
				c.s.notice = NoticeCancelled
				c.setStageLocked(from)
				log.Printf("[Workflow] Session %s: %s cancelled, back at %s", c.id, stage, from)
			} else {
				if isCredentialFailure(err) {
					c.credErr = err
				}
				log.Printf("[Workflow] Session %s: %s failed: %v", c.id, stage, err)
				c.failLocked(DisplayMessage(handler.failure, err))
			}
			c.mu.Unlock()
			return
		}

		if out.apply != nil {
			out.apply(&c.s)
		}
		c.setStageLocked(handler.results)

		next, hasNext := nextPending[handler.results]
		if out.halt != "" || !hasNext || c.s.config.Mode != types.ModeAutonomous {
			c.s.busy = false
			c.s.progress = ""
			c.s.notice = out.halt
			c.mu.Unlock()
			return
		}

		if msg := checkPrerequisites(next, &c.s); msg != "" {
			c.failLocked(msg)
			c.mu.Unlock()
			return
		}
		c.enterLocked(next)
		c.mu.Unlock()

		from, stage = handler.results, next
	}
}

// setProgress updates the progress detail unless the run is stale
func (c *Controller) setProgress(epoch uint64, detail string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch || !c.s.busy {
		return
	}
	c.s.progress = detail
	c.touch()
}

// failLocked enters the Error stage with msg
func (c *Controller) failLocked(msg string) {
	c.s.busy = false
	c.s.progress = ""
	c.s.errMsg = msg
	c.s.storyboard.Playing = false
	c.setStageLocked(types.StageError)
}

func (c *Controller) setStageLocked(stage types.Stage) {
	from := c.s.stage
	c.s.stage = stage
	c.appendHistory(from, stage)
}

func (c *Controller) appendHistory(from, to types.Stage) {
	c.s.history = append(c.s.history, types.StageTransition{From: from, To: to, At: c.now()})
	if over := len(c.s.history) - c.opts.HistoryLimit; over > 0 {
		c.s.history = append([]types.StageTransition(nil), c.s.history[over:]...)
	}
	c.touch()
}

func (c *Controller) touch() {
	c.s.updatedAt = c.now()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return apierror.ErrCancelled
	}
}
