package doorlog

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/gateway"
	internalerrors "github.com/jrsteele09/go-intercom-bridge/internal/errors"
	"github.com/jrsteele09/go-intercom-bridge/sessions"
	"github.com/jrsteele09/go-intercom-bridge/store"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Sender performs upstream requests.
type Sender interface {
	Send(ctx context.Context, req gateway.Request) (gateway.Result, error)
}

// Publisher receives new door events. Publish must not block.
type Publisher interface {
	Publish(Entry)
}

// Config holds the poller's timing.
type Config struct {
	PollInterval      time.Duration // between cycles
	ImageWaitTimeout  time.Duration // ceiling for the snapshot wait
	ImageWaitInterval time.Duration // re-poll cadence while waiting
	BackfillDelay     time.Duration // asap policy follow-up fetch
}

func DefaultConfig() Config {
	return Config{
		PollInterval:      2 * time.Second,
		ImageWaitTimeout:  5 * time.Second,
		ImageWaitInterval: 500 * time.Millisecond,
		BackfillDelay:     3 * time.Second,
	}
}

// Poller watches the activity log and emits each new door event once.
type Poller struct {
	sender    Sender
	session   *sessions.Session
	store     store.Repo
	publisher Publisher
	endpoints gateway.Endpoints
	config    Config

	// processing guards compare, wait and persist. Triggers that find it
	// held skip their cycle.
	processing sync.Mutex

	mu       sync.Mutex
	running  bool
	stopping bool
	cancel   context.CancelFunc
	doneCh   chan struct{}

	backfillMu     sync.Mutex
	backfillCancel context.CancelFunc
	backfillClosed bool
	backfillWG     sync.WaitGroup
}

type Option func(*Poller)

func WithConfig(c Config) Option {
	return func(p *Poller) {
		p.config = c
	}
}

func WithEndpoints(e gateway.Endpoints) Option {
	return func(p *Poller) {
		p.endpoints = e
	}
}

func NewPoller(sender Sender, session *sessions.Session, repo store.Repo, publisher Publisher, opts ...Option) (*Poller, error) {
	if sender == nil {
		return nil, errors.New("[NewPoller] sender is required")
	}
	if session == nil {
		return nil, errors.New("[NewPoller] session is required")
	}
	if repo == nil {
		return nil, errors.New("[NewPoller] store is required")
	}
	if publisher == nil {
		return nil, errors.New("[NewPoller] publisher is required")
	}
	p := &Poller{
		sender:    sender,
		session:   session,
		store:     repo,
		publisher: publisher,
		endpoints: gateway.DefaultEndpoints(),
		config:    DefaultConfig(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Start begins polling in a background goroutine. Starting a running poller
// is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.doneCh = make(chan struct{})
	p.running = true
	p.stopping = false
	doneCh := p.doneCh
	p.openBackfill()
	p.mu.Unlock()

	log.Info().Dur("interval", p.config.PollInterval).Msg("door log polling started")
	go p.pollLoop(loopCtx, doneCh)
}

// Stop cancels the loop and any pending backfill and waits for both to
// exit. It is safe to call repeatedly or on a poller that never started.
// Manual polls after Stop still run but schedule no backfill.
func (p *Poller) Stop() {
	p.stopLoop()
	p.closeBackfill()
	p.backfillWG.Wait()
}

func (p *Poller) stopLoop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	if p.stopping {
		doneCh := p.doneCh
		p.mu.Unlock()
		<-doneCh
		return
	}
	p.stopping = true
	cancel := p.cancel
	doneCh := p.doneCh
	p.mu.Unlock()

	cancel()
	<-doneCh

	p.mu.Lock()
	p.running = false
	p.stopping = false
	p.cancel = nil
	p.mu.Unlock()
	log.Info().Msg("door log polling stopped")
}

func (p *Poller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running && !p.stopping
}

func (p *Poller) pollLoop(ctx context.Context, doneCh chan struct{}) {
	defer close(doneCh)

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if _, err := p.PollOnce(ctx); err != nil && ctx.Err() == nil {
			log.Debug().Err(err).Msg("door log poll failed")
		}
		timer.Reset(p.config.PollInterval)
	}
}

// PollOnce runs one cycle and returns the emitted entry, if any.
func (p *Poller) PollOnce(ctx context.Context) (*Entry, error) {
	entries, err := p.fetchWithSwitch(ctx)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	if !p.processing.TryLock() {
		log.Debug().Msg("door log cycle already in progress, skipping")
		return nil, nil
	}
	defer p.processing.Unlock()

	return p.process(ctx, entries[0])
}

func (p *Poller) process(ctx context.Context, newest Entry) (*Entry, error) {
	var last Entry
	found, err := p.store.Get(ctx, store.KeyLatestDoorLog, &last)
	if err != nil {
		return nil, errors.Wrap(err, "[Poller.process] reading last seen")
	}

	if !found || last.CaptureTime == "" {
		log.Info().Str("capture_time", newest.CaptureTime).Msg("recording door log baseline")
		return nil, p.persist(ctx, newest)
	}
	if last.CaptureTime == newest.CaptureTime {
		return nil, nil
	}

	if newest.PicURL == "" {
		if p.session.WaitForImageURL() {
			log.Debug().Str("capture_time", newest.CaptureTime).Msg("new door event, waiting for snapshot")
			newest = p.waitForImage(ctx, newest)
			if ctx.Err() != nil {
				return nil, nil
			}
		} else {
			p.scheduleBackfill(newest.CaptureTime)
		}
	}

	if err := p.persist(ctx, newest); err != nil {
		return nil, err
	}
	log.Info().
		Str("capture_time", newest.CaptureTime).
		Str("initiator", newest.Initiator).
		Str("capture_type", newest.CaptureType).
		Str("location", newest.Location).
		Str("mac", newest.MAC).
		Str("relay", newest.Relay).
		Bool("has_picture", newest.PicURL != "").
		Msg("new door event")
	p.publisher.Publish(newest)
	return &newest, nil
}

func (p *Poller) persist(ctx context.Context, e Entry) error {
	return errors.Wrap(p.store.Set(ctx, store.KeyLatestDoorLog, e), "[Poller.persist]")
}

// waitForImage re-polls until the same capture carries a snapshot URL or
// the wait ceiling passes. It returns the best entry seen.
func (p *Poller) waitForImage(ctx context.Context, e Entry) Entry {
	deadline := time.NewTimer(p.config.ImageWaitTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(p.config.ImageWaitInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return e
		case <-deadline.C:
			log.Debug().Str("capture_time", e.CaptureTime).Msg("snapshot wait timed out")
			return e
		case <-ticker.C:
			entries, err := p.fetch(ctx)
			if err != nil {
				continue
			}
			if found, ok := findWithPicture(entries, e.CaptureTime); ok {
				return found
			}
		}
	}
}

func findWithPicture(entries []Entry, captureTime string) (Entry, bool) {
	for _, candidate := range entries {
		if candidate.CaptureTime == captureTime && candidate.PicURL != "" {
			return candidate, true
		}
	}
	return Entry{}, false
}

func (p *Poller) fetchWithSwitch(ctx context.Context) ([]Entry, error) {
	entries, err := p.fetch(ctx)
	if err != nil || len(entries) > 0 {
		return entries, err
	}

	appType := p.session.SwitchAppType()
	log.Debug().Str("app_type", string(appType)).Msg("empty door log, switching app type")
	if err := p.session.PersistRouting(ctx, p.store); err != nil {
		log.Warn().Err(err).Msg("failed to persist app type")
	}
	return p.fetch(ctx)
}

func (p *Poller) fetch(ctx context.Context) ([]Entry, error) {
	d := p.session.Snapshot()
	if !d.State.Authenticated() {
		return nil, errors.Wrapf(internalerrors.ErrNotRunning, "[Poller.fetch] session %s", d.State)
	}
	referer := p.endpoints.WebURL(fmt.Sprintf("/smartplus/Activities.html?TOKEN=%s", url.QueryEscape(d.Token)))

	res, err := p.sender.Send(ctx, gateway.Request{
		Method:  http.MethodGet,
		URL:     p.endpoints.AppURL(d.AppType.PathSegment(), gateway.APIDoorLog),
		Headers: gateway.WebHeaders(d.Token, referer),
		Quiet:   true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "[Poller.fetch]")
	}
	if res.Empty() {
		return nil, nil
	}

	var raw []map[string]any
	if err := res.Decode(&raw); err != nil {
		return nil, errors.Wrap(internalerrors.ErrProtocol, err.Error())
	}
	entries := make([]Entry, 0, len(raw))
	for _, m := range raw {
		entries = append(entries, EntryFromMap(m))
	}
	return entries, nil
}
