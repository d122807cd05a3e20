package doorlog

import (
	"context"
	"time"

	"github.com/jrsteele09/go-intercom-bridge/store"
	"github.com/rs/zerolog/log"
)

// scheduleBackfill arranges one follow-up fetch for an event emitted without
// a snapshot. A newer schedule replaces a pending one. Nothing is scheduled
// between Stop and the next Start.
func (p *Poller) scheduleBackfill(captureTime string) {
	p.backfillMu.Lock()
	defer p.backfillMu.Unlock()

	if p.backfillClosed {
		log.Debug().Str("capture_time", captureTime).Msg("poller stopped, snapshot backfill skipped")
		return
	}
	if p.backfillCancel != nil {
		p.backfillCancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.backfillCancel = cancel

	p.backfillWG.Add(1)
	go func() {
		defer p.backfillWG.Done()
		defer cancel()

		timer := time.NewTimer(p.config.BackfillDelay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}
		p.backfill(ctx, captureTime)
	}()
}

// closeBackfill cancels the pending backfill and refuses new ones until
// openBackfill.
func (p *Poller) closeBackfill() {
	p.backfillMu.Lock()
	defer p.backfillMu.Unlock()
	p.backfillClosed = true
	if p.backfillCancel != nil {
		p.backfillCancel()
		p.backfillCancel = nil
	}
}

func (p *Poller) openBackfill() {
	p.backfillMu.Lock()
	defer p.backfillMu.Unlock()
	p.backfillClosed = false
}

// backfill updates the persisted last-seen entry when its snapshot URL has
// appeared. The event is not emitted again.
func (p *Poller) backfill(ctx context.Context, captureTime string) {
	entries, err := p.fetch(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("snapshot backfill fetch failed")
		return
	}
	found, ok := findWithPicture(entries, captureTime)
	if !ok {
		log.Debug().Str("capture_time", captureTime).Msg("snapshot still missing after backfill")
		return
	}

	p.processing.Lock()
	defer p.processing.Unlock()

	var last Entry
	if _, err := p.store.Get(ctx, store.KeyLatestDoorLog, &last); err != nil {
		log.Err(err).Msg("snapshot backfill read failed")
		return
	}
	if last.CaptureTime != captureTime || last.PicURL != "" {
		return
	}
	if err := p.persist(ctx, found); err != nil {
		log.Err(err).Msg("snapshot backfill persist failed")
		return
	}
	log.Debug().Str("capture_time", captureTime).Msg("snapshot url backfilled")
}
