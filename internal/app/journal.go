package app

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/mudra/internal/interaction"
	"github.com/ayusman/mudra/internal/perf"
	"github.com/ayusman/mudra/internal/store"
)

const (
	journalQueueSize = 64
	journalPruneTick = time.Minute
)

func detail(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}

// eventEntries converts the notable parts of ev into journal rows.
func eventEntries(ev interaction.Event) []*store.Entry {
	var out []*store.Entry
	add := func(kind store.Kind, d any) {
		out = append(out, &store.Entry{
			ID:         uuid.NewString(),
			Kind:       kind,
			Gesture:    ev.Gesture.String(),
			Slide:      ev.Slide,
			Detail:     detail(d),
			OccurredAt: ev.Timestamp,
		})
	}

	if ev.Swipe != nil {
		add(store.KindSwipe, ev.Swipe)
	}
	if ev.Click != nil {
		add(store.KindClick, ev.Click)
	}
	if ev.GestureChanged {
		add(store.KindGesture, map[string]int{"hands": ev.Hands})
	}
	return out
}

func performanceEntry(s perf.Status, at time.Time, slide int) *store.Entry {
	return &store.Entry{
		ID:         uuid.NewString(),
		Kind:       store.KindPerformance,
		Slide:      slide,
		Detail:     detail(s),
		OccurredAt: at,
	}
}

// enqueueJournal hands entries to the writer, dropping them if it is behind.
func (a *App) enqueueJournal(entries ...*store.Entry) {
	if a.journalCh == nil || len(entries) == 0 {
		return
	}
	select {
	case a.journalCh <- entries:
	default:
		a.logger.Warn("journal queue full, dropping entries", "count", len(entries))
	}
}

func (a *App) runJournal(ctx context.Context, journal *store.JournalRepository) {
	defer a.wg.Done()

	prune := time.NewTicker(journalPruneTick)
	defer prune.Stop()

	write := func(entries []*store.Entry) {
		if err := journal.Append(entries...); err != nil {
			a.logger.Error("journal append failed", "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			// flush what is already queued
			for {
				select {
				case entries := <-a.journalCh:
					write(entries)
				default:
					return
				}
			}
		case entries := <-a.journalCh:
			write(entries)
		case <-prune.C:
			if n, err := journal.Prune(a.cfg.JournalKeep); err != nil {
				a.logger.Error("journal prune failed", "error", err)
			} else if n > 0 {
				a.logger.Debug("journal pruned", "removed", n)
			}
		}
	}
}
