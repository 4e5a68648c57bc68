package broadcaster

import (
	"context"
	"time"

	"github.com/mvpaudrey/afcon-live/internal/eventdiff"
	"github.com/mvpaudrey/afcon-live/internal/model"
	"github.com/mvpaudrey/afcon-live/pkg/logging"
)

const idleLookupInterval = 5 * time.Minute

// runPoller is the single background task that owns topic's snapshots and
// event lists. It runs until ctx is cancelled, which happens when the
// topic's last subscriber leaves.
func (b *Broadcaster) runPoller(ctx context.Context, topic *TopicState) {
	defer close(topic.pollerDone)

	halftimeEntries := make(map[int64]time.Time)

	for {
		if ctx.Err() != nil {
			return
		}

		if topic.paused.Load() {
			if !sleepOrDone(ctx, b.schedule.PausedSleep) {
				return
			}
			continue
		}

		tickStart := time.Now()
		sleep := b.tick(ctx, topic, halftimeEntries)

		if b.hooks.OnPollTick != nil {
			b.hooks.OnPollTick(topic.key, time.Since(tickStart))
		}

		if !sleepOrDone(ctx, sleep) {
			return
		}
	}
}

func sleepOrDone(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}

// tick runs one poll cycle and returns the duration to sleep before the
// next one. Any upstream or repository error during the tick is logged and
// treated as empty data for that call; the tick always completes and the
// stream is never interrupted by it.
func (b *Broadcaster) tick(ctx context.Context, topic *TopicState, halftimeEntries map[int64]time.Time) time.Duration {
	liveFixtures, err := b.upstreamClient.GetLiveFixtures(ctx, topic.key.LeagueID)
	if err != nil {
		b.logger.WithFields(logging.FixtureFields(topic.key.LeagueID, topic.key.Season, "error", err.Error())).Warn("live fixtures lookup failed, treating tick as empty")
		liveFixtures = nil
	}

	// The next-kickoff lookup is rate-limited; between lookups the last
	// known value keeps driving the scheduler.
	if len(liveFixtures) == 0 && time.Since(topic.lastNoLiveCheckAt) > idleLookupInterval {
		nk, err := b.repo.GetNextUpcomingTimestamp(ctx, topic.key.LeagueID, topic.key.Season)
		if err != nil {
			b.logger.WithFields(logging.FixtureFields(topic.key.LeagueID, topic.key.Season, "error", err.Error())).Warn("next kickoff lookup failed")
		} else {
			topic.lastNextKickoff = nk
		}
		topic.lastNoLiveCheckAt = time.Now()
	}
	nextKickoff := topic.lastNextKickoff

	currentLiveIDs := make(map[int64]bool, len(liveFixtures))
	var halftimeEntry *time.Time

	for _, f := range liveFixtures {
		currentLiveIDs[f.APIFixtureID] = true

		events, err := b.upstreamClient.GetFixtureEvents(ctx, f.APIFixtureID)
		if err != nil {
			b.logger.WithFields(logging.Fields{"fixture_id": f.APIFixtureID, "error": err.Error()}).Warn("fixture events lookup failed, using empty list for this tick")
			events = nil
		}

		prevSnap, hadPrev := topic.lastFixtureSnapshot[f.APIFixtureID]
		prevEvents := topic.lastEventList[f.APIFixtureID]

		emitted := false
		switch {
		case !hadPrev:
			b.broadcast(topic, b.buildUpdate(f, events, model.UpdateMatchStarted, nil))
			emitted = true
		case eventdiff.HasSignificantChanges(prevSnap, f, events, prevEvents):
			kind := eventdiff.DetectEventType(prevSnap, f, events, prevEvents)
			var trigger *model.FixtureEvent
			if fresh := eventdiff.NewEvents(events, prevEvents); len(fresh) > 0 {
				t := fresh[len(fresh)-1]
				trigger = &t
			}
			b.broadcast(topic, b.buildUpdate(f, events, kind, trigger))
			emitted = true
		}

		if emitted {
			if err := b.repo.Upsert(ctx, f); err != nil {
				b.logger.WithFields(logging.Fields{"fixture_id": f.APIFixtureID, "error": err.Error()}).Error("fixture upsert failed")
			}
			topic.lastFixtureSnapshot[f.APIFixtureID] = f
			topic.lastEventList[f.APIFixtureID] = events
		}

		if f.StatusShort == model.StatusHalftime {
			entry, seen := halftimeEntries[f.APIFixtureID]
			if !seen {
				entry = time.Now()
				halftimeEntries[f.APIFixtureID] = entry
			}
			if halftimeEntry == nil || entry.Before(*halftimeEntry) {
				e := entry
				halftimeEntry = &e
			}
		} else {
			delete(halftimeEntries, f.APIFixtureID)
		}
	}

	for id := range topic.lastFixtureSnapshot {
		if currentLiveIDs[id] {
			continue
		}
		final, err := b.upstreamClient.GetFixtureByID(ctx, id)
		if err != nil {
			b.logger.WithFields(logging.Fields{"fixture_id": id, "error": err.Error()}).Warn("final fixture lookup failed, using last known snapshot")
			final = topic.lastFixtureSnapshot[id]
		}
		events := topic.lastEventList[id]

		b.broadcast(topic, b.buildUpdate(final, events, model.UpdateMatchFinished, nil))

		if err := b.repo.Upsert(ctx, final); err != nil {
			b.logger.WithFields(logging.Fields{"fixture_id": id, "error": err.Error()}).Error("final fixture upsert failed")
		}
		delete(topic.lastFixtureSnapshot, id)
		delete(topic.lastEventList, id)
		delete(halftimeEntries, id)
	}

	return b.schedule.NextSleep(false, len(liveFixtures), nextKickoff, halftimeEntry, time.Now())
}

func (b *Broadcaster) buildUpdate(f model.Fixture, events []model.FixtureEvent, kind model.UpdateKind, trigger *model.FixtureEvent) model.Update {
	elapsed := 0
	if f.ElapsedMinutes != nil {
		elapsed = *f.ElapsedMinutes
	}
	return model.Update{
		FixtureID:    f.APIFixtureID,
		EmissionTime: time.Now(),
		Kind:         kind,
		Fixture:      f,
		Status: model.FixtureStatus{
			Short:          f.StatusShort,
			Long:           f.StatusLong,
			ElapsedMinutes: f.ElapsedMinutes,
			ExtraMinutes:   f.ExtraMinutes,
		},
		Events:       eventdiff.RecentEvents(events, elapsed),
		TriggerEvent: trigger,
	}
}
