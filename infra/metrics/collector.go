package metrics

import (
	"context"
	"sync"

	"github.com/kilianp07/microgrid/core/events"
	"github.com/kilianp07/microgrid/core/logger"
	"github.com/kilianp07/microgrid/internal/eventbus"
)

// EventCollector logs simulation events from the bus and counts them by kind.
type EventCollector struct {
	log  logger.Logger
	done chan struct{}

	mu     sync.Mutex
	counts map[string]int
}

// StartEventCollector subscribes to the event bus and logs run lifecycle,
// shortfall and replacement events. It stops when the context is canceled
// or the bus is closed.
func StartEventCollector(ctx context.Context, bus eventbus.EventBus, log logger.Logger) *EventCollector {
	c := &EventCollector{log: logger.OrNop(log), done: make(chan struct{}), counts: map[string]int{}}
	if bus == nil {
		close(c.done)
		return c
	}
	sub := bus.Subscribe()
	go func() {
		defer close(c.done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				c.handle(ev)
			}
		}
	}()
	return c
}

func (c *EventCollector) handle(ev eventbus.Event) {
	switch e := ev.(type) {
	case events.RunEvent:
		c.inc("run_" + string(e.Phase))
		switch {
		case e.Err != nil:
			c.log.Errorf("run %s %s after %d steps: %v", e.RunID, e.Phase, e.Steps, e.Err)
		case e.Phase == events.RunFinished:
			c.log.Infof("run %s finished: %d steps in %s", e.RunID, e.Steps, e.Duration)
		default:
			c.log.Infof("run %s started: %d steps", e.RunID, e.Steps)
		}
	case events.ShortfallEvent:
		c.inc("shortfall")
		c.log.Debugw("shortfall", map[string]any{
			"run_id":            e.RunID,
			"timestep":          e.Timestep,
			"time_hrs":          e.TimeHrs,
			"missed_load_kw":    e.MissedLoadKW,
			"missed_firm_kw":    e.MissedFirmKW,
			"missed_reserve_kw": e.MissedReserveKW,
		})
	case events.ReplacementEvent:
		c.inc("replacement")
		c.log.Warnf("%s %s replaced at timestep %d (replacement %d)", e.Storage, e.Unit, e.Timestep, e.Count)
	default:
		c.inc("other")
	}
}

func (c *EventCollector) inc(kind string) {
	c.mu.Lock()
	c.counts[kind]++
	c.mu.Unlock()
}

// Count returns the number of events of kind handled so far. Kinds are
// run_started, run_finished, shortfall, replacement and other.
func (c *EventCollector) Count(kind string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counts[kind]
}

// Done is closed once the collector has stopped.
func (c *EventCollector) Done() <-chan struct{} { return c.done }
