package eligibility

import "context"

// CollectorOption configures the Collector
type CollectorOption func(*Collector)

// OnSinkError sets the handler called when a sink fails to accept an outcome
func OnSinkError(fn func(Outcome, error)) CollectorOption {
	return func(c *Collector) { c.sinkErrorHandler = fn }
}

// Collector fans outcomes out to sinks and keeps a tally
// ------------------------------------------------------
type Collector struct {
	sinks            []Sink
	sinkErrorHandler func(Outcome, error)
}

// NewCollector creates a Collector writing to the given sinks in order
func NewCollector(sinks []Sink, opts ...CollectorOption) *Collector {
	c := &Collector{
		sinks:            append([]Sink(nil), sinks...),
		sinkErrorHandler: func(Outcome, error) {}, // nop by default
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect drains outcomes until the channel is closed.
// A failing sink never stops the run; it only counts as a sink failure.
func (c *Collector) Collect(ctx context.Context, outcomes <-chan Outcome) Summary {
	summary := Summary{ByStatus: make(map[Status]int)}

	for outcome := range outcomes {
		summary.Total++
		summary.ByStatus[outcome.Record.Status]++
		if outcome.Record.Eligible {
			summary.Eligible++
		}

		for _, sink := range c.sinks {
			if err := sink.Append(ctx, outcome); err != nil {
				summary.SinkFailures++
				c.sinkErrorHandler(outcome, err)
			}
		}
	}

	return summary
}
