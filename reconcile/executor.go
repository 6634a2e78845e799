// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azgov"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// errDeleteFailed is recorded for the CREATE of a REPLACE whose DELETE did not succeed.
var errDeleteFailed = errors.New("stale link was not deleted, create not attempted")

// Executor applies the actions of a plan to the directory.
// It is the only component that mutates the directory.
type Executor struct {
	dir  azgov.Directory
	opts *Options
}

// NewExecutor returns an Executor that mutates dir. A nil opts uses DefaultOptions.
func NewExecutor(dir azgov.Directory, opts *Options) *Executor {
	return &Executor{
		dir:  dir,
		opts: optionsOrDefault(opts),
	}
}

// Execute applies the actions of the plan and returns the log of every outcome.
//
// Actions of the same zone run sequentially in plan order; zones run concurrently on the
// bounded pool. A failed action is recorded and the next action runs.
// Cancelling ctx stops the executor between actions: calls already in flight complete,
// the remaining actions are recorded as skipped.
func (e *Executor) Execute(ctx context.Context, plan *Plan) *ActionLog {
	log := NewActionLog(e.opts.RunID)
	actions := plan.Actions()

	// log sequence follows decision order, NOOP decisions included.
	logSeq := make([]int, len(actions))
	seq, next := 0, 0
	for i := range plan.Decisions {
		d := &plan.Decisions[i]
		if d.Kind == DecisionNoop {
			log.Record(entryFor(seq, d, "", "", OutcomeUnchanged, nil))
			e.logger(d, "").Debug().Str("outcome", string(OutcomeUnchanged)).Msg("link up to date")
			seq++

			continue
		}

		for next < len(actions) && actions[next].Decision == d {
			logSeq[next] = seq
			seq++
			next++
		}
	}

	zones := make([]string, 0)
	byZone := make(map[string][]Action)
	for _, a := range actions {
		if _, ok := byZone[a.Zone()]; !ok {
			zones = append(zones, a.Zone())
		}

		byZone[a.Zone()] = append(byZone[a.Zone()], a)
	}

	grp := new(errgroup.Group)
	grp.SetLimit(e.opts.parallelism())
	for _, z := range zones {
		grp.Go(func() error {
			e.executeZone(ctx, byZone[z], logSeq, log)
			return nil
		})
	}

	_ = grp.Wait()

	return log
}

// executeZone applies the actions of a single zone in order.
func (e *Executor) executeZone(ctx context.Context, actions []Action, logSeq []int, log *ActionLog) {
	failedDeletes := make(map[*Decision]bool)

	for _, a := range actions {
		var (
			outcome Outcome
			err     error
		)

		switch {
		case e.opts.DryRun:
			outcome = OutcomeSkippedDryRun
		case ctx.Err() != nil:
			outcome, err = OutcomeSkipped, fmt.Errorf("run cancelled: %w", context.Cause(ctx))
		case a.Operation == OperationCreate && failedDeletes[a.Decision]:
			outcome, err = OutcomeSkipped, errDeleteFailed
		default:
			err = e.apply(ctx, a)
			outcome = OutcomeApplied
			if err != nil {
				outcome = OutcomeFailed
				if a.Operation == OperationDelete {
					failedDeletes[a.Decision] = true
				}
			}
		}

		log.Record(entryFor(logSeq[a.Seq], a.Decision, a.Operation, a.linkName(), outcome, err))

		l := e.logger(a.Decision, a.Operation)
		ev := l.Info()
		if outcome == OutcomeFailed {
			ev = l.Error().Err(err)
		} else if err != nil {
			ev = ev.AnErr("reason", err)
		}

		ev.Str("link", a.linkName()).Str("outcome", string(outcome)).Msg("action")
	}
}

// apply runs the mutation of a single action, retrying throttled calls with azgov.RetryThrottled.
// A cancellation never interrupts a mutation in flight.
func (e *Executor) apply(ctx context.Context, a Action) error {
	policy := azgov.RetryPolicy{
		MaxRetries:   e.opts.MaxRetries,
		InitialDelay: e.opts.RetryInitialDelay,
		MaxDelay:     e.opts.RetryMaxDelay,
	}

	return azgov.RetryThrottled(ctx, policy, func(callCtx context.Context) error {
		switch a.Operation {
		case OperationDelete:
			err := e.dir.DeleteZoneLink(callCtx, *a.Target)
			if errors.Is(err, azgov.ErrNotFound) {
				// already gone.
				return nil
			}

			return err
		case OperationCreate:
			_, err := e.dir.CreateZoneLink(callCtx, a.Zone(), a.Decision.Link.Network.ID, a.LinkName)
			return err
		}

		return fmt.Errorf("unknown operation %q", a.Operation)
	})
}

func (e *Executor) logger(d *Decision, op Operation) *zerolog.Logger {
	l := e.opts.Logger.With().
		Str("zone", d.Link.Zone).
		Str("network", d.Link.Network.ID).
		Str("decision", string(d.Kind)).
		Str("operation", string(op)).
		Logger()

	return &l
}

// linkName returns the name of the link the action creates or deletes.
func (a Action) linkName() string {
	if a.Operation == OperationDelete && a.Target != nil {
		return a.Target.Name
	}

	return a.LinkName
}

func entryFor(seq int, d *Decision, op Operation, linkName string, outcome Outcome, err error) Entry {
	e := Entry{
		Seq:         seq,
		Zone:        d.Link.Zone,
		Network:     d.Link.Network.ID,
		NetworkName: d.Link.Network.Name,
		Decision:    d.Kind,
		Operation:   op,
		LinkName:    linkName,
		Outcome:     outcome,
	}

	if linkName == "" && d.Existing != nil {
		e.LinkName = d.Existing.Name
	}

	if err != nil {
		e.Error = err.Error()
	}

	return e
}
