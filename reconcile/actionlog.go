// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"fmt"
	"io"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/Azure/azgov/internal/export"
)

// Outcome is the result of an action.
type Outcome string

const (
	OutcomeApplied       Outcome = "applied"
	OutcomeFailed        Outcome = "failed"
	OutcomeSkippedDryRun Outcome = "skipped-dry-run"
	OutcomeSkipped       Outcome = "skipped"   // OutcomeSkipped is used for cancelled runs and creates after a failed delete
	OutcomeUnchanged     Outcome = "unchanged" // OutcomeUnchanged is recorded for NOOP decisions
)

// Entry is one row of the action log.
type Entry struct {
	RunID       string       `json:"runId,omitempty"`
	Seq         int          `json:"seq"`
	Zone        string       `json:"zone"`
	Network     string       `json:"network"`
	NetworkName string       `json:"networkName"`
	Decision    DecisionKind `json:"decision"`
	Operation   Operation    `json:"operation,omitempty"`
	LinkName    string       `json:"linkName,omitempty"`
	Outcome     Outcome      `json:"outcome"`
	Error       string       `json:"error,omitempty"`
}

// ActionLog is an append-only accumulator of entries, safe for concurrent use.
type ActionLog struct {
	runID   string
	entries []Entry
	mu      sync.Mutex
}

// NewActionLog returns an empty log whose entries carry the supplied run ID.
func NewActionLog(runID string) *ActionLog {
	return &ActionLog{
		runID:   runID,
		entries: make([]Entry, 0),
	}
}

// Record appends an entry.
func (l *ActionLog) Record(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.RunID = l.runID
	l.entries = append(l.entries, e)
}

// Entries returns a copy of the entries sorted by their sequence number.
// Entries with equal sequence numbers keep their insertion order.
func (l *ActionLog) Entries() []Entry {
	l.mu.Lock()
	res := slices.Clone(l.entries)
	l.mu.Unlock()

	sort.SliceStable(res, func(i, j int) bool { return res[i].Seq < res[j].Seq })

	return res
}

// WriteJSON writes the entries as a JSON array of flat objects.
func (l *ActionLog) WriteJSON(w io.Writer) error {
	return export.JSON(w, l.Entries())
}

// Summary is the end of run report.
type Summary struct {
	Decisions         map[DecisionKind]int
	Outcomes          map[Outcome]int
	DiscoveryFailures int
}

// Summarize counts the decisions of the plan and the outcomes recorded in the log.
func Summarize(plan *Plan, log *ActionLog) Summary {
	s := Summary{
		Decisions: map[DecisionKind]int{
			DecisionCreate:  plan.Count(DecisionCreate),
			DecisionReplace: plan.Count(DecisionReplace),
			DecisionNoop:    plan.Count(DecisionNoop),
		},
		Outcomes:          make(map[Outcome]int),
		DiscoveryFailures: len(plan.Failures),
	}

	for _, e := range log.Entries() {
		if e.Outcome == OutcomeUnchanged {
			continue
		}

		s.Outcomes[e.Outcome]++
	}

	return s
}

// Failed returns the number of failed actions.
func (s Summary) Failed() int {
	return s.Outcomes[OutcomeFailed]
}

// String implements the fmt.Stringer interface.
func (s Summary) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "decisions: create=%d replace=%d noop=%d; ",
		s.Decisions[DecisionCreate], s.Decisions[DecisionReplace], s.Decisions[DecisionNoop])
	fmt.Fprintf(&sb, "actions: applied=%d failed=%d skipped=%d skipped-dry-run=%d; ",
		s.Outcomes[OutcomeApplied], s.Outcomes[OutcomeFailed], s.Outcomes[OutcomeSkipped], s.Outcomes[OutcomeSkippedDryRun])
	fmt.Fprintf(&sb, "discovery failures: %d", s.DiscoveryFailures)

	return sb.String()
}
