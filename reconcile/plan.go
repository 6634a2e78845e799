// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package reconcile

import (
	"fmt"

	"github.com/Azure/azgov"
)

// DecisionKind is the classification of a desired link.
type DecisionKind string

const (
	// DecisionCreate means no link targets the network, one must be created.
	DecisionCreate DecisionKind = "CREATE"
	// DecisionReplace means a stale link for the same logical network exists,
	// it must be deleted before the correct link is created.
	DecisionReplace DecisionKind = "REPLACE"
	// DecisionNoop means a link with the exact target already exists.
	DecisionNoop DecisionKind = "NOOP"
)

// Operation is a single mutation against the directory.
type Operation string

const (
	OperationDelete Operation = "DELETE"
	OperationCreate Operation = "CREATE"
)

// Decision is the reconciler's verdict for one desired link.
// Existing is the exact link for NOOP and the stale link for REPLACE.
type Decision struct {
	Kind     DecisionKind
	Link     azgov.ZoneLink
	Existing *azgov.Link
}

// Action is one ordered operation derived from a Decision.
type Action struct {
	Seq       int // Seq is the position of the action in the plan
	Operation Operation
	Decision  *Decision
	LinkName  string      // LinkName is the name of the link to create
	Target    *azgov.Link // Target is the link to delete
}

// Zone returns the zone of the action.
func (a Action) Zone() string {
	return a.Decision.Link.Zone
}

// String implements the fmt.Stringer interface.
func (a Action) String() string {
	return fmt.Sprintf("%s %s (%s)", a.Operation, a.Decision.Link, a.Decision.Kind)
}

// DiscoveryFailure records a listing call that failed during a pass.
// The affected subscription or zone contributes nothing to the pass.
type DiscoveryFailure struct {
	Scope string // Scope is "subscription" or "zone"
	Name  string
	Err   error
}

// Error implements the error interface.
func (f DiscoveryFailure) Error() string {
	return fmt.Sprintf("discovery failed for %s %s: %v", f.Scope, f.Name, f.Err)
}

// Unwrap returns the underlying error.
func (f DiscoveryFailure) Unwrap() error {
	return f.Err
}

// Plan is the outcome of reconciliation: one decision per desired link, in desired order.
type Plan struct {
	Decisions []Decision
	Failures  []DiscoveryFailure
}

// Actions expands the decisions into ordered operations.
// A REPLACE decision always becomes a DELETE followed by a CREATE; NOOP decisions produce nothing.
func (p *Plan) Actions() []Action {
	res := make([]Action, 0, len(p.Decisions))
	add := func(a Action) {
		a.Seq = len(res)
		res = append(res, a)
	}

	for i := range p.Decisions {
		d := &p.Decisions[i]
		name := azgov.LinkName(d.Link.Network)

		switch d.Kind {
		case DecisionCreate:
			add(Action{Operation: OperationCreate, Decision: d, LinkName: name})
		case DecisionReplace:
			add(Action{Operation: OperationDelete, Decision: d, Target: d.Existing})
			add(Action{Operation: OperationCreate, Decision: d, LinkName: name})
		case DecisionNoop:
		}
	}

	return res
}

// Count returns the number of decisions of the supplied kind.
func (p *Plan) Count(kind DecisionKind) int {
	n := 0
	for _, d := range p.Decisions {
		if d.Kind == kind {
			n++
		}
	}

	return n
}
