// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package reconcile performs one reconciliation pass of private DNS zone links.
//
// A pass runs in four stages:
//
//   - BuildDesired computes the cross product of surviving virtual networks and zones.
//   - Reconciler classifies every desired link as CREATE, REPLACE or NOOP against the
//     links observed in the directory.
//   - Plan.Actions expands the decisions into ordered DELETE and CREATE operations.
//   - Executor applies the operations, sequentially per zone, recording every outcome
//     in an ActionLog.
//
// Only the Executor mutates the directory. Run wires the stages together.
package reconcile
