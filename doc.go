// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package azgov provides the data structures shared by the governance chores that run
// across the subscriptions of an Azure tenant.
// The central chore reconciles which virtual networks are linked to the private DNS zones
// hosted in a hub subscription. See the reconcile package for the reconciliation pass itself.
//
// The Directory interface is the only contract with the cloud control plane.
// The Azure implementation lives in internal/azure; tests use an in-memory fake.
package azgov
