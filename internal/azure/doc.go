// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

// Package azure implements the azgov contracts on top of the Azure Resource Manager SDKs
// and Microsoft Graph.
//
// Azure response errors are mapped to the azgov sentinel errors by HTTP status code,
// so callers can test them with errors.Is.
package azure
