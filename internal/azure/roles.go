// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azgov"
	"github.com/Azure/azgov/to"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
)

// getByIDsBatchSize is the maximum number of IDs accepted by a single getByIds call.
const getByIDsBatchSize = 1000

// ListRoleAssignments returns the role assignments at subscription scope and below.
// Assignments inherited from management groups are left out.
func (c *Client) ListRoleAssignments(ctx context.Context, subscriptionID string) ([]azgov.RoleAssignment, error) {
	client, err := armauthorization.NewRoleAssignmentsClient(subscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return nil, fmt.Errorf("azure.ListRoleAssignments: creating client: %w", err)
	}

	var res []azgov.RoleAssignment

	scopePrefix := strings.ToLower("/subscriptions/" + subscriptionID)
	pager := client.NewListForSubscriptionPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("azure.ListRoleAssignments: subscription %s: %w", subscriptionID, mapError(err))
		}

		for _, ra := range page.Value {
			if ra == nil || ra.ID == nil || ra.Properties == nil {
				continue
			}

			if !strings.HasPrefix(strings.ToLower(to.ValOrZero(ra.Properties.Scope)), scopePrefix) {
				continue
			}

			res = append(res, azgov.RoleAssignment{
				ID:               *ra.ID,
				SubscriptionID:   subscriptionID,
				PrincipalID:      to.ValOrZero(ra.Properties.PrincipalID),
				PrincipalType:    string(to.ValOrZero(ra.Properties.PrincipalType)),
				RoleDefinitionID: to.ValOrZero(ra.Properties.RoleDefinitionID),
				Scope:            to.ValOrZero(ra.Properties.Scope),
			})
		}
	}

	return res, nil
}

// DeleteRoleAssignment deletes the role assignment with the supplied resource ID.
func (c *Client) DeleteRoleAssignment(ctx context.Context, assignment azgov.RoleAssignment) error {
	client, err := armauthorization.NewRoleAssignmentsClient(assignment.SubscriptionID, c.cred, c.clientOpts)
	if err != nil {
		return fmt.Errorf("azure.DeleteRoleAssignment: creating client: %w", err)
	}

	if _, err := client.DeleteByID(ctx, assignment.ID, nil); err != nil {
		return fmt.Errorf("azure.DeleteRoleAssignment: %s: %w", assignment.ID, mapError(err))
	}

	return nil
}

type getByIDsRequest struct {
	IDs []string `json:"ids"`
}

type getByIDsResponse struct {
	Value []struct {
		ID string `json:"id"`
	} `json:"value"`
}

// ExistingPrincipals returns the subset of ids that are known directory objects.
// IDs are resolved with the Microsoft Graph getByIds call, in batches.
func (c *Client) ExistingPrincipals(ctx context.Context, ids []string) (map[string]bool, error) {
	res := make(map[string]bool, len(ids))

	for start := 0; start < len(ids); start += getByIDsBatchSize {
		end := min(start+getByIDsBatchSize, len(ids))

		found, err := c.getByIDs(ctx, ids[start:end])
		if err != nil {
			return nil, fmt.Errorf("azure.ExistingPrincipals: %w", err)
		}

		for _, id := range found {
			res[id] = true
		}
	}

	return res, nil
}

func (c *Client) getByIDs(ctx context.Context, ids []string) ([]string, error) {
	req, err := runtime.NewRequest(ctx, http.MethodPost, runtime.JoinPaths(c.graphEndpoint, "/v1.0/directoryObjects/getByIds"))
	if err != nil {
		return nil, err
	}

	if err := runtime.MarshalAsJSON(req, getByIDsRequest{IDs: ids}); err != nil {
		return nil, err
	}

	resp, err := c.graph.Do(req)
	if err != nil {
		return nil, mapError(err)
	}

	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return nil, mapError(runtime.NewResponseError(resp))
	}

	var body getByIDsResponse
	if err := runtime.UnmarshalAsJSON(resp, &body); err != nil {
		return nil, err
	}

	res := make([]string, 0, len(body.Value))
	for _, v := range body.Value {
		res = append(res, v.ID)
	}

	return res, nil
}
