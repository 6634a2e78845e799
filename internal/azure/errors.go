// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azgov"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// mapError wraps Azure response errors with the matching azgov sentinel error.
// Other errors are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var respErr *azcore.ResponseError
	if !errors.As(err, &respErr) {
		return err
	}

	switch respErr.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %w", azgov.ErrNotFound, err)
	case http.StatusConflict, http.StatusPreconditionFailed:
		return fmt.Errorf("%w: %w", azgov.ErrConflict, err)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %w", azgov.ErrThrottled, err)
	}

	return err
}
