// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

/*
Package auth provides a small helper for creating an Azure Entra credential (azcore.TokenCredential)
using well-known Azure/Terraform environment variables and conventions.

Usage

	import "github.com/Azure/azgov/internal/auth"

	cred, err := auth.NewToken(tenantID)
	if err != nil {
	    // handle error
	}
	// use cred with Azure SDK clients that accept azcore.TokenCredential

# Environment variables

NewToken reads a variety of environment variables to determine the credential sources
to chain. Common variables include (but are not limited to):

- ARM_ENVIRONMENT, AZURE_ENVIRONMENT
- ARM_CLIENT_ID, AZURE_CLIENT_ID, ARM_CLIENT_ID_FILE_PATH
- ARM_CLIENT_SECRET, AZURE_CLIENT_SECRET, ARM_CLIENT_SECRET_FILE_PATH
- ARM_TENANT_ID, AZURE_TENANT_ID
- ARM_CLIENT_CERTIFICATE, ARM_CLIENT_CERTIFICATE_PASSWORD, ARM_CLIENT_CERTIFICATE_PATH
- ARM_OIDC_TOKEN, ARM_OIDC_TOKEN_FILE_PATH, AZURE_FEDERATED_TOKEN_FILE
- ARM_ADO_PIPELINE_SERVICE_CONNECTION_ID, SYSTEM_ACCESSTOKEN
- ARM_USE_CLI, ARM_USE_MSI, ARM_USE_OIDC, ARM_USE_AKS_WORKLOAD_IDENTITY

# Notes

  - The package maps environment names ("public", "usgovernment", "china") to the
    corresponding Azure cloud configuration and Microsoft Graph endpoint.
  - The Azure CLI is used by default; ARM_USE_CLI=false removes it from the chain.
*/
package auth
