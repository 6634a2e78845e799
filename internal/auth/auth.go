// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
)

// Environment is an Azure cloud together with its Microsoft Graph endpoint.
type Environment struct {
	Name          string
	Cloud         cloud.Configuration
	GraphEndpoint string
}

// environments maps environment names to their corresponding cloud configurations.
var environments = map[string]Environment{
	"public":       {Name: "public", Cloud: cloud.AzurePublic, GraphEndpoint: "https://graph.microsoft.com"},
	"usgovernment": {Name: "usgovernment", Cloud: cloud.AzureGovernment, GraphEndpoint: "https://graph.microsoft.us"},
	"china":        {Name: "china", Cloud: cloud.AzureChina, GraphEndpoint: "https://microsoftgraph.chinacloudapi.cn"},
}

const (
	moduleName    = "azgov"
	moduleVersion = "v0.1.0"

	// oidcAudience is the audience of ID tokens exchanged for Entra tokens.
	oidcAudience = "api://AzureADTokenExchange"
)

// ErrNoCredential is returned when the environment enables no credential source.
var ErrNoCredential = errors.New("no credential source is configured")

// GetEnvironment returns the environment named by ARM_ENVIRONMENT or AZURE_ENVIRONMENT.
// Unknown or unset names select the public cloud.
func GetEnvironment() Environment {
	if env := getFirstSetEnvVar("ARM_ENVIRONMENT", "AZURE_ENVIRONMENT"); env != "" {
		if e, ok := environments[strings.ToLower(env)]; ok {
			return e
		}
	}

	return environments["public"]
}

// options is the credential configuration read from the environment.
type options struct {
	TenantID               string
	ClientID               string
	ClientIDFile           string
	ClientSecret           string
	ClientSecretFile       string
	ClientCertBase64       string
	ClientCertPfxFile      string
	ClientCertPassword     string
	OIDCToken              string
	OIDCTokenFile          string
	OIDCRequestToken       string
	OIDCRequestURL         string
	ADOServiceConnectionID string
	UseAzureCLI            bool
	UseMSI                 bool
	UseOIDC                bool
}

// optionsFromEnv reads the well-known Terraform ARM and Azure SDK environment variables.
// A tenant ID supplied by the caller takes precedence over the environment.
func optionsFromEnv(tenantID string) options {
	opts := options{
		UseAzureCLI: true,
	}

	if cli := getFirstSetEnvVar("ARM_USE_CLI"); cli != "" {
		// if env var is set only disable if we can definitively say we are not using the CLI
		b, err := strconv.ParseBool(cli)
		if err == nil {
			opts.UseAzureCLI = b
		}
	}

	opts.TenantID = tenantID
	if opts.TenantID == "" {
		opts.TenantID = getFirstSetEnvVar("ARM_TENANT_ID", "AZURE_TENANT_ID")
	}

	opts.ClientID = getFirstSetEnvVar("ARM_CLIENT_ID", "AZURE_CLIENT_ID")
	opts.ClientIDFile = getFirstSetEnvVar("ARM_CLIENT_ID_FILE_PATH")
	opts.ClientSecret = getFirstSetEnvVar("ARM_CLIENT_SECRET", "AZURE_CLIENT_SECRET")
	opts.ClientSecretFile = getFirstSetEnvVar("ARM_CLIENT_SECRET_FILE_PATH")
	opts.ClientCertBase64 = getFirstSetEnvVar("ARM_CLIENT_CERTIFICATE")
	opts.ClientCertPfxFile = getFirstSetEnvVar("ARM_CLIENT_CERTIFICATE_PATH", "AZURE_CLIENT_CERTIFICATE_PATH")
	opts.ClientCertPassword = getFirstSetEnvVar("ARM_CLIENT_CERTIFICATE_PASSWORD", "AZURE_CLIENT_CERTIFICATE_PASSWORD")
	opts.OIDCToken = getFirstSetEnvVar("ARM_OIDC_TOKEN")
	opts.OIDCTokenFile = getFirstSetEnvVar("ARM_OIDC_TOKEN_FILE_PATH", "AZURE_FEDERATED_TOKEN_FILE")
	opts.OIDCRequestToken = getFirstSetEnvVar(
		"ARM_OIDC_REQUEST_TOKEN",
		"ACTIONS_ID_TOKEN_REQUEST_TOKEN",
		"SYSTEM_ACCESSTOKEN",
	)
	opts.OIDCRequestURL = getFirstSetEnvVar(
		"ARM_OIDC_REQUEST_URL",
		"ACTIONS_ID_TOKEN_REQUEST_URL",
		"SYSTEM_OIDCREQUESTURI",
	)
	opts.ADOServiceConnectionID = getFirstSetEnvVar(
		"ARM_ADO_PIPELINE_SERVICE_CONNECTION_ID",
		"ARM_OIDC_AZURE_SERVICE_CONNECTION_ID",
		"AZURESUBSCRIPTION_SERVICE_CONNECTION_ID",
	)

	opts.UseMSI = updateBoolValueAnyTrue(opts.UseMSI, "ARM_USE_MSI")
	opts.UseOIDC = updateBoolValueAnyTrue(opts.UseOIDC, "ARM_USE_OIDC", "ARM_USE_AKS_WORKLOAD_IDENTITY")

	return opts
}

// NewToken creates a new Entra token credential for the supplied tenant.
// It uses well-known Terraform ARM environment variables to configure the token acquisition.
// Every configured source is added to a chain, in order: client secret, client certificate,
// OIDC token, Azure DevOps service connection or OIDC token request, managed identity, Azure CLI.
func NewToken(tenantID string) (azcore.TokenCredential, error) {
	opts := optionsFromEnv(tenantID)
	env := GetEnvironment()

	sources, err := opts.credentials(azcore.ClientOptions{Cloud: env.Cloud})
	if err != nil {
		return nil, err
	}

	if len(sources) == 0 {
		return nil, ErrNoCredential
	}

	cred, err := azidentity.NewChainedTokenCredential(sources, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: credential chain: %w", err)
	}

	return cred, nil
}

func (o options) credentials(co azcore.ClientOptions) ([]azcore.TokenCredential, error) {
	clientID, err := valueOrFile(o.ClientID, o.ClientIDFile)
	if err != nil {
		return nil, fmt.Errorf("auth: could not read client ID: %w", err)
	}

	secret, err := valueOrFile(o.ClientSecret, o.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("auth: could not read client secret: %w", err)
	}

	var res []azcore.TokenCredential

	if secret != "" {
		c, err := azidentity.NewClientSecretCredential(o.TenantID, clientID, secret,
			&azidentity.ClientSecretCredentialOptions{ClientOptions: co})
		if err != nil {
			return nil, fmt.Errorf("auth: client secret credential: %w", err)
		}

		res = append(res, c)
	}

	if o.ClientCertBase64 != "" || o.ClientCertPfxFile != "" {
		c, err := o.certificateCredential(clientID, co)
		if err != nil {
			return nil, err
		}

		res = append(res, c)
	}

	if o.UseOIDC && (o.OIDCToken != "" || o.OIDCTokenFile != "") {
		token, file := o.OIDCToken, o.OIDCTokenFile
		c, err := azidentity.NewClientAssertionCredential(o.TenantID, clientID,
			func(_ context.Context) (string, error) { return valueOrFile(token, file) },
			&azidentity.ClientAssertionCredentialOptions{ClientOptions: co})
		if err != nil {
			return nil, fmt.Errorf("auth: OIDC credential: %w", err)
		}

		res = append(res, c)
	}

	if o.UseOIDC && o.ADOServiceConnectionID != "" && o.OIDCRequestToken != "" {
		c, err := azidentity.NewAzurePipelinesCredential(o.TenantID, clientID, o.ADOServiceConnectionID, o.OIDCRequestToken,
			&azidentity.AzurePipelinesCredentialOptions{ClientOptions: co})
		if err != nil {
			return nil, fmt.Errorf("auth: Azure Pipelines credential: %w", err)
		}

		res = append(res, c)
	}

	if o.UseOIDC && o.ADOServiceConnectionID == "" && o.OIDCRequestURL != "" && o.OIDCRequestToken != "" {
		pl := runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{}, &co)
		requestURL, requestToken := o.OIDCRequestURL, o.OIDCRequestToken
		c, err := azidentity.NewClientAssertionCredential(o.TenantID, clientID,
			func(ctx context.Context) (string, error) { return requestOIDCToken(ctx, pl, requestURL, requestToken) },
			&azidentity.ClientAssertionCredentialOptions{ClientOptions: co})
		if err != nil {
			return nil, fmt.Errorf("auth: OIDC request credential: %w", err)
		}

		res = append(res, c)
	}

	if o.UseMSI {
		miOpts := &azidentity.ManagedIdentityCredentialOptions{ClientOptions: co}
		if clientID != "" {
			miOpts.ID = azidentity.ClientID(clientID)
		}

		c, err := azidentity.NewManagedIdentityCredential(miOpts)
		if err != nil {
			return nil, fmt.Errorf("auth: managed identity credential: %w", err)
		}

		res = append(res, c)
	}

	if o.UseAzureCLI {
		c, err := azidentity.NewAzureCLICredential(&azidentity.AzureCLICredentialOptions{TenantID: o.TenantID})
		if err != nil {
			return nil, fmt.Errorf("auth: Azure CLI credential: %w", err)
		}

		res = append(res, c)
	}

	return res, nil
}

func (o options) certificateCredential(clientID string, co azcore.ClientOptions) (azcore.TokenCredential, error) {
	var (
		data []byte
		err  error
	)

	if o.ClientCertBase64 != "" {
		data, err = base64.StdEncoding.DecodeString(o.ClientCertBase64)
	} else {
		data, err = os.ReadFile(o.ClientCertPfxFile)
	}

	if err != nil {
		return nil, fmt.Errorf("auth: could not read client certificate: %w", err)
	}

	certs, key, err := azidentity.ParseCertificates(data, []byte(o.ClientCertPassword))
	if err != nil {
		return nil, fmt.Errorf("auth: could not parse client certificate: %w", err)
	}

	c, err := azidentity.NewClientCertificateCredential(o.TenantID, clientID, certs, key,
		&azidentity.ClientCertificateCredentialOptions{ClientOptions: co})
	if err != nil {
		return nil, fmt.Errorf("auth: client certificate credential: %w", err)
	}

	return c, nil
}

// requestOIDCToken fetches an ID token from a CI token endpoint such as the GitHub Actions one.
func requestOIDCToken(ctx context.Context, pl runtime.Pipeline, requestURL, requestToken string) (string, error) {
	req, err := runtime.NewRequest(ctx, http.MethodGet, requestURL)
	if err != nil {
		return "", fmt.Errorf("auth: OIDC token request: %w", err)
	}

	q := req.Raw().URL.Query()
	q.Set("audience", oidcAudience)
	req.Raw().URL.RawQuery = q.Encode()
	req.Raw().Header.Set("Authorization", "Bearer "+requestToken)

	resp, err := pl.Do(req)
	if err != nil {
		return "", fmt.Errorf("auth: OIDC token request: %w", err)
	}

	if !runtime.HasStatusCode(resp, http.StatusOK) {
		return "", fmt.Errorf("auth: OIDC token request: %w", runtime.NewResponseError(resp))
	}

	var body struct {
		Value string `json:"value"`
	}

	if err := runtime.UnmarshalAsJSON(resp, &body); err != nil {
		return "", fmt.Errorf("auth: OIDC token response: %w", err)
	}

	if body.Value == "" {
		return "", errors.New("auth: OIDC token response has no token")
	}

	return body.Value, nil
}

// valueOrFile returns value if set, otherwise the trimmed contents of the file at path.
func valueOrFile(value, path string) (string, error) {
	if value != "" || path == "" {
		return value, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(string(b)), nil
}

func getFirstSetEnvVar(vars ...string) string {
	for _, v := range vars {
		if val := os.Getenv(v); val != "" {
			return val
		}
	}

	return ""
}

func updateBoolValueAnyTrue(current bool, vars ...string) bool {
	if current {
		return true
	}

	for _, v := range vars {
		if val := os.Getenv(v); val != "" {
			b, _ := strconv.ParseBool(val)
			if b {
				return true
			}
		}
	}

	return false
}
