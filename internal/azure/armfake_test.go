// Copyright (c) Microsoft Corporation. All rights reserved.
// Licensed under the MIT License.

package azure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/cloud"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/require"
)

const (
	hubSub   = "11111111-0000-0000-0000-000000000001"
	spokeSub = "22222222-0000-0000-0000-000000000002"
	zonesRG  = "rg-dns"
)

type fakeCredential struct{}

func (f *fakeCredential) GetToken(_ context.Context, _ policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "fake-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

type armLink struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Location   string `json:"location,omitempty"`
	Properties struct {
		VirtualNetwork *struct {
			ID string `json:"id"`
		} `json:"virtualNetwork,omitempty"`
		RegistrationEnabled bool   `json:"registrationEnabled"`
		ProvisioningState   string `json:"provisioningState,omitempty"`
	} `json:"properties"`
}

// armFake is a minimal Azure Resource Manager and Microsoft Graph server.
type armFake struct {
	t   *testing.T
	srv *httptest.Server

	mu             sync.Mutex
	subscriptions  []map[string]any
	networks       map[string][]map[string]any // keyed by subscription ID
	zones          []string
	links          map[string]map[string]armLink // keyed by zone, then link name
	resourceGroups map[string][]map[string]any   // keyed by subscription ID
	resources      map[string][]map[string]any   // keyed by subscription ID
	assignments    map[string][]map[string]any   // keyed by subscription ID
	principals     map[string]bool
	failures       map[string]int // keyed by "METHOD path", value is the status code to answer
	graphCalls     int
	authHeaders    []string
}

func newARMFake(t *testing.T) *armFake {
	t.Helper()

	f := &armFake{
		t:              t,
		networks:       make(map[string][]map[string]any),
		links:          make(map[string]map[string]armLink),
		resourceGroups: make(map[string][]map[string]any),
		resources:      make(map[string][]map[string]any),
		assignments:    make(map[string][]map[string]any),
		principals:     make(map[string]bool),
		failures:       make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /subscriptions", f.listSubscriptions)
	mux.HandleFunc("GET /subscriptions/{sub}/providers/Microsoft.Network/virtualNetworks", f.listNetworks)
	mux.HandleFunc("GET /subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Network/privateDnsZones", f.listZones)
	mux.HandleFunc("GET /subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Network/privateDnsZones/{zone}/virtualNetworkLinks", f.listLinks)
	mux.HandleFunc("PUT /subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Network/privateDnsZones/{zone}/virtualNetworkLinks/{link}", f.putLink)
	mux.HandleFunc("DELETE /subscriptions/{sub}/resourceGroups/{rg}/providers/Microsoft.Network/privateDnsZones/{zone}/virtualNetworkLinks/{link}", f.deleteLink)
	mux.HandleFunc("HEAD /subscriptions/{sub}/resourcegroups/{rg}", f.headResourceGroup)
	mux.HandleFunc("GET /subscriptions/{sub}/resourcegroups", f.listResourceGroups)
	mux.HandleFunc("GET /subscriptions/{sub}/resources", f.listResources)
	mux.HandleFunc("GET /subscriptions/{sub}/providers/Microsoft.Authorization/roleAssignments", f.listAssignments)
	mux.HandleFunc("DELETE /subscriptions/{sub}/providers/Microsoft.Authorization/roleAssignments/{name}", f.deleteAssignment)
	mux.HandleFunc("POST /v1.0/directoryObjects/getByIds", f.getByIDs)

	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		code, fail := f.failures[r.Method+" "+r.URL.Path]
		f.mu.Unlock()

		if fail {
			writeError(w, code)
			return
		}

		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.srv.Close)

	return f
}

// client returns a Client bound to the fake, with SDK retries disabled.
func (f *armFake) client() *Client {
	f.t.Helper()

	c, err := NewClient(&fakeCredential{}, &Options{
		HubSubscriptionID:  hubSub,
		ZonesResourceGroup: zonesRG,
		GraphEndpoint:      f.srv.URL,
		ClientOptions: &arm.ClientOptions{
			ClientOptions: azcore.ClientOptions{
				Cloud: cloud.Configuration{
					Services: map[cloud.ServiceName]cloud.ServiceConfiguration{
						cloud.ResourceManager: {
							Endpoint: f.srv.URL,
							Audience: "https://management.azure.com/",
						},
					},
				},
				Retry:                           policy.RetryOptions{MaxRetries: -1},
				InsecureAllowCredentialWithHTTP: true,
			},
		},
	})
	require.NoError(f.t, err)

	return c
}

func (f *armFake) fail(method, path string, code int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures[method+" "+path] = code
}

func linkID(zone, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Network/privateDnsZones/%s/virtualNetworkLinks/%s",
		hubSub, zonesRG, zone, name)
}

func (f *armFake) addLink(zone, name, networkID string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	l := armLink{ID: linkID(zone, name), Name: name, Location: "global"}
	l.Properties.VirtualNetwork = &struct {
		ID string `json:"id"`
	}{ID: networkID}
	l.Properties.ProvisioningState = "Succeeded"

	if f.links[zone] == nil {
		f.links[zone] = make(map[string]armLink)
	}

	f.links[zone][name] = l
}

func (f *armFake) linkNames(zone string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := make([]string, 0, len(f.links[zone]))
	for n := range f.links[zone] {
		res = append(res, n)
	}

	sort.Strings(res)

	return res
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int) {
	writeJSON(w, code, map[string]any{
		"error": map[string]any{
			"code":    http.StatusText(code),
			"message": fmt.Sprintf("fake error %d", code),
		},
	})
}

func page(values any) map[string]any {
	return map[string]any{"value": values}
}

func (f *armFake) listSubscriptions(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(w, http.StatusOK, page(f.subscriptions))
}

func (f *armFake) listNetworks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(w, http.StatusOK, page(f.networks[r.PathValue("sub")]))
}

func (f *armFake) listZones(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.PathValue("rg") != zonesRG {
		writeError(w, http.StatusNotFound)
		return
	}

	zones := make([]map[string]any, 0, len(f.zones))
	for _, z := range f.zones {
		zones = append(zones, map[string]any{"name": z, "location": "global"})
	}

	writeJSON(w, http.StatusOK, page(zones))
}

func (f *armFake) listLinks(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	links := make([]armLink, 0)
	for _, l := range f.links[r.PathValue("zone")] {
		links = append(links, l)
	}

	writeJSON(w, http.StatusOK, page(links))
}

func (f *armFake) putLink(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	zone, name := r.PathValue("zone"), r.PathValue("link")
	if _, ok := f.links[zone][name]; ok && r.Header.Get("If-None-Match") == "*" {
		writeError(w, http.StatusPreconditionFailed)
		return
	}

	var l armLink
	if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}

	l.ID, l.Name = linkID(zone, name), name
	l.Properties.ProvisioningState = "Succeeded"

	if f.links[zone] == nil {
		f.links[zone] = make(map[string]armLink)
	}

	f.links[zone][name] = l
	writeJSON(w, http.StatusOK, l)
}

func (f *armFake) deleteLink(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	zone, name := r.PathValue("zone"), r.PathValue("link")
	if _, ok := f.links[zone][name]; !ok {
		writeError(w, http.StatusNotFound)
		return
	}

	delete(f.links[zone], name)
	w.WriteHeader(http.StatusOK)
}

func (f *armFake) headResourceGroup(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rg := range f.resourceGroups[r.PathValue("sub")] {
		if rg["name"] == r.PathValue("rg") {
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}

	w.WriteHeader(http.StatusNotFound)
}

func (f *armFake) listResourceGroups(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(w, http.StatusOK, page(f.resourceGroups[r.PathValue("sub")]))
}

func (f *armFake) listResources(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(w, http.StatusOK, page(f.resources[r.PathValue("sub")]))
}

func (f *armFake) listAssignments(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	writeJSON(w, http.StatusOK, page(f.assignments[r.PathValue("sub")]))
}

func (f *armFake) deleteAssignment(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sub := r.PathValue("sub")
	for i, a := range f.assignments[sub] {
		if a["name"] == r.PathValue("name") {
			f.assignments[sub] = append(f.assignments[sub][:i], f.assignments[sub][i+1:]...)
			writeJSON(w, http.StatusOK, a)

			return
		}
	}

	w.WriteHeader(http.StatusNoContent)
}

func (f *armFake) getByIDs(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.graphCalls++

	var req getByIDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest)
		return
	}

	found := make([]map[string]any, 0)
	for _, id := range req.IDs {
		if f.principals[id] {
			found = append(found, map[string]any{"id": id, "@odata.type": "#microsoft.graph.user"})
		}
	}

	writeJSON(w, http.StatusOK, page(found))
}
