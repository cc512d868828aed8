package sdmx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingServer captures the last request the client made and replies with
// a fixed body.
func recordingServer(status int, contentType, body string) (*httptest.Server, *http.Request) {
	last := &http.Request{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*last = *r
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	return srv, last
}

func TestListDataflowStructures(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "application/xml", sampleStructureXML)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	tree, err := client.ListDataflowStructures(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "/rest/dataflow", last.URL.Path)
	assert.Equal(t, mediaTypeStructure, last.Header.Get("Accept"))
	assert.Contains(t, tree, "Structure")
}

func TestListStructuresDefaultsAgency(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "application/xml", sampleStructureXML)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	_, err := client.ListStructures(context.Background(), "codelist", "", "", "")
	require.NoError(t, err)

	assert.Equal(t, "/rest/codelist/ABS", last.URL.Path)
	assert.Empty(t, last.URL.Query().Get("detail"))
	assert.Empty(t, last.URL.Query().Get("references"))
}

func TestListStructuresForwardsDetailAndReferences(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "application/xml", sampleStructureXML)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	_, err := client.ListStructures(context.Background(), "datastructure", "OECD", StructureDetailAllStubs, ReferencesChildren)
	require.NoError(t, err)

	assert.Equal(t, "/rest/datastructure/OECD", last.URL.Path)
	assert.Equal(t, "allstubs", last.URL.Query().Get("detail"))
	assert.Equal(t, "children", last.URL.Query().Get("references"))
	assert.Equal(t, mediaTypeStructure, last.Header.Get("Accept"))
}

func TestGetObservationDataCSVReturnsRawBody(t *testing.T) {
	const csvBody = "DATAFLOW,TIME_PERIOD,OBS_VALUE\nABS:CPI(1.0.0),2023-Q1,132.6\n"

	srv, last := recordingServer(http.StatusOK, "text/csv", csvBody)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	result, err := client.GetObservationData(context.Background(), "ABS,CPI,1.0.0", "", &QueryOptions{
		Format:      FormatCSVWithLabels,
		StartPeriod: "2023-Q1",
	})
	require.NoError(t, err)

	assert.Equal(t, csvBody, result)
	assert.Equal(t, "/rest/data/ABS,CPI,1.0.0/all", last.URL.Path)
	assert.Equal(t, "text/csv", last.Header.Get("Accept"))
	assert.Equal(t, "csvfilewithlabels", last.URL.Query().Get("format"))
	assert.Equal(t, "2023-Q1", last.URL.Query().Get("startPeriod"))
}

func TestGetObservationDataJSONReturnsParsedTree(t *testing.T) {
	srv, last := recordingServer(http.StatusOK, "application/vnd.sdmx.data+json", `{"data":{"dataSets":[]}}`)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	result, err := client.GetObservationData(context.Background(), "ABS,CPI,1.0.0", "1.50.all", nil)
	require.NoError(t, err)

	tree, ok := result.(map[string]interface{})
	require.True(t, ok, "jsondata responses should parse to a tree")
	assert.Contains(t, tree, "data")

	// nil options still request SDMX-JSON explicitly
	assert.Equal(t, "/rest/data/ABS,CPI,1.0.0/1.50.all", last.URL.Path)
	assert.Equal(t, mediaTypeJSONData, last.Header.Get("Accept"))
	assert.Equal(t, "jsondata", last.URL.Query().Get("format"))
}

func TestGetObservationDataXMLReturnsParsedTree(t *testing.T) {
	const xmlBody = `<?xml version="1.0"?><mes:GenericData xmlns:mes="urn:x"><mes:DataSet/></mes:GenericData>`

	srv, last := recordingServer(http.StatusOK, "application/xml", xmlBody)
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	result, err := client.GetObservationData(context.Background(), "ABS,CPI,1.0.0", "all", &QueryOptions{Format: FormatGenericData})
	require.NoError(t, err)

	tree, ok := result.(map[string]interface{})
	require.True(t, ok, "XML responses should parse to a tree")
	assert.Contains(t, tree, "GenericData")
	assert.Equal(t, mediaTypeGenericData, last.Header.Get("Accept"))
}

func TestClientErrorsNormalizeToRemoteError(t *testing.T) {
	srv, _ := recordingServer(http.StatusNotFound, "text/plain", "NoResultsFound - No results found")
	defer srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	_, err := client.ListDataflowStructures(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr), "expected *RemoteError, got %T", err)
	assert.Equal(t, http.StatusNotFound, remoteErr.StatusCode)
	assert.Equal(t, "NoResultsFound - No results found", remoteErr.Message)
	assert.Contains(t, remoteErr.URL, "/rest/dataflow")
	assert.Contains(t, remoteErr.Error(), "abs api request failed")
}

func TestClientTransportFailureNormalizesToRemoteError(t *testing.T) {
	// Point at a server that is already closed so the dial fails.
	srv, _ := recordingServer(http.StatusOK, "", "")
	srv.Close()

	client := NewClient(ClientConfig{BaseURL: srv.URL}, nil)

	_, err := client.ListDataflowStructures(context.Background())
	require.Error(t, err)

	var remoteErr *RemoteError
	require.True(t, errors.As(err, &remoteErr))
	assert.Zero(t, remoteErr.StatusCode)
	assert.NotNil(t, remoteErr.Unwrap())
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient(ClientConfig{}, nil)

	assert.Equal(t, DefaultBaseURL, client.baseURL)
	assert.Equal(t, DefaultTimeout, client.httpClient.Timeout)
}
