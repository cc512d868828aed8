// Package sdmx provides a client for the ABS SDMX Data API.
package sdmx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/statkit/absbridge/pkg/logging"
)

// DefaultBaseURL is the ABS Data API host
const DefaultBaseURL = "https://data.api.abs.gov.au"

// DefaultTimeout bounds every request; there are no retries, so a single
// attempt either completes or fails within this window.
const DefaultTimeout = 30 * time.Second

// DefaultAgencyID is the agency used for structure queries when none is given
const DefaultAgencyID = "ABS"

// ClientConfig contains configuration for the SDMX client
type ClientConfig struct {
	// BaseURL is the API host; DefaultBaseURL when empty
	BaseURL string

	// Timeout bounds each request; DefaultTimeout when zero
	Timeout time.Duration
}

// Client is a stateless client for the ABS SDMX REST endpoints
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient creates a new SDMX client
func NewClient(cfg ClientConfig, logger logging.Logger) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListDataflowStructures requests the dataflow structure listing and
// returns it as a parsed structural tree.
func (c *Client) ListDataflowStructures(ctx context.Context) (map[string]interface{}, error) {
	body, err := c.get(ctx, "/rest/dataflow", nil, mediaTypeStructure)
	if err != nil {
		return nil, err
	}
	return ParseStructureDocument(body)
}

// ListStructures requests structures of the given type for an agency.
// agencyID defaults to "ABS"; detail and references are omitted from the
// query when empty.
func (c *Client) ListStructures(ctx context.Context, structureType, agencyID string, detail StructureDetail, references References) (map[string]interface{}, error) {
	if agencyID == "" {
		agencyID = DefaultAgencyID
	}

	params := make(map[string]string)
	if detail != "" {
		params["detail"] = string(detail)
	}
	if references != "" {
		params["references"] = string(references)
	}

	path := fmt.Sprintf("/rest/%s/%s", url.PathEscape(structureType), url.PathEscape(agencyID))
	body, err := c.get(ctx, path, params, mediaTypeStructure)
	if err != nil {
		return nil, err
	}
	return ParseStructureDocument(body)
}

// GetObservationData requests observation data for a dataflow. dataKey
// defaults to "all". CSV formats return the raw response body as a string;
// every other format returns a parsed structural tree.
func (c *Client) GetObservationData(ctx context.Context, dataflowID, dataKey string, options *QueryOptions) (interface{}, error) {
	if dataKey == "" {
		dataKey = "all"
	}

	format := options.EffectiveFormat()
	path := fmt.Sprintf("/rest/data/%s/%s", url.PathEscape(dataflowID), url.PathEscape(dataKey))

	body, err := c.get(ctx, path, options.queryParams(), format.AcceptHeader())
	if err != nil {
		return nil, err
	}

	if format.IsCSV() {
		return string(body), nil
	}
	if format == FormatJSONData {
		tree, err := parseJSONDocument(body)
		if err != nil {
			return nil, err
		}
		return tree, nil
	}
	tree, err := ParseStructureDocument(body)
	if err != nil {
		return nil, err
	}
	return tree, nil
}

// get performs a single GET request and funnels every failure through one
// error-normalization path producing a *RemoteError.
func (c *Client) get(ctx context.Context, path string, params map[string]string, accept string) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		q := url.Values{}
		for key, value := range params {
			q.Set(key, value)
		}
		reqURL = reqURL + "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &RemoteError{Message: "failed to create request", URL: reqURL, Err: err}
	}
	req.Header.Set("Accept", accept)

	c.logger.Debug("abs api request", logging.F("url", reqURL), logging.F("accept", accept))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &RemoteError{Message: err.Error(), URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{
			Message:    "failed to read response body",
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        reqURL,
			Err:        err,
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &RemoteError{
			Message:    strings.TrimSpace(string(body)),
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			URL:        reqURL,
		}
	}

	return body, nil
}
