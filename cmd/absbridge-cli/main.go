// Package main provides a CLI for interacting with the absbridge API server.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
)

var (
	// Global flags
	serverURL string
	token     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "absbridge-cli",
		Short: "absbridge CLI",
		Long:  "Command-line interface for the absbridge API server",
	}

	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (JWT or API key)")

	// Dataflow commands
	dataflowCmd := &cobra.Command{
		Use:   "dataflow",
		Short: "Dataflow listing and data retrieval",
	}

	var refresh bool
	dataflowListCmd := &cobra.Command{
		Use:   "list",
		Short: "List known dataflows",
		Run: func(cmd *cobra.Command, args []string) {
			params := url.Values{}
			if refresh {
				params.Set("refresh", "true")
			}
			get("/api/v1/dataflows", params)
		},
	}
	dataflowListCmd.Flags().BoolVar(&refresh, "refresh", false, "Force a cache refresh")

	var (
		startPeriod string
		endPeriod   string
		format      string
		detail      string
		dimension   string
	)
	dataflowDataCmd := &cobra.Command{
		Use:   "data <flowId> [dataKey]",
		Short: "Get observation data for a dataflow",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			dataKey := "all"
			if len(args) > 1 {
				dataKey = args[1]
			}

			params := url.Values{}
			if startPeriod != "" {
				params.Set("startPeriod", startPeriod)
			}
			if endPeriod != "" {
				params.Set("endPeriod", endPeriod)
			}
			if format != "" {
				params.Set("format", format)
			}
			if detail != "" {
				params.Set("detail", detail)
			}
			if dimension != "" {
				params.Set("dimensionAtObservation", dimension)
			}

			get(fmt.Sprintf("/api/v1/dataflows/%s/data/%s",
				url.PathEscape(args[0]), url.PathEscape(dataKey)), params)
		},
	}
	dataflowDataCmd.Flags().StringVar(&startPeriod, "start-period", "", "Inclusive start period (e.g. 2021 or 2021-Q3)")
	dataflowDataCmd.Flags().StringVar(&endPeriod, "end-period", "", "Inclusive end period")
	dataflowDataCmd.Flags().StringVar(&format, "format", "", "Response format (csvfilewithlabels, csvfile, jsondata, genericdata, structurespecificdata)")
	dataflowDataCmd.Flags().StringVar(&detail, "detail", "", "Payload richness (full, dataonly, serieskeysonly, nodata)")
	dataflowDataCmd.Flags().StringVar(&dimension, "dimension-at-observation", "", "Dimension at observation (TIME_PERIOD, AllDimensions, or a dimension name)")

	dataflowCmd.AddCommand(dataflowListCmd, dataflowDataCmd)

	// Structure commands
	var (
		structureDetail string
		references      string
	)
	structureCmd := &cobra.Command{
		Use:   "structure <structureType> [agencyId]",
		Short: "Query SDMX structural metadata",
		Args:  cobra.RangeArgs(1, 2),
		Run: func(cmd *cobra.Command, args []string) {
			agencyID := "ABS"
			if len(args) > 1 {
				agencyID = args[1]
			}

			params := url.Values{}
			if structureDetail != "" {
				params.Set("detail", structureDetail)
			}
			if references != "" {
				params.Set("references", references)
			}

			get(fmt.Sprintf("/api/v1/structures/%s/%s",
				url.PathEscape(args[0]), url.PathEscape(agencyID)), params)
		},
	}
	structureCmd.Flags().StringVar(&structureDetail, "detail", "", "Structure detail level")
	structureCmd.Flags().StringVar(&references, "references", "", "Related artefacts to include")

	// hash-key generates the bcrypt hash stored in the server config
	hashKeyCmd := &cobra.Command{
		Use:   "hash-key <api-key>",
		Short: "Generate a bcrypt hash of an API key for the server config",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			hash, err := bcrypt.GenerateFromPassword([]byte(args[0]), bcrypt.DefaultCost)
			if err != nil {
				fail("failed to hash key: %v", err)
			}
			fmt.Println(string(hash))
		},
	}

	rootCmd.AddCommand(dataflowCmd, structureCmd, hashKeyCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// get performs a GET against the server and prints the response body.
// JSON bodies are pretty-printed; CSV bodies pass through untouched.
func get(path string, params url.Values) {
	reqURL := strings.TrimRight(serverURL, "/") + path
	if len(params) > 0 {
		reqURL = reqURL + "?" + params.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, reqURL, nil)
	if err != nil {
		fail("failed to create request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		fail("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fail("failed to read response: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		fail("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	if strings.Contains(resp.Header.Get("Content-Type"), "application/json") {
		var pretty bytes.Buffer
		if err := json.Indent(&pretty, body, "", "  "); err == nil {
			body = pretty.Bytes()
		}
	}

	fmt.Println(string(body))
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
