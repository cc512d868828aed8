// Package dataflow defines the dataflow descriptors discovered from the
// ABS SDMX API and their cached snapshot form.
package dataflow

import (
	"fmt"
	"time"
)

// StructureRef points at the data structure definition governing a dataflow
type StructureRef struct {
	// ID of the data structure definition
	ID string `json:"id"`

	// Version of the data structure definition
	Version string `json:"version"`

	// AgencyID is the agency maintaining the data structure definition
	AgencyID string `json:"agencyID"`
}

// DataFlow is a discovered dataset descriptor. Instances are constructed
// only by extraction from a parsed structural response and are immutable
// once constructed; a refresh supersedes them wholesale.
type DataFlow struct {
	// ID of the dataflow, unique within an agency and version
	ID string `json:"id"`

	// AgencyID is the agency maintaining the dataflow
	AgencyID string `json:"agencyID"`

	// Version of the dataflow
	Version string `json:"version"`

	// Name is the human label, empty when absent upstream
	Name string `json:"name"`

	// Description of the dataflow, empty when absent upstream
	Description string `json:"description"`

	// Structure references the governing data structure definition, when present
	Structure *StructureRef `json:"structure,omitempty"`
}

// Cache is the persisted snapshot of the dataflow listing. LastUpdated is
// always the time the contained flows were fetched; the two fields are
// replaced together, never independently.
type Cache struct {
	// LastUpdated is when the flows were fetched
	LastUpdated time.Time `json:"lastUpdated"`

	// Flows in upstream order
	Flows []DataFlow `json:"dataflows"`
}

// Age returns how long ago the snapshot was fetched
func (c *Cache) Age() time.Duration {
	return time.Since(c.LastUpdated)
}

// FormatDataflowIdentifier produces the comma-delimited key the upstream
// API uses to address a dataflow in data queries. SDMX identifiers cannot
// contain a comma, so no escaping is defined; a component that did contain
// one would make the identifier ambiguous upstream.
func FormatDataflowIdentifier(flow DataFlow) string {
	return fmt.Sprintf("%s,%s,%s", flow.AgencyID, flow.ID, flow.Version)
}
