package sdmx

// Format identifies the wire format requested for observation data. The
// upstream API ties the response schema to the declared format, so the
// Accept header is always derived from it (see AcceptHeader) rather than
// set per call.
type Format string

const (
	// FormatCSVWithLabels is CSV with human-readable labels
	FormatCSVWithLabels Format = "csvfilewithlabels"

	// FormatCSV is plain CSV
	FormatCSV Format = "csvfile"

	// FormatJSONData is SDMX-JSON data
	FormatJSONData Format = "jsondata"

	// FormatGenericData is SDMX generic XML data
	FormatGenericData Format = "genericdata"

	// FormatStructureSpecificData is SDMX structure-specific XML data
	FormatStructureSpecificData Format = "structurespecificdata"
)

// Media types accepted by the ABS SDMX API
const (
	mediaTypeCSV               = "text/csv"
	mediaTypeJSONData          = "application/vnd.sdmx.data+json"
	mediaTypeGenericData       = "application/vnd.sdmx.genericdata+xml;version=2.1"
	mediaTypeStructureSpecific = "application/vnd.sdmx.structurespecificdata+xml;version=2.1"
	mediaTypeStructure         = "application/vnd.sdmx.structure+xml;version=2.1"
)

// AcceptHeader returns the media type to request for this format. Unknown
// or empty formats fall back to generic XML data.
func (f Format) AcceptHeader() string {
	switch f {
	case FormatCSVWithLabels, FormatCSV:
		return mediaTypeCSV
	case FormatJSONData:
		return mediaTypeJSONData
	case FormatStructureSpecificData:
		return mediaTypeStructureSpecific
	default:
		return mediaTypeGenericData
	}
}

// IsCSV reports whether the format is a CSV variant, whose response body
// is returned raw rather than parsed.
func (f Format) IsCSV() bool {
	return f == FormatCSVWithLabels || f == FormatCSV
}

// Detail controls the richness of an observation data response
type Detail string

const (
	// DetailFull returns data and all attributes
	DetailFull Detail = "full"

	// DetailDataOnly excludes attributes
	DetailDataOnly Detail = "dataonly"

	// DetailSeriesKeysOnly returns only the series keys
	DetailSeriesKeysOnly Detail = "serieskeysonly"

	// DetailNoData returns attributes without observations
	DetailNoData Detail = "nodata"
)

// StructureDetail controls the richness of a structure query response
type StructureDetail string

const (
	StructureDetailFull                   StructureDetail = "full"
	StructureDetailAllStubs               StructureDetail = "allstubs"
	StructureDetailReferenceStubs         StructureDetail = "referencestubs"
	StructureDetailReferencePartial       StructureDetail = "referencepartial"
	StructureDetailAllCompleteStubs       StructureDetail = "allcompletestubs"
	StructureDetailReferenceCompleteStubs StructureDetail = "referencecompletestubs"
)

// References controls which related artefacts a structure query returns.
// Besides the enumerated values, a structure type name (e.g. "codelist")
// is accepted by the upstream API.
type References string

const (
	ReferencesNone               References = "none"
	ReferencesParents            References = "parents"
	ReferencesParentsAndSiblings References = "parentsandsiblings"
	ReferencesChildren           References = "children"
	ReferencesDescendants        References = "descendants"
	ReferencesAll                References = "all"
)

// QueryOptions configures an observation data request. Zero values are
// omitted from the query string; an unset Format defaults to SDMX-JSON.
type QueryOptions struct {
	// StartPeriod is the inclusive lower period bound (ISO period form)
	StartPeriod string `json:"startPeriod,omitempty"`

	// EndPeriod is the inclusive upper period bound (ISO period form)
	EndPeriod string `json:"endPeriod,omitempty"`

	// Format selects the response wire format
	Format Format `json:"format,omitempty"`

	// Detail controls payload richness
	Detail Detail `json:"detail,omitempty"`

	// DimensionAtObservation controls the response shape: "TIME_PERIOD",
	// "AllDimensions", or a dimension name
	DimensionAtObservation string `json:"dimensionAtObservation,omitempty"`
}

// queryParams returns the recognized options as query parameters, with the
// format defaulted to SDMX-JSON when unset.
func (o *QueryOptions) queryParams() map[string]string {
	params := make(map[string]string)

	format := FormatJSONData
	if o != nil {
		if o.StartPeriod != "" {
			params["startPeriod"] = o.StartPeriod
		}
		if o.EndPeriod != "" {
			params["endPeriod"] = o.EndPeriod
		}
		if o.Detail != "" {
			params["detail"] = string(o.Detail)
		}
		if o.DimensionAtObservation != "" {
			params["dimensionAtObservation"] = o.DimensionAtObservation
		}
		if o.Format != "" {
			format = o.Format
		}
	}
	params["format"] = string(format)

	return params
}

// EffectiveFormat returns the format the request will use after defaulting
func (o *QueryOptions) EffectiveFormat() Format {
	if o == nil || o.Format == "" {
		return FormatJSONData
	}
	return o.Format
}
