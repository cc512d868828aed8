package sdmx

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clbanning/mxj/v2"
)

// Reserved key under which element text content appears in a parsed tree
const textKey = "#text"

func init() {
	// Flatten attributes onto their owning element instead of prefixing
	// them with a hyphen, so "id"/"agencyID"/"version" are addressable
	// directly.
	mxj.PrependAttrWithHyphen(false)
}

// ParseStructureDocument decodes an SDMX XML document into a structural
// tree: a map of element names to nested content, attributes flattened
// onto their owning element, text content under the "#text" key, and
// namespace prefixes stripped from element names.
func ParseStructureDocument(data []byte) (map[string]interface{}, error) {
	mv, err := mxj.NewMapXml(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SDMX XML document: %w", err)
	}
	return stripNamespaces(map[string]interface{}(mv)).(map[string]interface{}), nil
}

// parseJSONDocument decodes an SDMX-JSON document into a structural tree
func parseJSONDocument(data []byte) (map[string]interface{}, error) {
	var tree map[string]interface{}
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse SDMX JSON document: %w", err)
	}
	return tree, nil
}

// stripNamespaces rewrites every map key in the tree with its namespace
// prefix removed ("mes:Structure" becomes "Structure"). The upstream
// documents never reuse a local name across namespaces within one parent,
// so the rewrite is unambiguous.
func stripNamespaces(v interface{}) interface{} {
	switch node := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(node))
		for key, child := range node {
			out[localName(key)] = stripNamespaces(child)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(node))
		for i, child := range node {
			out[i] = stripNamespaces(child)
		}
		return out
	default:
		return v
	}
}

// localName strips a namespace prefix from an element or attribute name
func localName(key string) string {
	if idx := strings.LastIndex(key, ":"); idx >= 0 {
		return key[idx+1:]
	}
	return key
}
