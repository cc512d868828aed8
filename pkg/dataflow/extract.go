package dataflow

// ExtractDataFlows pulls dataflow records out of a parsed structure
// document. A structurally absent listing yields an empty slice: "zero
// dataflows published" and "listing element missing" are indistinguishable
// here and both are non-fatal. Missing Name/Description text defaults to
// the empty string; the Structure field is only emitted when a complete
// Structure.Ref sub-element is present.
func ExtractDataFlows(tree map[string]interface{}) []DataFlow {
	dataflows := childMap(childMap(childMap(tree, "Structure"), "Structures"), "Dataflows")

	elements := asSlice(dataflows["Dataflow"])
	flows := make([]DataFlow, 0, len(elements))
	for _, element := range elements {
		node, ok := element.(map[string]interface{})
		if !ok {
			continue
		}

		flow := DataFlow{
			ID:          stringValue(node["id"]),
			AgencyID:    stringValue(node["agencyID"]),
			Version:     stringValue(node["version"]),
			Name:        textContent(node["Name"]),
			Description: textContent(node["Description"]),
		}

		if ref := childMap(childMap(node, "Structure"), "Ref"); ref != nil {
			flow.Structure = &StructureRef{
				ID:       stringValue(ref["id"]),
				Version:  stringValue(ref["version"]),
				AgencyID: stringValue(ref["agencyID"]),
			}
		}

		flows = append(flows, flow)
	}

	return flows
}

// asSlice normalizes the scalar-or-sequence XML decoding quirk: a single
// child element decodes to a bare map, which is promoted here to a
// one-element slice so the ambiguity never leaks past extraction.
func asSlice(v interface{}) []interface{} {
	switch node := v.(type) {
	case nil:
		return nil
	case []interface{}:
		return node
	default:
		return []interface{}{node}
	}
}

// childMap returns the named child when it is a map, nil otherwise
func childMap(node map[string]interface{}, key string) map[string]interface{} {
	if node == nil {
		return nil
	}
	child, _ := node[key].(map[string]interface{})
	return child
}

// stringValue returns v when it is a string, "" otherwise
func stringValue(v interface{}) string {
	s, _ := v.(string)
	return s
}

// textContent extracts the text of a text-bearing element. The element may
// decode as a bare string, as a map with a "#text" key (when it carries
// attributes such as xml:lang), or as a slice of per-language variants, in
// which case the English variant is preferred.
func textContent(v interface{}) string {
	switch node := v.(type) {
	case string:
		return node
	case map[string]interface{}:
		return stringValue(node["#text"])
	case []interface{}:
		for _, variant := range node {
			if m, ok := variant.(map[string]interface{}); ok && stringValue(m["lang"]) == "en" {
				return stringValue(m["#text"])
			}
		}
		if len(node) > 0 {
			return textContent(node[0])
		}
	}
	return ""
}
