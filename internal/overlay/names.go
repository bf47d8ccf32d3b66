package overlay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LoadLabelNames looks for a sidecar JSON with human-readable label names
// next to the mask. Candidates, in order:
//
//	<mask>.labels.json   (mask.nii.gz.labels.json)
//	<stem>.labels.json   (mask.labels.json)
//	<stem>.json          (mask.json)
//
// Accepted shapes are a flat {"1": "liver"} object or the same object
// nested under a "labels" key. Missing or malformed sidecars yield an empty
// map, never an error.
func LoadLabelNames(maskPath string) map[int32]string {
	stem := maskPath
	if strings.HasSuffix(strings.ToLower(stem), ".nii.gz") {
		stem = stem[:len(stem)-7]
	} else {
		stem = strings.TrimSuffix(stem, filepath.Ext(stem))
	}

	candidates := []string{
		maskPath + ".labels.json",
		stem + ".labels.json",
		stem + ".json",
	}

	for _, js := range candidates {
		raw, err := os.ReadFile(js)
		if err != nil {
			continue
		}
		if names := ParseLabelNames(raw); len(names) > 0 {
			return names
		}
	}
	return map[int32]string{}
}

// ParseLabelNames decodes one sidecar document. Non-integer keys and blank
// values are skipped rather than rejecting the whole document.
func ParseLabelNames(raw []byte) map[int32]string {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return map[int32]string{}
	}

	if nested, ok := doc["labels"]; ok {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(nested, &inner); err == nil {
			doc = inner
		}
	}

	out := make(map[int32]string, len(doc))
	for k, v := range doc {
		id, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		var name string
		if err := json.Unmarshal(v, &name); err != nil {
			continue
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out[int32(id)] = name
	}
	return out
}
