package manifest

import (
	"encoding/json"
	"errors"

	"cursor-keeper/internal/logger"
)

/**
 *	One published version and its per-platform download addresses
 */
type Entry struct {
	Version   string            `json:"version"`
	Platforms map[string]string `json:"platforms"`
}

/**
 *	Remote version history document. Other top-level fields are ignored.
 */
type Manifest struct {
	Versions []Entry `json:"versions"`
}

var errNotObject = errors.New("manifest is not a JSON object")

/**
 * Parse a manifest document
 * @param {[]byte} data - Raw document bytes
 * @returns {*Manifest, error} Error when data is not a JSON object or "versions" is not a list
 * @description
 * - Malformed entries are skipped one by one, the rest of the history stays usable
 * - Platform addresses that are not strings are dropped from their entry
 */
func Decode(data []byte) (*Manifest, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errNotObject
	}
	m := &Manifest{}
	raw, ok := doc["versions"]
	if !ok {
		return m, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	for i, item := range items {
		e, ok := decodeEntry(item)
		if !ok {
			logger.Debugf("Skip malformed manifest entry #%d: %s", i, string(item))
			continue
		}
		m.Versions = append(m.Versions, e)
	}
	return m, nil
}

func decodeEntry(item json.RawMessage) (Entry, bool) {
	var e struct {
		Version   string                     `json:"version"`
		Platforms map[string]json.RawMessage `json:"platforms"`
	}
	if err := json.Unmarshal(item, &e); err != nil || e.Version == "" {
		return Entry{}, false
	}
	entry := Entry{Version: e.Version, Platforms: make(map[string]string, len(e.Platforms))}
	for key, val := range e.Platforms {
		var url string
		if json.Unmarshal(val, &url) == nil && url != "" {
			entry.Platforms[key] = url
		}
	}
	return entry, true
}

// URL returns the download address of version for key, false if either is missing.
func (m *Manifest) URL(version, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, e := range m.Versions {
		if e.Version != version {
			continue
		}
		if url := e.Platforms[key]; url != "" {
			return url, true
		}
	}
	return "", false
}
