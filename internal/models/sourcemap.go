package models

import (
	"encoding/json"
	"fmt"
)

// SourceMap is a revision 3 source map.
type SourceMap struct {
	Version        int       `json:"version"`
	File           string    `json:"file,omitempty"`
	SourceRoot     string    `json:"sourceRoot,omitempty"`
	Sources        []string  `json:"sources"`
	SourcesContent []*string `json:"sourcesContent,omitempty"`
	Names          []string  `json:"names"`
	Mappings       string    `json:"mappings"`
}

// ParseSourceMap decodes a source map produced by a minifier.
func ParseSourceMap(data []byte) (*SourceMap, error) {
	var sm SourceMap
	if err := json.Unmarshal(data, &sm); err != nil {
		return nil, fmt.Errorf("parsing source map: %w", err)
	}
	if sm.Version != 3 {
		return nil, fmt.Errorf("unsupported source map version %d", sm.Version)
	}
	if sm.Names == nil {
		sm.Names = []string{}
	}
	return &sm, nil
}

// SetSource points the map at a single original file and its content.
func (sm *SourceMap) SetSource(name string, content []byte) {
	c := string(content)
	sm.Sources = []string{name}
	sm.SourcesContent = []*string{&c}
}

// Marshal encodes the map for writing next to its output file.
func (sm *SourceMap) Marshal() ([]byte, error) {
	return json.Marshal(sm)
}
