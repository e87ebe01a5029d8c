/*
 * This file is subject to the terms and conditions defined in
 * file 'LICENSE.md', which is part of this source code package.
 */

package fontio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// JSONDescriptionLoader is the default DescriptionLoader. spec.md §6
// describes the auxiliary glyph-description file as "a JSON-like table";
// no Lua-table parser appears anywhere in the retrieved library pack (and
// parsing it is explicitly out of scope for the core, spec.md §1), so this
// default treats the file's "descriptions" object as plain JSON. A caller
// fronting genuine Lua-syntax files supplies their own DescriptionLoader
// through Options.Descriptions.
type JSONDescriptionLoader struct{}

// NewJSONDescriptionLoader returns the default DescriptionLoader.
func NewJSONDescriptionLoader() *JSONDescriptionLoader {
	return &JSONDescriptionLoader{}
}

type rawDescriptionFile struct {
	Descriptions map[string]rawDescription `json:"descriptions"`
}

type rawDescription struct {
	Index   uint32          `json:"index"`
	Unicode json.RawMessage `json:"unicode"`
}

// Load implements DescriptionLoader.
func (JSONDescriptionLoader) Load(luaRoot, fontBaseName string) (map[string]GlyphDescription, error) {
	stem := strings.TrimSuffix(fontBaseName, filepath.Ext(fontBaseName))
	name := strings.ToLower(stem) + ".lua"
	path := filepath.Join(luaRoot, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fontio: read glyph description %s: %w", path, err)
	}

	var raw rawDescriptionFile
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("fontio: parse glyph description %s: %w", path, err)
	}

	out := make(map[string]GlyphDescription, len(raw.Descriptions))
	for code, d := range raw.Descriptions {
		gd := GlyphDescription{Index: d.Index}
		if len(d.Unicode) > 0 {
			u, err := decodeUnicodeField(d.Unicode)
			if err != nil {
				return nil, fmt.Errorf("fontio: glyph description %s, code %s: %w", path, code, err)
			}
			gd.Unicode = u
		}
		out[code] = gd
	}
	return out, nil
}

// decodeUnicodeField accepts the "unicode" value as either a single
// integer scalar or an array of integers (a ligature sequence), per
// spec.md §3.
func decodeUnicodeField(raw json.RawMessage) ([]rune, error) {
	var scalar int64
	if err := json.Unmarshal(raw, &scalar); err == nil {
		return []rune{rune(scalar)}, nil
	}

	var seq []int64
	if err := json.Unmarshal(raw, &seq); err != nil {
		return nil, fmt.Errorf("unicode field is neither a scalar nor a sequence: %w", err)
	}
	runes := make([]rune, len(seq))
	for i, v := range seq {
		runes[i] = rune(v)
	}
	return runes, nil
}
