// Package material implements the material registry: an ordered list of
// materials with per-id attributes, loaded once from a manifest, plus a
// 128-byte type LUT for O(1) hot-path solid/transparent/liquid checks.
package material

import (
	"encoding/json"
	"fmt"
	"os"
)

// Type classifies a material for meshing slot assignment and lighting.
type Type uint8

const (
	TypeSolid Type = iota
	TypeTransparent
	TypeLiquid
)

func (t Type) String() string {
	switch t {
	case TypeSolid:
		return "solid"
	case TypeTransparent:
		return "transparent"
	case TypeLiquid:
		return "liquid"
	default:
		return "unknown"
	}
}

// Definition is one entry in the manifest.
type Definition struct {
	Name   string `json:"name"`
	Color  string `json:"color"` // hex, e.g. "#7CFC00"
	Type   Type   `json:"type"`
	Repeat float32 `json:"repeat,omitempty"`
}

// manifestFile mirrors the on-disk JSON shape described in the spec:
// { materials, colors, types, indices }.
type manifestFile struct {
	Materials []string          `json:"materials"`
	Colors    []string          `json:"colors"`
	Types     map[string]string `json:"types"` // name -> "solid"|"transparent"|"liquid"
	Indices   map[string]int    `json:"indices"`
}

// Registry is the immutable, loaded-once set of materials.
type Registry struct {
	defs []Definition // indexed by material id
	lut  [128]Type
}

// Default returns a small built-in registry (air + a handful of terrain/
// stamp materials) sufficient to run without a manifest file.
func Default() *Registry {
	defs := []Definition{
		{Name: "air", Color: "#00000000", Type: TypeTransparent},
		{Name: "stone", Color: "#8A8A8A", Type: TypeSolid},
		{Name: "dirt", Color: "#6B4A2E", Type: TypeSolid},
		{Name: "grass", Color: "#4C9A2A", Type: TypeSolid},
		{Name: "water", Color: "#2E6FAD", Type: TypeLiquid, Repeat: 4},
		{Name: "glass", Color: "#CFE9FF", Type: TypeTransparent},
		{Name: "sand", Color: "#D8C98A", Type: TypeSolid},
		{Name: "snow", Color: "#F4F8FF", Type: TypeSolid},
		{Name: "brick", Color: "#A13B2B", Type: TypeSolid},
		{Name: "clay", Color: "#9C8E7A", Type: TypeSolid},
		{Name: "log", Color: "#5B3A21", Type: TypeSolid},
		{Name: "leaves", Color: "#2F6B2B", Type: TypeTransparent},
		{Name: "plank", Color: "#B08B52", Type: TypeSolid},
	}
	return build(defs)
}

// LoadManifest loads a registry from a JSON manifest file on disk.
func LoadManifest(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("material: read manifest %s: %w", path, err)
	}
	var mf manifestFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return nil, fmt.Errorf("material: parse manifest %s: %w", path, err)
	}
	if len(mf.Materials) != len(mf.Colors) {
		return nil, fmt.Errorf("material: manifest %s has mismatched materials/colors lengths", path)
	}

	defs := make([]Definition, len(mf.Materials))
	for i, name := range mf.Materials {
		typ := TypeSolid
		switch mf.Types[name] {
		case "transparent":
			typ = TypeTransparent
		case "liquid":
			typ = TypeLiquid
		}
		defs[i] = Definition{Name: name, Color: mf.Colors[i], Type: typ}
	}
	return build(defs), nil
}

func build(defs []Definition) *Registry {
	r := &Registry{defs: defs}
	for id, d := range defs {
		if id < len(r.lut) {
			r.lut[id] = d.Type
		}
	}
	return r
}

// Len returns the number of registered materials.
func (r *Registry) Len() int { return len(r.defs) }

// TypeOf returns the type of a material id via the O(1) LUT. Ids outside
// the registered range are treated as solid (a defensive default; the
// build handler rejects unregistered ids before this is ever reached on a
// hot path).
func (r *Registry) TypeOf(id uint8) Type {
	if int(id) < len(r.lut) {
		return r.lut[id]
	}
	return TypeSolid
}

// IsRegistered reports whether id names a known material.
func (r *Registry) IsRegistered(id uint8) bool {
	return int(id) < len(r.defs)
}

// Definition returns the full definition for a material id.
func (r *Registry) Definition(id uint8) (Definition, bool) {
	if !r.IsRegistered(id) {
		return Definition{}, false
	}
	return r.defs[id], true
}

// LUT returns a copy of the 128-entry type lookup table.
func (r *Registry) LUT() [128]Type {
	return r.lut
}
