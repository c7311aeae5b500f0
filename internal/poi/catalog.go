// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 ClaimWarden Contributors

// Package poi provides the static POI catalog and the free-text name resolver.
package poi

import (
	_ "embed"
	"os"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/claimwarden/claimwarden/internal/geo"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Error codes for catalog loading failures.
const (
	CodeInvalidCatalog     = "INVALID_CATALOG"
	CodeUnsupportedVersion = "UNSUPPORTED_CATALOG_VERSION"
)

// SupportedFormat is the catalog format_version constraint this build reads.
const SupportedFormat = "^1.0"

// Zone is the claim-enforcement geometry of a POI.
type Zone struct {
	Center     geo.Vec2 `yaml:"center" json:"center"`
	KickRadius float64  `yaml:"kick_radius" json:"kick_radius" jsonschema:"minimum=1"`
	Safe       geo.Vec3 `yaml:"safe" json:"safe"`
}

// Definition describes a single POI. Definitions are read-only once the
// catalog is built.
type Definition struct {
	ID        string   `yaml:"id" json:"id" jsonschema:"pattern=^[a-z0-9]+(-[a-z0-9]+)*$"`
	Name      string   `yaml:"name" json:"name" jsonschema:"minLength=1"`
	ShortName string   `yaml:"short_name,omitempty" json:"short_name,omitempty"`
	Tier      int      `yaml:"tier,omitempty" json:"tier,omitempty" jsonschema:"minimum=0,maximum=5"`
	Extended  bool     `yaml:"extended,omitempty" json:"extended,omitempty"`
	Dynamic   bool     `yaml:"dynamic,omitempty" json:"dynamic,omitempty"`
	Aliases   []string `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Zone      *Zone    `yaml:"zone,omitempty" json:"zone,omitempty"`
}

// DisplayName returns the short listing name, falling back to the canonical name.
func (d *Definition) DisplayName() string {
	if d.ShortName != "" {
		return d.ShortName
	}
	return d.Name
}

// HasZone reports whether the POI has enforceable geometry.
func (d *Definition) HasZone() bool {
	return d.Zone != nil
}

// Document is the on-disk catalog format.
type Document struct {
	FormatVersion string       `yaml:"format_version" json:"format_version" jsonschema:"minLength=1"`
	POIs          []Definition `yaml:"pois" json:"pois" jsonschema:"minItems=1"`
}

// Catalog is an immutable, ordered set of POI definitions.
type Catalog struct {
	defs []*Definition
	byID map[string]*Definition
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// LoadFile reads and parses a catalog file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator-supplied path
	if err != nil {
		return nil, oops.Code(CodeInvalidCatalog).With("path", path).Wrap(err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, oops.With("path", path).Wrap(err)
	}
	return c, nil
}

// Parse validates a YAML catalog document and builds a Catalog from it.
func Parse(data []byte) (*Catalog, error) {
	if err := ValidateSchema(data); err != nil {
		return nil, oops.Code(CodeInvalidCatalog).Wrap(err)
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, oops.Code(CodeInvalidCatalog).Wrap(err)
	}

	if err := checkFormatVersion(doc.FormatVersion); err != nil {
		return nil, err
	}

	return New(doc.POIs)
}

func checkFormatVersion(v string) error {
	version, err := semver.NewVersion(v)
	if err != nil {
		return oops.Code(CodeUnsupportedVersion).With("format_version", v).Wrap(err)
	}
	constraint, err := semver.NewConstraint(SupportedFormat)
	if err != nil {
		return oops.Code(CodeUnsupportedVersion).Wrap(err)
	}
	if !constraint.Check(version) {
		return oops.Code(CodeUnsupportedVersion).
			With("format_version", v).
			With("supported", SupportedFormat).
			Errorf("catalog format %s is not supported", v)
	}
	return nil
}

// New builds a catalog and checks the rules a schema cannot express:
// unique ids, unique aliases, and zones present exactly on static POIs.
func New(defs []Definition) (*Catalog, error) {
	c := &Catalog{
		defs: make([]*Definition, 0, len(defs)),
		byID: make(map[string]*Definition, len(defs)),
	}
	aliases := make(map[string]string)

	for i := range defs {
		d := defs[i]
		if d.ID == "" || strings.TrimSpace(d.Name) == "" {
			return nil, oops.Code(CodeInvalidCatalog).With("index", i).Errorf("poi needs an id and a name")
		}
		if _, dup := c.byID[d.ID]; dup {
			return nil, oops.Code(CodeInvalidCatalog).With("poi", d.ID).Errorf("duplicate poi id %q", d.ID)
		}
		if d.Dynamic && d.Zone != nil {
			return nil, oops.Code(CodeInvalidCatalog).With("poi", d.ID).Errorf("dynamic poi %q cannot have a zone", d.ID)
		}
		if !d.Dynamic && d.Zone == nil {
			return nil, oops.Code(CodeInvalidCatalog).With("poi", d.ID).Errorf("static poi %q needs a zone", d.ID)
		}
		if d.Zone != nil && d.Zone.KickRadius <= 0 {
			return nil, oops.Code(CodeInvalidCatalog).With("poi", d.ID).Errorf("poi %q kick radius must be positive", d.ID)
		}

		normalized := make([]string, 0, len(d.Aliases))
		for _, a := range d.Aliases {
			key := Normalize(a)
			if key == "" {
				continue
			}
			if owner, dup := aliases[key]; dup {
				return nil, oops.Code(CodeInvalidCatalog).
					With("poi", d.ID).
					With("alias", key).
					Errorf("alias %q already used by %q", key, owner)
			}
			aliases[key] = d.ID
			normalized = append(normalized, key)
		}
		d.Aliases = normalized

		c.defs = append(c.defs, &d)
		c.byID[d.ID] = &d
	}

	return c, nil
}

// Get returns the definition with the given id.
func (c *Catalog) Get(id string) (*Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns every definition in catalog order.
func (c *Catalog) All() []*Definition {
	out := make([]*Definition, len(c.defs))
	copy(out, c.defs)
	return out
}

// Zoned returns the definitions that have enforceable geometry, in catalog order.
func (c *Catalog) Zoned() []*Definition {
	out := make([]*Definition, 0, len(c.defs))
	for _, d := range c.defs {
		if d.HasZone() {
			out = append(out, d)
		}
	}
	return out
}

// Len returns the number of POIs.
func (c *Catalog) Len() int {
	return len(c.defs)
}
