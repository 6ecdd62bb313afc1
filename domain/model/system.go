package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// SystemKey identifies a generation system by tag and variant, e.g.
// "musicgen:large". Neither component may contain ':'.
type SystemKey struct {
	SystemTag  string
	VariantTag string
}

// NewSystemKey validates the colon-free invariant from SystemKey.__post_init__.
func NewSystemKey(systemTag, variantTag string) (SystemKey, error) {
	if strings.Contains(systemTag, ":") {
		return SystemKey{}, fmt.Errorf("system tag cannot contain ':'")
	}
	if strings.Contains(variantTag, ":") {
		return SystemKey{}, fmt.Errorf("variant tag cannot contain ':'")
	}
	return SystemKey{SystemTag: systemTag, VariantTag: variantTag}, nil
}

// String renders "tag:variant", matching SystemKey.as_string.
func (k SystemKey) String() string {
	return k.SystemTag + ":" + k.VariantTag
}

// ParseSystemKey parses "tag:variant", matching SystemKey.from_string.
func ParseSystemKey(s string) (SystemKey, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return SystemKey{}, fmt.Errorf("invalid system key %q: expected \"tag:variant\"", s)
	}
	return NewSystemKey(parts[0], parts[1])
}

// systemKeyWire is SystemKey's JSON shape:
// {"system_tag": ..., "variant_tag": ...}.
type systemKeyWire struct {
	SystemTag  string `json:"system_tag"`
	VariantTag string `json:"variant_tag"`
}

func (k SystemKey) MarshalJSON() ([]byte, error) {
	return marshalJSON(systemKeyWire{SystemTag: k.SystemTag, VariantTag: k.VariantTag})
}

func (k *SystemKey) UnmarshalJSON(b []byte) error {
	var w systemKeyWire
	if err := unmarshalJSON(b, &w); err != nil {
		return err
	}
	parsed, err := NewSystemKey(w.SystemTag, w.VariantTag)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// SystemAccess classifies how a system may be operated.
type SystemAccess string

const (
	SystemAccessOpen        SystemAccess = "OPEN"
	SystemAccessProprietary SystemAccess = "PROPRIETARY"
)

// SystemMetadata is the subset of TextToMusicSystemMetadata relevant to
// battle orchestration; the Docker/dynamic-module-loading fields from the
// original (registry_dir, module_name, class_name, docker_base, secrets,
// init_kwargs, training_data, citation) are out of this module's scope.
type SystemMetadata struct {
	Key            SystemKey         `json:"key" yaml:"key"`
	DisplayName    string            `json:"display_name" yaml:"display_name"`
	Description    string            `json:"description" yaml:"description"`
	Organization   string            `json:"organization" yaml:"organization"`
	Access         SystemAccess      `json:"access" yaml:"access"`
	SupportsLyrics bool              `json:"supports_lyrics" yaml:"supports_lyrics"`
	RequiresGPU    *bool             `json:"requires_gpu,omitempty" yaml:"requires_gpu,omitempty"`
	Links          map[string]string `json:"links,omitempty" yaml:"links,omitempty"`
}

// NewSystemMetadata defaults RequiresGPU the way
// TextToMusicSystemMetadata.__post_init__ does: true for OPEN access,
// false for PROPRIETARY, unless explicitly overridden.
func NewSystemMetadata(m SystemMetadata) SystemMetadata {
	if m.RequiresGPU == nil {
		v := m.Access == SystemAccessOpen
		m.RequiresGPU = &v
	}
	return m
}

// PrimaryLink returns the first of home/paper/code present in Links, or
// an arbitrary link if none of those keys are set, matching
// TextToMusicSystemMetadata.primary_link.
func (m SystemMetadata) PrimaryLink() string {
	if len(m.Links) == 0 {
		return ""
	}
	for _, k := range []string{"home", "paper", "code"} {
		if v, ok := m.Links[k]; ok {
			return v
		}
	}
	for _, v := range m.Links {
		return v
	}
	return ""
}

// registryEntry is the on-disk YAML shape for one system. Variants share
// the parent's display/description/organization/access and list their own
// variant_tag + supports_lyrics + links overrides.
type registryEntry struct {
	SystemTag    string       `yaml:"system_tag"`
	DisplayName  string       `yaml:"display_name"`
	Description  string       `yaml:"description"`
	Organization string       `yaml:"organization"`
	Access       SystemAccess `yaml:"access"`
	Variants     []struct {
		VariantTag     string            `yaml:"variant_tag"`
		SupportsLyrics bool              `yaml:"supports_lyrics"`
		Links          map[string]string `yaml:"links"`
	} `yaml:"variants"`
}

// LoadRegistry loads a static system registry from a YAML file, grounded
// on music_arena/registry.py's YAML-backed registry (the dynamic
// module-loading half of that file is out of scope here; only the
// metadata catalog survives).
func LoadRegistry(path string) (map[SystemKey]SystemMetadata, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading registry %s: %w", path, err)
	}
	var entries []registryEntry
	if err := yaml.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("parsing registry %s: %w", path, err)
	}
	out := make(map[SystemKey]SystemMetadata)
	for _, e := range entries {
		for _, v := range e.Variants {
			key, err := NewSystemKey(e.SystemTag, v.VariantTag)
			if err != nil {
				return nil, fmt.Errorf("registry %s: %w", path, err)
			}
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("registry %s: duplicate system key %s", path, key)
			}
			out[key] = NewSystemMetadata(SystemMetadata{
				Key:            key,
				DisplayName:    e.DisplayName,
				Description:    e.Description,
				Organization:   e.Organization,
				Access:         e.Access,
				SupportsLyrics: v.SupportsLyrics,
				Links:          v.Links,
			})
		}
	}
	return out, nil
}

// DefaultSystemPort derives a stable port in [15000, 25000) from a
// system key, ported verbatim from music_arena/docker.py's system_port so
// that deployments without an explicit --systems port mapping still get
// deterministic, collision-resistant worker ports.
func DefaultSystemPort(key SystemKey) int {
	raw := []byte(key.SystemTag + "." + key.VariantTag)
	return 15000 + int(sha256Uint64(raw)%10000)
}
