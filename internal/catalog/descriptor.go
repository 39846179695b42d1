package catalog

import (
	"fmt"
	"os"
	"sort"

	"github.com/dyluth/skirmish/internal/aikey"
	"gopkg.in/yaml.v3"
)

// Descriptor file names looked for in each module directory.
const (
	InterfaceInfoFile = "InterfaceInfo.yaml"
	AIInfoFile        = "AIInfo.yaml"
	AIOptionsFile     = "AIOptions.yaml"

	// CommonDirName is the sibling directory holding data shared by all
	// versions of a module.
	CommonDirName = "common"
)

// Well-known descriptor property keys.
const (
	PropShortName          = "shortName"
	PropVersion            = "version"
	PropName               = "name"
	PropDescription        = "description"
	PropURL                = "url"
	PropLibrary            = "library"
	PropInterfaceShortName = "interfaceShortName"
	PropInterfaceVersion   = "interfaceVersion"
	PropDataDir            = "dataDir"
	PropDataDirCommon      = "dataDirCommon"
)

// Descriptor holds the metadata parsed from one descriptor file.
// Descriptors are immutable once the catalog that owns them is built.
type Descriptor struct {
	Path          string            `json:"path"`            // Descriptor file the properties came from
	DataDir       string            `json:"data_dir"`        // Private data directory (the descriptor's directory)
	CommonDataDir string            `json:"common_data_dir"` // Shared data directory, empty when absent
	Properties    map[string]string `json:"properties"`      // Every key/value of the descriptor plus derived fields
}

func (d *Descriptor) prop(key string) string { return d.Properties[key] }

func (d *Descriptor) ShortName() string   { return d.prop(PropShortName) }
func (d *Descriptor) Version() string     { return d.prop(PropVersion) }
func (d *Descriptor) Name() string        { return d.prop(PropName) }
func (d *Descriptor) Description() string { return d.prop(PropDescription) }
func (d *Descriptor) URL() string         { return d.prop(PropURL) }

// Library returns the library reference override, or "" for the platform default.
func (d *Descriptor) Library() string { return d.prop(PropLibrary) }

// Info returns a copy of the descriptor properties.
func (d *Descriptor) Info() map[string]string {
	info := make(map[string]string, len(d.Properties))
	for k, v := range d.Properties {
		info[k] = v
	}
	return info
}

// InterfaceDescriptor describes one installed AI Interface version.
type InterfaceDescriptor struct {
	Descriptor
	Key aikey.InterfaceKey `json:"key"`
}

// AIDescriptor describes one installed Skirmish AI version.
type AIDescriptor struct {
	Descriptor
	Key aikey.AIKey `json:"key"`

	// Requested is the parent interface as declared by the descriptor; Key.Interface
	// is the concrete interface it was resolved to.
	Requested aikey.InterfaceKey `json:"requested_interface"`

	Options *OptionsSchema `json:"options,omitempty"`
}

// ParseProperties reads a flat YAML mapping into key/value properties.
// Scalar values are kept verbatim, so "1.10" stays "1.10".
func ParseProperties(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read descriptor: %w", err)
	}

	var nodes map[string]yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	props := make(map[string]string, len(nodes))
	for key, node := range nodes {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("property '%s' must be a scalar value", key)
		}
		props[key] = node.Value
	}
	return props, nil
}

// validateIdentity applies the shortName/version constraints.
func validateIdentity(props map[string]string) error {
	if err := aikey.ValidateToken(PropShortName, props[PropShortName]); err != nil {
		return err
	}
	return aikey.ValidateToken(PropVersion, props[PropVersion])
}

// PropertyKeys returns the descriptor's property names in sorted order.
func (d *Descriptor) PropertyKeys() []string { return sortedKeys(d.Properties) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
