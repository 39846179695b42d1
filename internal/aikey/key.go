// Package aikey provides the identity keys of AI Interfaces and Skirmish AIs and
// the version resolver that matches a requested key to an available one.
package aikey

import (
	"fmt"
	"strings"
)

// InterfaceKey identifies one version of an AI Interface.
// The zero value is the unspecified key.
type InterfaceKey struct {
	ShortName string `json:"short_name"`
	Version   string `json:"version"`
}

// NewInterfaceKey returns a key for the given short name and version.
func NewInterfaceKey(shortName, version string) InterfaceKey {
	return InterfaceKey{ShortName: shortName, Version: version}
}

// IsUnspecified reports whether no interface is named.
func (k InterfaceKey) IsUnspecified() bool {
	return k.ShortName == ""
}

// Less orders keys lexicographically by short name, then version.
func (k InterfaceKey) Less(o InterfaceKey) bool {
	if k.ShortName != o.ShortName {
		return k.ShortName < o.ShortName
	}
	return k.Version < o.Version
}

func (k InterfaceKey) String() string {
	if k.IsUnspecified() {
		return "<unspecified>"
	}
	return fmt.Sprintf("%s %s", k.ShortName, k.Version)
}

// AIKey identifies one version of a Skirmish AI together with the interface
// version it was resolved against.
type AIKey struct {
	ShortName string       `json:"short_name"`
	Version   string       `json:"version"`
	Interface InterfaceKey `json:"interface"`
}

// NewAIKey returns a key for the given AI and parent interface.
func NewAIKey(shortName, version string, iface InterfaceKey) AIKey {
	return AIKey{ShortName: shortName, Version: version, Interface: iface}
}

// IsUnspecified reports whether no AI is named.
func (k AIKey) IsUnspecified() bool {
	return k.ShortName == ""
}

// Less orders keys by short name, version, then interface.
func (k AIKey) Less(o AIKey) bool {
	if k.ShortName != o.ShortName {
		return k.ShortName < o.ShortName
	}
	if k.Version != o.Version {
		return k.Version < o.Version
	}
	return k.Interface.Less(o.Interface)
}

func (k AIKey) String() string {
	if k.IsUnspecified() {
		return "<unspecified>"
	}
	return fmt.Sprintf("%s %s (%s)", k.ShortName, k.Version, k.Interface)
}

// ValidateToken checks a shortName or version value taken from a descriptor.
// kind names the field in the returned error.
func ValidateToken(kind, value string) error {
	if value == "" {
		return fmt.Errorf("%s is required", kind)
	}
	if i := strings.IndexFunc(value, isForbidden); i >= 0 {
		return fmt.Errorf("invalid %s '%s': must not contain whitespace, '_' or '#' (found %q)", kind, value, value[i])
	}
	return nil
}

func isForbidden(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\r', '\v', '\f', '_', '#':
		return true
	}
	return false
}
