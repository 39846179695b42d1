package aikey

import "strings"

// CompareVersions compares two dotted version strings and returns -1, 0 or 1.
//
// Both strings are split on '.', the shorter one is right-padded with "0"
// components, and components are compared pairwise with the leftmost one most
// significant. Each component contributes its comparison weighted by a power of
// two, so a difference in one component outweighs every component after it, and
// the sign of the sum is returned. Components are opaque strings compared
// bytewise, so "1.10" sorts below "1.9".
func CompareVersions(v1, v2 string) int {
	parts1 := strings.Split(v1, ".")
	parts2 := strings.Split(v2, ".")

	n := len(parts1)
	if len(parts2) > n {
		n = len(parts2)
	}
	parts1 = pad(parts1, n)
	parts2 = pad(parts2, n)

	diff := int64(0)
	for i := 0; i < n; i++ {
		c := strings.Compare(parts1[i], parts2[i])
		if c == 0 {
			continue
		}
		// Weights past 2^61 would overflow; the leftmost difference decides.
		shift := n - 1 - i
		if shift > 61 {
			return c
		}
		diff += int64(c) << uint(shift)
	}

	switch {
	case diff < 0:
		return -1
	case diff > 0:
		return 1
	default:
		return 0
	}
}

func pad(parts []string, n int) []string {
	for len(parts) < n {
		parts = append(parts, "0")
	}
	return parts
}

// ResolveInterface returns the candidate named shortName whose version is the
// closest one at or above minVersion, or the unspecified key if none qualifies.
func ResolveInterface(shortName, minVersion string, candidates []InterfaceKey) InterfaceKey {
	var best InterfaceKey
	found := false
	for _, c := range candidates {
		if c.ShortName != shortName || CompareVersions(c.Version, minVersion) < 0 {
			continue
		}
		if !found || CompareVersions(c.Version, best.Version) < 0 {
			best = c
			found = true
		}
	}
	return best
}

// ResolveAI is ResolveInterface for Skirmish AI keys.
func ResolveAI(shortName, minVersion string, candidates []AIKey) AIKey {
	var best AIKey
	found := false
	for _, c := range candidates {
		if c.ShortName != shortName || CompareVersions(c.Version, minVersion) < 0 {
			continue
		}
		if !found || CompareVersions(c.Version, best.Version) < 0 {
			best = c
			found = true
		}
	}
	return best
}
