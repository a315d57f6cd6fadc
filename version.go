package rendercore

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a major.minor.patch triple used for native API versions.
type Version struct {
	Major uint
	Minor uint
	Patch uint
}

// VersionFromSlice builds a Version from up to three components.
// Missing components are zero. Four or more components are rejected.
func VersionFromSlice(v []uint) (Version, bool) {
	if len(v) > 3 {
		return Version{}, false
	}
	var out Version
	if len(v) > 0 {
		out.Major = v[0]
	}
	if len(v) > 1 {
		out.Minor = v[1]
	}
	if len(v) > 2 {
		out.Patch = v[2]
	}
	return out, true
}

// ParseVersion extracts the first dotted version number from a native
// version string such as "1.5 Mesa 23.1" or "OpenGL ES 3.2 NVIDIA 535".
func ParseVersion(s string) (Version, error) {
	for _, field := range strings.Fields(s) {
		if field == "" || field[0] < '0' || field[0] > '9' {
			continue
		}
		parts := strings.Split(field, ".")
		if len(parts) > 3 {
			parts = parts[:3]
		}
		comps := make([]uint, 0, len(parts))
		for _, p := range parts {
			end := 0
			for end < len(p) && p[end] >= '0' && p[end] <= '9' {
				end++
			}
			if end == 0 {
				break
			}
			n, err := strconv.ParseUint(p[:end], 10, 32)
			if err != nil {
				return Version{}, fmt.Errorf("rendercore: parse version %q: %w", s, err)
			}
			comps = append(comps, uint(n))
			if end < len(p) {
				break
			}
		}
		v, _ := VersionFromSlice(comps)
		return v, nil
	}
	return Version{}, fmt.Errorf("rendercore: no version number in %q", s)
}

// IsAtLeast compares major, then minor, then patch.
func (v Version) IsAtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor > other.Minor
	}
	return v.Patch >= other.Patch
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}
