package rendercore

import "strings"

// Flags are immutable context creation flags.
type Flags uint32

const (
	// FlagAntialiasLines requests anti-aliased line rasterization.
	FlagAntialiasLines Flags = 1 << iota
	// FlagValidation enables native API validation layers where available.
	FlagValidation
	// FlagDebugLabels forwards resource and pass labels to the native API.
	FlagDebugLabels
)

// Has reports whether all bits of f are set.
func (fl Flags) Has(f Flags) bool {
	return fl&f == f
}

// String lists the set flags separated by '|'.
func (fl Flags) String() string {
	if fl == 0 {
		return "none"
	}
	var parts []string
	if fl.Has(FlagAntialiasLines) {
		parts = append(parts, "antialias-lines")
	}
	if fl.Has(FlagValidation) {
		parts = append(parts, "validation")
	}
	if fl.Has(FlagDebugLabels) {
		parts = append(parts, "debug-labels")
	}
	return strings.Join(parts, "|")
}
