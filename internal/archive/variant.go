// Package archive plans and runs the per-variant archive builds of a build
// product and merges their outputs into one universal framework bundle.
package archive

import (
	"fmt"
	"sort"
	"strings"
)

// Variant is one target platform (SDK) a product is archived for.
type Variant struct {
	ID          string
	SDK         string
	Destination string
}

var variants = map[string]Variant{
	"ios":                {ID: "ios", SDK: "iphoneos", Destination: "generic/platform=iOS"},
	"ios-simulator":      {ID: "ios-simulator", SDK: "iphonesimulator", Destination: "generic/platform=iOS Simulator"},
	"macos":              {ID: "macos", SDK: "macosx", Destination: "generic/platform=macOS"},
	"maccatalyst":        {ID: "maccatalyst", SDK: "macosx", Destination: "generic/platform=macOS,variant=Mac Catalyst"},
	"tvos":               {ID: "tvos", SDK: "appletvos", Destination: "generic/platform=tvOS"},
	"tvos-simulator":     {ID: "tvos-simulator", SDK: "appletvsimulator", Destination: "generic/platform=tvOS Simulator"},
	"watchos":            {ID: "watchos", SDK: "watchos", Destination: "generic/platform=watchOS"},
	"watchos-simulator":  {ID: "watchos-simulator", SDK: "watchsimulator", Destination: "generic/platform=watchOS Simulator"},
	"visionos":           {ID: "visionos", SDK: "xros", Destination: "generic/platform=visionOS"},
	"visionos-simulator": {ID: "visionos-simulator", SDK: "xrsimulator", Destination: "generic/platform=visionOS Simulator"},
}

// LookupVariant returns the variant with the given identifier.
func LookupVariant(id string) (Variant, error) {
	v, ok := variants[id]
	if !ok {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, id)
	}
	return v, nil
}

// ResolveVariant returns the known variant with the given identifier. Any
// other identifier names an xcodebuild platform directly and is archived for
// "generic/platform=<id>". An identifier that cannot name an archive
// directory fails.
func ResolveVariant(id string) (Variant, error) {
	if v, ok := variants[id]; ok {
		return v, nil
	}
	if strings.TrimSpace(id) == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return Variant{}, fmt.Errorf("%w: %q", ErrUnknownVariant, id)
	}
	return Variant{ID: id, Destination: "generic/platform=" + id}, nil
}

// VariantIDs lists every known variant identifier, sorted.
func VariantIDs() []string {
	ids := make([]string, 0, len(variants))
	for id := range variants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
