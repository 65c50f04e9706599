package manifest

import (
	"fmt"
	"strings"
)

// BuildConfiguration selects debug or release settings.
type BuildConfiguration string

const (
	Debug   BuildConfiguration = "Debug"
	Release BuildConfiguration = "Release"
)

// BuildConfigurations lists every configuration in generation order.
var BuildConfigurations = [...]BuildConfiguration{Debug, Release}

// ParseBuildConfiguration accepts "debug" or "release" in any case.
func ParseBuildConfiguration(s string) (BuildConfiguration, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "release", "":
		return Release, nil
	default:
		return "", fmt.Errorf("unknown build configuration %q (want debug or release)", s)
	}
}

func (c BuildConfiguration) String() string { return string(c) }
