package project

// settings.go - static build-setting templates, parameterized by build
// configuration.

import (
	"maps"
	"sort"
	"strings"

	"xcpack/internal/manifest"
)

var projectBase = map[string]string{
	"ALWAYS_SEARCH_USER_PATHS": "NO",
	"CLANG_ENABLE_MODULES":     "YES",
	"CLANG_ENABLE_OBJC_ARC":    "YES",
	"CODE_SIGN_IDENTITY":       "",
	"CURRENT_PROJECT_VERSION":  "1",
	"SDKROOT":                  "auto",
	"SWIFT_VERSION":            "5.0",
	"VERSIONING_SYSTEM":        "apple-generic",
}

var projectPerConfiguration = map[manifest.BuildConfiguration]map[string]string{
	manifest.Debug: {
		"DEBUG_INFORMATION_FORMAT":            "dwarf",
		"ENABLE_TESTABILITY":                  "YES",
		"GCC_OPTIMIZATION_LEVEL":              "0",
		"GCC_PREPROCESSOR_DEFINITIONS":        "DEBUG=1",
		"ONLY_ACTIVE_ARCH":                    "YES",
		"SWIFT_ACTIVE_COMPILATION_CONDITIONS": "DEBUG",
		"SWIFT_OPTIMIZATION_LEVEL":            "-Onone",
	},
	manifest.Release: {
		"DEBUG_INFORMATION_FORMAT": "dwarf-with-dsym",
		"ENABLE_NS_ASSERTIONS":     "NO",
		"GCC_OPTIMIZATION_LEVEL":   "s",
		"SWIFT_COMPILATION_MODE":   "wholemodule",
		"SWIFT_OPTIMIZATION_LEVEL": "-O",
	},
}

var targetBase = map[string]string{
	"BUILD_LIBRARY_FOR_DISTRIBUTION": "YES",
	"DEFINES_MODULE":                 "YES",
	"DYLIB_INSTALL_NAME_BASE":        "@rpath",
	"LD_RUNPATH_SEARCH_PATHS":        "$(inherited) @executable_path/Frameworks @loader_path/Frameworks",
	"SKIP_INSTALL":                   "NO",
}

// configurationList builds one configuration per build configuration from
// the base template, the per-configuration template and overrides, in that
// order of precedence.
func configurationList(base map[string]string, perConfiguration map[manifest.BuildConfiguration]map[string]string, overrides map[string]string) *ConfigurationList {
	list := &ConfigurationList{Default: manifest.Release.String()}
	for _, bc := range manifest.BuildConfigurations {
		settings := maps.Clone(base)
		maps.Copy(settings, perConfiguration[bc])
		maps.Copy(settings, overrides)
		list.Configurations = append(list.Configurations, &Configuration{Name: bc.String(), Settings: settings})
	}
	return list
}

func projectConfigurations(opts BuildOptions) *ConfigurationList {
	overrides := map[string]string{}
	if len(opts.Platforms) > 0 {
		overrides["SUPPORTED_PLATFORMS"] = strings.Join(opts.Platforms, " ")
	}
	maps.Copy(overrides, opts.DeploymentTargets)
	return configurationList(projectBase, projectPerConfiguration, overrides)
}

func targetConfigurations(t *NativeTarget, bundlePrefix string, extra map[string]string) *ConfigurationList {
	overrides := map[string]string{
		"PRODUCT_NAME":              t.ModuleName,
		"PRODUCT_MODULE_NAME":       t.ModuleName,
		"PRODUCT_BUNDLE_IDENTIFIER": bundleIdentifier(bundlePrefix, t.Name),
		"INFOPLIST_FILE":            t.InfoPlist,
	}
	maps.Copy(overrides, extra)
	return configurationList(targetBase, nil, overrides)
}

// setAll sets key on every configuration of the list.
func (l *ConfigurationList) setAll(key, value string) {
	for _, c := range l.Configurations {
		c.Settings[key] = value
	}
}

// sortedKeys returns the settings keys in lexical order.
func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func bundleIdentifier(prefix, name string) string {
	id := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '-'
		}
	}, name)
	if prefix == "" {
		return id
	}
	return prefix + "." + id
}
