package project

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lithammer/dedent"
)

var infoTemplate = dedent.Dedent(`
	<?xml version="1.0" encoding="UTF-8"?>
	<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
	<plist version="1.0">
	<dict>
	  <key>CFBundleDevelopmentRegion</key>
	  <string>en</string>
	  <key>CFBundleExecutable</key>
	  <string>$(EXECUTABLE_NAME)</string>
	  <key>CFBundleIdentifier</key>
	  <string>$(PRODUCT_BUNDLE_IDENTIFIER)</string>
	  <key>CFBundleInfoDictionaryVersion</key>
	  <string>6.0</string>
	  <key>CFBundleName</key>
	  <string>%s</string>
	  <key>CFBundlePackageType</key>
	  <string>FMWK</string>
	  <key>CFBundleShortVersionString</key>
	  <string>1.0</string>
	  <key>CFBundleVersion</key>
	  <string>$(CURRENT_PROJECT_VERSION)</string>
	  <key>NSPrincipalClass</key>
	  <string></string>
	</dict>
	</plist>
`)[1:]

// InfoPlistPath is <projectDir>/<module>_Info.plist.
func InfoPlistPath(projectDir, module string) string {
	return filepath.Join(projectDir, module+"_Info.plist")
}

// writeInfoPlist writes the target's Info descriptor, replacing any previous
// one, and returns its path.
func writeInfoPlist(projectDir, module string) (string, error) {
	path := InfoPlistPath(projectDir, module)
	if err := os.MkdirAll(projectDir, 0o755); err != nil {
		return "", fmt.Errorf("project: create %s: %w", projectDir, err)
	}
	if err := os.WriteFile(path, fmt.Appendf(nil, infoTemplate, module), 0o644); err != nil {
		return "", fmt.Errorf("project: write info plist for %s: %w", module, err)
	}
	return path, nil
}
