/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package libinfo exposes the version of go-respcache for use in metric labels.
package libinfo

import (
	"debug/buildinfo"
	"regexp"
	"sync"

	"runtime/debug"

	"github.com/prometheus/client_golang/prometheus"
)

const libShortName = "go-respcache"

const moduleName = "github.com/acronis/" + libShortName

// PrometheusLibVersionLabel is the name of the label holding the library version.
const PrometheusLibVersionLabel = "go_respcache_version"

// AddPrometheusLibVersionLabel returns a copy of labels extended with the library version label.
func AddPrometheusLibVersionLabel(labels prometheus.Labels) prometheus.Labels {
	labelsCopy := make(prometheus.Labels, len(labels)+1)
	for k, v := range labels {
		labelsCopy[k] = v
	}
	labelsCopy[PrometheusLibVersionLabel] = GetLibVersion()
	return labelsCopy
}

var libVersion string
var libVersionOnce sync.Once

// GetLibVersion returns the version of the module the binary was built with, "v0.0.0" if unknown.
func GetLibVersion() string {
	libVersionOnce.Do(initLibVersion)
	return libVersion
}

func initLibVersion() {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		libVersion = extractLibVersion(buildInfo, moduleName)
	}
	if libVersion == "" || libVersion == "(devel)" {
		libVersion = "v0.0.0"
	}
}

// extractLibVersion looks for the module either as the main module (the respcached binary)
// or among dependencies, in the form "moduleName" or "moduleName/vX".
func extractLibVersion(buildInfo *buildinfo.BuildInfo, modName string) string {
	if buildInfo == nil {
		return ""
	}
	re, err := regexp.Compile(`^` + regexp.QuoteMeta(modName) + `(/v[0-9]+)?$`)
	if err != nil {
		return "" // should never happen
	}
	if re.MatchString(buildInfo.Main.Path) {
		return buildInfo.Main.Version
	}
	for _, dep := range buildInfo.Deps {
		if re.MatchString(dep.Path) {
			return dep.Version
		}
	}
	return ""
}
