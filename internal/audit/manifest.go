// # internal/audit/manifest.go
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"nuxtscan/internal/parser"
)

const (
	SectionRuntime = "runtime"
	SectionDev     = "dev"
)

// PackageDependency is one manifest entry annotated with the number of
// import sites observed across all parsed units.
type PackageDependency struct {
	Name        string
	Version     string
	Section     string
	ImportSites int
}

type manifestFile struct {
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// LoadManifest reads a package.json. A missing manifest is not an error;
// the auditor simply has nothing to audit.
func LoadManifest(path string) ([]PackageDependency, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifestFile
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}

	var deps []PackageDependency
	for name, version := range m.Dependencies {
		deps = append(deps, PackageDependency{Name: name, Version: version, Section: SectionRuntime})
	}
	for name, version := range m.DevDependencies {
		deps = append(deps, PackageDependency{Name: name, Version: version, Section: SectionDev})
	}
	sort.Slice(deps, func(i, j int) bool { return deps[i].Name < deps[j].Name })
	return deps, nil
}

// CountImportSites annotates each dependency with how often project code
// imports it. Subpath imports ("lodash/merge") count toward their package.
func CountImportSites(deps []PackageDependency, units []*parser.Unit) {
	counts := make(map[string]int)
	for _, unit := range units {
		for _, imp := range unit.Imports {
			if imp.Package != "" {
				counts[imp.Package]++
			}
		}
	}
	for i := range deps {
		deps[i].ImportSites = counts[deps[i].Name]
	}
}

// cleanVersion strips range operators so "^3.2.1" queries as "3.2.1".
func cleanVersion(version string) string {
	return strings.TrimLeft(version, "^~>=< ")
}
