package analyzer

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultManifests is the priority-ordered candidate list of config/manifest
// files used to infer a project's technology stack. Earlier entries win.
var DefaultManifests = []string{
	"package.json",     // Node.js
	"pom.xml",          // Java Maven
	"build.gradle",     // Java Gradle
	"pyproject.toml",   // Python (modern)
	"requirements.txt", // Python (classic)
	"go.mod",           // Go
	"Cargo.toml",       // Rust
	"composer.json",    // PHP
	"Gemfile",          // Ruby
	"setup.py",         // Python (old)
}

// DetectConfigFile returns the first candidate (in priority order) that
// appears as an exact entry in the flattened path list. Matching is exact
// string equality, so nested files never match a bare filename candidate.
func DetectConfigFile(paths []string, candidates []string) (string, bool) {
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	for _, candidate := range candidates {
		if _, ok := set[candidate]; ok {
			return candidate, true
		}
	}
	return "", false
}

type manifestsFile struct {
	Manifests []string `yaml:"manifests"`
}

// LoadManifests reads a priority-ordered manifest list from a YAML file:
//
//	manifests:
//	  - package.json
//	  - go.mod
//
// An empty path returns the default list.
func LoadManifests(path string) ([]string, error) {
	if path == "" {
		return DefaultManifests, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifests file: %w", err)
	}

	var mf manifestsFile
	if err := yaml.Unmarshal(raw, &mf); err != nil {
		return nil, fmt.Errorf("parsing manifests file: %w", err)
	}
	if len(mf.Manifests) == 0 {
		return nil, fmt.Errorf("manifests file %s lists no manifests", path)
	}
	return mf.Manifests, nil
}
