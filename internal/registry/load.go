package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jward/glimmer/internal/manifest"
	"github.com/jward/glimmer/internal/semver"
)

// onDiskPackage mirrors one package's metadata file on disk: a flat list of
// published releases, each with its declared dependency constraints in the
// manifest's "LOWER OP v OP UPPER" string form.
type onDiskPackage struct {
	Releases []onDiskRelease `yaml:"releases"`
}

type onDiskRelease struct {
	Version      string            `yaml:"version"`
	Dependencies map[string]string `yaml:"dependencies"`
}

// LoadMetadataDir populates s from a directory of per-package metadata
// files named "<author>-<name>.yaml" (dotted package names cannot appear in
// filenames, so the author/name separator is a hyphen on disk). This is the
// "on-disk metadata" the package cache contract (§4.2) is populated from.
func LoadMetadataDir(s *Store, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("registry: load metadata dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := loadMetadataFile(s, path); err != nil {
			return fmt.Errorf("registry: load metadata dir: %w", err)
		}
	}
	return nil
}

func loadMetadataFile(s *Store, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	var pkg onDiskPackage
	if err := yaml.Unmarshal(data, &pkg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	name := packageNameFromFilename(filepath.Base(path))
	for _, rel := range pkg.Releases {
		v, err := semver.Parse(rel.Version)
		if err != nil {
			return fmt.Errorf("%s: release %q: %w", path, rel.Version, err)
		}
		deps := make(map[string]semver.Constraint, len(rel.Dependencies))
		for depName, raw := range rel.Dependencies {
			c, err := manifest.ParseConstraint(raw)
			if err != nil {
				return fmt.Errorf("%s: release %s dependency %s: %w", path, rel.Version, depName, err)
			}
			deps[depName] = c
		}
		if err := s.PutRelease(name, Release{Version: v, Dependencies: deps}); err != nil {
			return fmt.Errorf("%s: release %s: %w", path, rel.Version, err)
		}
	}
	return nil
}

// packageNameFromFilename converts "author-name.yaml" back to "author/name".
func packageNameFromFilename(filename string) string {
	base := strings.TrimSuffix(filename, ".yaml")
	return strings.Replace(base, "-", "/", 1)
}
