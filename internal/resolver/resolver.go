// Package resolver suggests resolution strategies for semantic-version
// conflicts between two packages sharing a dependency.
package resolver

import (
	"fmt"
	"strings"

	semver "github.com/Masterminds/semver/v3"
)

// Package is one side of a version conflict.
type Package struct {
	Name     string `json:"name"`
	Requires string `json:"requires"`
}

// Conflict describes a shared-dependency version conflict.
type Conflict struct {
	Dependency string  `json:"dependency"`
	PackageA   Package `json:"package_a"`
	PackageB   Package `json:"package_b"`
}

// Strategy is one suggested way out of a conflict.
type Strategy struct {
	ID     int    `json:"id"`
	Type   string `json:"type"`
	Action string `json:"action"`
	Risk   string `json:"risk"`
}

// Resolve produces resolution strategies for a conflict. A conflict missing
// its mandatory fields is the one hard failure in this package; unparsable
// version constraints degrade to a single Error strategy instead.
func Resolve(c Conflict) ([]Strategy, error) {
	if err := validate(c); err != nil {
		return nil, err
	}

	verA, errA := coerceVersion(c.PackageA.Requires)
	verB, errB := coerceVersion(c.PackageB.Requires)
	if errA != nil || errB != nil {
		err := errA
		if err == nil {
			err = errB
		}
		return []Strategy{{
			ID:     0,
			Type:   "Error",
			Action: fmt.Sprintf("Manual resolution required. Invalid SemVer: %v", err),
			Risk:   "High",
		}}, nil
	}

	risk := "Low (no breaking changes detected)"
	if verB.Major() < verA.Major() {
		risk = "Medium (breaking changes detected)"
	}

	return []Strategy{
		{
			ID:     1,
			Type:   "Recommended",
			Action: fmt.Sprintf("Update %s to %s (compatible with %s)", c.PackageB.Name, verA, c.Dependency),
			Risk:   risk,
		},
		{
			ID:     2,
			Type:   "Alternative",
			Action: fmt.Sprintf("Keep %s, downgrade %s to compatible version", c.PackageB.Name, c.PackageA.Name),
			Risk:   fmt.Sprintf("Medium (potential feature loss in %s)", c.PackageA.Name),
		},
	}, nil
}

func validate(c Conflict) error {
	switch {
	case c.Dependency == "":
		return fmt.Errorf("conflict is missing required field: dependency")
	case c.PackageA.Name == "" || c.PackageA.Requires == "":
		return fmt.Errorf("conflict is missing required field: package_a")
	case c.PackageB.Name == "" || c.PackageB.Requires == "":
		return fmt.Errorf("conflict is missing required field: package_b")
	}
	return nil
}

// coerceVersion strips range operators (^, ~, >=, <, =) off the front of a
// constraint and parses what remains as a concrete version.
func coerceVersion(requires string) (*semver.Version, error) {
	raw := strings.TrimLeft(requires, "^~>=<")
	return semver.NewVersion(raw)
}
