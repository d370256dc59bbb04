package pkgmgr

import (
	"fmt"
	"regexp"
)

var packageNameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._+:~-]*$`)

// ValidatePackageName validates that a package name contains only safe
// characters before it is handed to the package manager.
func ValidatePackageName(name string) error {
	if name == "" {
		return fmt.Errorf("package name is empty")
	}
	if len(name) > 256 {
		return fmt.Errorf("package name too long: %d chars", len(name))
	}
	if !packageNameRe.MatchString(name) {
		return fmt.Errorf("invalid package name: %q", name)
	}
	return nil
}

// SanitizePackages validates all package names in the slice.
func SanitizePackages(packages []string) error {
	for _, pkg := range packages {
		if err := ValidatePackageName(pkg); err != nil {
			return err
		}
	}
	return nil
}
