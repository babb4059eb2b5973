//go:build !darwin

package osver

// Version represents an OS version with major, minor, and patch components.
type Version struct {
	Major int
	Minor int
	Patch int
}

// Get returns the zero version on platforms without a version gate.
func Get() Version {
	return Version{}
}

// IsAtLeast always passes off darwin.
func IsAtLeast(_, _, _ int) bool {
	return true
}
