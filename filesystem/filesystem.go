// Package filesystem routes every file operation through an afero backend
// so tests can swap the operating system for memory.
package filesystem

import "github.com/spf13/afero"

var backend = afero.Afero{Fs: afero.NewOsFs()}

// API returns the active afero.Afero instance for filesystem interaction.
func API() afero.Afero {
	return backend
}

// SetOsFs restores the filesystem backend to the native operating system implementation.
func SetOsFs() {
	backend = afero.Afero{Fs: afero.NewOsFs()}
}

// SetMemMapFs switches to a volatile in-memory backend.
func SetMemMapFs() {
	backend = afero.Afero{Fs: afero.NewMemMapFs()}
}

// SetFs installs an arbitrary backend.
func SetFs(fs afero.Fs) {
	backend = afero.Afero{Fs: fs}
}

// Glob returns the names of all files matching pattern on the active backend.
func Glob(pattern string) ([]string, error) {
	return afero.Glob(backend.Fs, pattern)
}
