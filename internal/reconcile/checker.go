package reconcile

import (
	"errors"
	"io/fs"
	"syscall"

	"github.com/spf13/afero"

	"github.com/jmylchreest/immich-offline-remover/internal/catalog"
)

// Checker tests whether asset files exist on a filesystem
type Checker struct {
	fs afero.Fs
}

// NewChecker creates a checker over fsys; nil means the local filesystem
func NewChecker(fsys afero.Fs) *Checker {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	return &Checker{fs: fsys}
}

// Exists reports whether path exists. Only a definite "does not exist"
// answer counts as missing; any other stat error is treated as present.
func (c *Checker) Exists(path string) bool {
	_, err := c.fs.Stat(path)
	if err == nil {
		return true
	}
	return !errors.Is(err, fs.ErrNotExist) && !errors.Is(err, syscall.ENOTDIR)
}

// Partition splits assets into those whose file is missing and those present.
// Input order is kept and every occurrence is classified on its own.
func (c *Checker) Partition(assets []catalog.Asset) (missing, present []catalog.Asset) {
	for _, asset := range assets {
		if c.Exists(asset.Path) {
			present = append(present, asset)
		} else {
			missing = append(missing, asset)
		}
	}
	return missing, present
}
