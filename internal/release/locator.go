// Package release builds the deterministic URLs of shape release
// artifacts. It performs no I/O.
package release

import (
	"fmt"

	"github.com/shape-cli/shape-launcher/internal/config"
	"github.com/shape-cli/shape-launcher/internal/platform"
)

const (
	// product is the archive filename prefix used by the release store.
	product = "shape"

	// ChecksumsFilename is the digest manifest published with every
	// release, shared across all platforms.
	ChecksumsFilename = "checksums.txt"
)

// Locator constructs download URLs for a release store.
type Locator struct {
	Host string
	Repo string
}

// NewLocator creates a Locator from release configuration.
func NewLocator(cfg config.ReleaseConfig) Locator {
	return Locator{Host: cfg.Host, Repo: cfg.Repo}
}

// ArchiveFilename returns the release archive name for a platform,
// e.g. "shape-linux-x64.tar.gz".
func (l Locator) ArchiveFilename(tag platform.Tag) string {
	return fmt.Sprintf("%s-%s.%s", product, tag, tag.ArchiveExt())
}

// ArchiveURL returns the download URL of the release archive.
func (l Locator) ArchiveURL(version string, tag platform.Tag) string {
	return fmt.Sprintf("%s/%s/releases/download/v%s/%s", l.Host, l.Repo, version, l.ArchiveFilename(tag))
}

// ChecksumsURL returns the download URL of the checksum manifest.
func (l Locator) ChecksumsURL(version string) string {
	return fmt.Sprintf("%s/%s/releases/download/v%s/%s", l.Host, l.Repo, version, ChecksumsFilename)
}
