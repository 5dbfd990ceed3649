// Package installer orchestrates the download-verify-extract-install
// pipeline for the shape binary.
package installer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/shape-cli/shape-launcher/internal/archive"
	"github.com/shape-cli/shape-launcher/internal/config"
	"github.com/shape-cli/shape-launcher/internal/fetch"
	"github.com/shape-cli/shape-launcher/internal/platform"
	"github.com/shape-cli/shape-launcher/internal/release"
	"github.com/shape-cli/shape-launcher/internal/verify"
	"github.com/shape-cli/shape-launcher/pkg/logger"
)

// Installer provisions the shape binary into the configured install
// directory. Component errors propagate unchanged so callers can branch
// on their kind.
type Installer struct {
	cfg     *config.Config
	locator release.Locator
	fetcher *fetch.Fetcher
	log     *logger.Logger
}

func New(cfg *config.Config) *Installer {
	return &Installer{
		cfg:     cfg,
		locator: release.NewLocator(cfg.Release),
		fetcher: fetch.NewFetcher(cfg.Release),
		log:     logger.NewLogger("installer"),
	}
}

// Install provisions the given release version and returns the absolute
// path of the installed binary. If the binary already exists the call
// returns immediately without network access.
func (i *Installer) Install(ctx context.Context, version string) (string, error) {
	return i.install(ctx, version, false)
}

// ForceInstall provisions the given release version even when a binary
// is already installed, replacing it.
func (i *Installer) ForceInstall(ctx context.Context, version string) (string, error) {
	return i.install(ctx, version, true)
}

func (i *Installer) install(ctx context.Context, version string, force bool) (string, error) {
	tag, err := platform.Current()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(i.cfg.Install.Dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create install directory: %w", err)
	}

	destBinary, err := filepath.Abs(filepath.Join(i.cfg.Install.Dir, tag.BinaryName()))
	if err != nil {
		return "", err
	}

	if !force {
		if _, err := os.Stat(destBinary); err == nil {
			i.log.WithField("path", destBinary).Debug("Binary already installed, skipping download")
			return destBinary, nil
		}
	}

	// All intermediate artifacts live in a workspace that is removed
	// on every exit path
	workDir, err := os.MkdirTemp("", "shape-install-")
	if err != nil {
		return "", fmt.Errorf("failed to create temp directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	archiveName := i.locator.ArchiveFilename(tag)
	archivePath := filepath.Join(workDir, archiveName)

	i.log.WithFields(logger.Fields{
		"version":  version,
		"platform": tag.String(),
	}).Info("Downloading shape release")

	if err := i.fetcher.Fetch(ctx, i.locator.ArchiveURL(version, tag), archivePath); err != nil {
		return "", err
	}

	manifestPath := filepath.Join(workDir, release.ChecksumsFilename)
	if err := i.fetcher.Fetch(ctx, i.locator.ChecksumsURL(version), manifestPath); err != nil {
		return "", err
	}

	manifest, err := os.ReadFile(manifestPath)
	if err != nil {
		return "", fmt.Errorf("failed to read checksum manifest: %w", err)
	}

	if err := verify.Verify(i.log, archivePath, manifest, archiveName); err != nil {
		return "", err
	}

	extractDir := filepath.Join(workDir, "extract")
	if err := os.Mkdir(extractDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create extract directory: %w", err)
	}

	binaryPath, err := archive.Extract(archivePath, extractDir, tag)
	if err != nil {
		return "", err
	}

	if err := i.moveFile(binaryPath, destBinary); err != nil {
		return "", err
	}

	if tag.OS != platform.Windows {
		if err := os.Chmod(destBinary, 0755); err != nil {
			return "", fmt.Errorf("failed to set binary permissions: %w", err)
		}
	}

	i.log.WithFields(logger.Fields{
		"version": version,
		"path":    destBinary,
	}).Info("Successfully installed shape binary")

	return destBinary, nil
}

// moveFile moves a file from src to dst, handling cross-device links
func (i *Installer) moveFile(src, dst string) error {
	// First try rename (fast path)
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	i.log.Debug("Rename failed, falling back to copy+delete")

	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to copy file: %w", err)
	}

	// Sync to ensure data is written
	if err := dstFile.Sync(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("failed to sync file: %w", err)
	}

	if err := os.Remove(src); err != nil {
		i.log.WithError(err).Warn("Failed to remove temporary file")
		// File was copied successfully, not an error
	}

	return nil
}
