// Package archive unpacks release archives and locates the shape
// executable inside them.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fluxcd/pkg/tar"

	"github.com/shape-cli/shape-launcher/internal/platform"
)

// BinaryNotFoundError reports an archive that does not contain the
// expected executable at its top level.
type BinaryNotFoundError struct {
	Path string
}

func (e *BinaryNotFoundError) Error() string {
	return fmt.Sprintf("binary not found in archive: %s", e.Path)
}

// Extract unpacks the archive at archivePath into destDir and returns
// the path of the shape executable. Windows releases ship as zip,
// everything else as gzip-compressed tar.
func Extract(archivePath, destDir string, tag platform.Tag) (string, error) {
	var err error
	if tag.OS == platform.Windows {
		err = extractZip(archivePath, destDir)
	} else {
		err = extractTarGz(archivePath, destDir)
	}
	if err != nil {
		return "", err
	}

	binaryPath := filepath.Join(destDir, tag.BinaryName())
	if _, statErr := os.Stat(binaryPath); statErr != nil {
		if os.IsNotExist(statErr) {
			return "", &BinaryNotFoundError{Path: binaryPath}
		}
		return "", statErr
	}

	return binaryPath, nil
}

func extractTarGz(archivePath, destDir string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	if err := tar.Untar(file, destDir, tar.WithMaxUntarSize(-1)); err != nil {
		return fmt.Errorf("failed to extract %s: %w", filepath.Base(archivePath), err)
	}
	return nil
}

func extractZip(archivePath, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer reader.Close()

	cleanDest := filepath.Clean(destDir)
	for _, entry := range reader.File {
		target := filepath.Join(cleanDest, entry.Name)

		// Reject entries escaping the destination directory
		if !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("archive entry %q escapes destination", entry.Name)
		}

		if entry.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		if err := writeZipEntry(entry, target); err != nil {
			return err
		}
	}

	return nil
}

func writeZipEntry(entry *zip.File, target string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("failed to open archive entry %s: %w", entry.Name, err)
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(target)
		return fmt.Errorf("failed to extract %s: %w", entry.Name, err)
	}
	return dst.Close()
}
