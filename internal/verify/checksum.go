// Package verify enforces mandatory SHA256 verification of downloaded
// release archives against the published checksum manifest.
package verify

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shape-cli/shape-launcher/pkg/logger"
)

// hashChunkSize bounds memory while digesting large archives.
const hashChunkSize = 32 * 1024

// ChecksumMismatchError reports a digest that does not match the
// manifest entry for the expected filename.
type ChecksumMismatchError struct {
	Filename string
	Expected string
	Actual   string
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch for %s: expected %s, got %s", e.Filename, e.Expected, e.Actual)
}

// ChecksumNotFoundError reports a manifest with no entry for the
// expected filename.
type ChecksumNotFoundError struct {
	Filename string
}

func (e *ChecksumNotFoundError) Error() string {
	return fmt.Sprintf("no checksum found for %s in checksums.txt", e.Filename)
}

// FileSHA256 computes the hex SHA256 digest of the file at path using
// chunked reads.
func FileSHA256(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for checksum: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, hashChunkSize)
	if _, err := io.CopyBuffer(hasher, file, buf); err != nil {
		return "", fmt.Errorf("failed to calculate checksum: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Verify checks the file at path against the manifest entry whose
// filename contains expectedFilename. Manifest lines hold a hex digest
// and a filename separated by whitespace; blank lines are ignored. The
// first matching line decides the outcome.
func Verify(log *logger.Logger, path string, manifest []byte, expectedFilename string) error {
	actual, err := FileSHA256(path)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(bytes.NewReader(manifest))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		if !strings.Contains(fields[len(fields)-1], expectedFilename) {
			continue
		}

		expected := fields[0]
		if strings.EqualFold(expected, actual) {
			log.WithField("file", expectedFilename).Debug("Checksum verified")
			return nil
		}

		log.WithFields(logger.Fields{
			"expected": expected,
			"actual":   actual,
		}).Error("Checksum mismatch")
		return &ChecksumMismatchError{
			Filename: expectedFilename,
			Expected: strings.ToLower(expected),
			Actual:   actual,
		}
	}

	return &ChecksumNotFoundError{Filename: expectedFilename}
}
