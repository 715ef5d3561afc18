package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/pqgraph-dev/pqgraph/internal/ignore"
	"github.com/pqgraph-dev/pqgraph/internal/parser"
)

func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil))[:16], nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:16]
}

// ScanFileHashes hashes every supported input under inputPath, keyed the same way
// parser.ParseInput keys its files: the base name for a file input, the slash
// relative path for a directory input. Container files inside a directory are their own
// catalogs and are skipped.
func ScanFileHashes(inputPath string, registry *parser.Registry, ignoreRules []string) (map[string]string, error) {
	hashes := make(map[string]string)

	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		hash, err := HashFile(inputPath)
		if err != nil {
			return nil, err
		}
		hashes[filepath.Base(inputPath)] = hash
		return hashes, nil
	}

	ignoreMatcher := ignore.NewMatcher(ignoreRules)
	err = filepath.Walk(inputPath, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		relPath, err := filepath.Rel(inputPath, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if ignoreMatcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() {
			return nil
		}

		if !registry.Supports(path) || registry.IsContainer(path) {
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			return err
		}
		hashes[relPath] = hash

		return nil
	})

	return hashes, err
}
