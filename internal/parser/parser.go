package parser

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/ignore"
)

// Reader defines the interface each input format must implement
type Reader interface {
	// Format returns the format name (e.g., "catalog", "mcode")
	Format() string

	// Extensions returns file extensions this reader handles
	Extensions() []string

	// Read extracts definitions from file content, in file order
	Read(filename string, content []byte) ([]graph.Node, error)
}

// Registry holds all registered input readers
type Registry struct {
	readers     map[string]Reader // format name -> reader
	extToFormat map[string]string // extension -> format name
}

// NewRegistry creates an empty reader registry
func NewRegistry() *Registry {
	return &Registry{
		readers:     make(map[string]Reader),
		extToFormat: make(map[string]string),
	}
}

// DefaultRegistry returns a registry with every built-in reader registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(CatalogReader{})
	r.Register(MCodeReader{})
	r.Register(PBIXReader{})
	return r
}

// Register adds a reader to the registry
func (r *Registry) Register(reader Reader) {
	format := reader.Format()
	r.readers[format] = reader
	for _, ext := range reader.Extensions() {
		r.extToFormat[strings.ToLower(ext)] = format
	}
}

// ReaderForFile returns the appropriate reader for a file
func (r *Registry) ReaderForFile(filename string) (Reader, bool) {
	ext := strings.ToLower(filepath.Ext(filename))
	format, ok := r.extToFormat[ext]
	if !ok {
		return nil, false
	}
	reader, ok := r.readers[format]
	return reader, ok
}

// SupportedExtensions returns all supported file extensions, sorted
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.extToFormat))
	for ext := range r.extToFormat {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Supports reports whether a reader is registered for the file's extension.
func (r *Registry) Supports(filename string) bool {
	_, ok := r.ReaderForFile(filename)
	return ok
}

// ParseFile reads a single file and returns its definitions. Unsupported files yield
// nil without error.
func (r *Registry) ParseFile(path string) (*FileNodes, error) {
	reader, ok := r.ReaderForFile(path)
	if !ok {
		return nil, nil // unsupported file type, skip silently
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	nodes, err := reader.Read(path, content)
	if err != nil {
		return nil, err
	}

	for i := range nodes {
		nodes[i].Name = strings.TrimSpace(nodes[i].Name)
		nodes[i].Source = path
		if nodes[i].ID == "" {
			nodes[i].ID = StableNodeID(path, nodes[i].Kind, nodes[i].Name)
		}
	}

	return &FileNodes{
		Path:   path,
		Format: reader.Format(),
		Nodes:  nodes,
		Hash:   hashContent(content),
	}, nil
}

// ParseInput reads a file or a directory. A single file becomes a one-file result.
func (r *Registry) ParseInput(path string, ignorePaths []string) (*ParseResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat input: %w", err)
	}
	if info.IsDir() {
		return r.ParseDirectory(path, ignorePaths)
	}

	if !r.Supports(path) {
		return nil, fmt.Errorf("unsupported input %s (supported: %s)", path, strings.Join(r.SupportedExtensions(), ", "))
	}

	result := &ParseResult{
		RootPath: filepath.Dir(path),
		Files:    make([]FileNodes, 0, 1),
		Issues:   make([]ParseIssue, 0),
	}
	file, err := r.ParseFile(path)
	if err != nil {
		if errors.Is(err, ErrNoMashup) {
			result.Issues = append(result.Issues, r.issueFor(path, filepath.Base(path), err))
			return result, nil
		}
		return nil, err
	}
	relPath := filepath.Base(path)
	file.Path = relPath
	for i := range file.Nodes {
		file.Nodes[i].Source = relPath
	}
	result.Files = append(result.Files, *file)
	result.Issues = append(result.Issues, duplicateIDIssues(result)...)
	return result, nil
}

// ParseDirectory recursively reads all supported files in a directory and merges them
// into one result. Container files are left to Plan, which extracts each on its own.
func (r *Registry) ParseDirectory(root string, ignorePaths []string) (*ParseResult, error) {
	ignoreMatcher := ignore.NewMatcher(ignorePaths)

	result := &ParseResult{
		RootPath: root,
		Files:    make([]FileNodes, 0),
		Issues:   make([]ParseIssue, 0),
	}

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			relPath := path
			if rel, relErr := filepath.Rel(root, path); relErr == nil {
				relPath = rel
			}
			result.Issues = append(result.Issues, ParseIssue{
				File:     filepath.ToSlash(relPath),
				Severity: "warning",
				Message:  fmt.Sprintf("walk error: %v", err),
			})
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		// Skip ignored paths
		relPath, _ := filepath.Rel(root, path)
		relPath = filepath.ToSlash(relPath)
		if ignoreMatcher.ShouldIgnore(relPath, info.IsDir()) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() || r.IsContainer(path) {
			return nil
		}

		file, err := r.ParseFile(path)
		if err != nil {
			result.Issues = append(result.Issues, r.issueFor(path, relPath, err))
			return nil
		}
		if file != nil {
			file.Path = relPath
			for i := range file.Nodes {
				file.Nodes[i].Source = relPath
			}
			result.Files = append(result.Files, *file)
		}

		return nil
	})

	sort.SliceStable(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	result.Issues = append(result.Issues, duplicateIDIssues(result)...)
	sort.Slice(result.Issues, func(i, j int) bool {
		if result.Issues[i].File == result.Issues[j].File {
			return result.Issues[i].Message < result.Issues[j].Message
		}
		return result.Issues[i].File < result.Issues[j].File
	})

	return result, err
}

func (r *Registry) issueFor(path, relPath string, err error) ParseIssue {
	format := ""
	if reader, ok := r.ReaderForFile(path); ok {
		format = reader.Format()
	}
	severity := "error"
	if errors.Is(err, ErrNoMashup) {
		severity = "warning"
	}
	return ParseIssue{
		File:     relPath,
		Format:   format,
		Severity: severity,
		Message:  err.Error(),
	}
}

// duplicateIDIssues warns about definitions sharing an ID. Detection still treats them
// as separate nodes.
func duplicateIDIssues(result *ParseResult) []ParseIssue {
	seen := make(map[string]string)
	var issues []ParseIssue
	for _, file := range result.Files {
		for _, node := range file.Nodes {
			if first, dup := seen[node.ID]; dup {
				issues = append(issues, ParseIssue{
					File:     file.Path,
					Format:   file.Format,
					Severity: "warning",
					Message:  fmt.Sprintf("duplicate id %s for %q (first defined in %s)", node.ID, node.Name, first),
				})
				continue
			}
			seen[node.ID] = file.Path
		}
	}
	return issues
}

func hashContent(content []byte) string {
	h := sha256.New()
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))[:16] // short hash
}
