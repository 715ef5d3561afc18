package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
)

const (
	StateFile              = ".state.json"
	CurrentStateVersion    = "2"
	CurrentDetectorVersion = "heuristic-v1"
	CurrentOutputVersion   = "1"
)

// NodeState tracks the state of a single definition
type NodeState struct {
	Name         string    `json:"name"`
	Kind         string    `json:"kind"`
	Source       string    `json:"source,omitempty"`
	Hash         string    `json:"hash"`
	Dependencies []string  `json:"dependencies,omitempty"` // IDs this definition depends on
	UpdatedAt    time.Time `json:"updated_at"`
}

// State tracks the last extraction of one catalog for incremental updates
type State struct {
	Version         string               `json:"version"`
	DetectorVersion string               `json:"detector_version,omitempty"`
	OutputVersion   string               `json:"output_version,omitempty"`
	Source          string               `json:"source,omitempty"`
	SourceHashes    map[string]string    `json:"source_hashes,omitempty"` // input file -> content hash
	GeneratedAt     time.Time            `json:"generated_at,omitzero"`   // timestamp carried by the reports
	UpdatedAt       time.Time            `json:"updated_at"`
	Nodes           map[string]NodeState `json:"nodes"`
	OutputHashes    map[string]string    `json:"output_hashes,omitempty"`
}

// NewState creates a new empty state
func NewState() *State {
	return &State{
		Version:         CurrentStateVersion,
		DetectorVersion: CurrentDetectorVersion,
		OutputVersion:   CurrentOutputVersion,
		SourceHashes:    make(map[string]string),
		Nodes:           make(map[string]NodeState),
		OutputHashes:    make(map[string]string),
	}
}

// Load reads state from the output directory. A missing file yields an empty state.
func Load(outputDir string) (*State, error) {
	path := filepath.Join(outputDir, StateFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewState(), nil
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", StateFile, err)
	}

	migrateState(&state)

	return &state, nil
}

// Exists reports whether outputDir holds a state file.
func Exists(outputDir string) bool {
	_, err := os.Stat(filepath.Join(outputDir, StateFile))
	return err == nil
}

// Encode renders the state the way Save writes it.
func (s *State) Encode() ([]byte, error) {
	if s.Version == "" {
		s.Version = CurrentStateVersion
	}
	if s.DetectorVersion == "" {
		s.DetectorVersion = CurrentDetectorVersion
	}
	if s.OutputVersion == "" {
		s.OutputVersion = CurrentOutputVersion
	}
	if s.Nodes == nil {
		s.Nodes = make(map[string]NodeState)
	}
	if s.SourceHashes == nil {
		s.SourceHashes = make(map[string]string)
	}
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}

	s.UpdatedAt = time.Now()

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Save writes state to the output directory.
func (s *State) Save(outputDir string) error {
	data, err := s.Encode()
	if err != nil {
		return err
	}
	path := filepath.Join(outputDir, StateFile)
	return os.WriteFile(path, data, 0644)
}

// HashNode returns the content hash of a definition. Name, kind and text all count.
func HashNode(node graph.Node) string {
	h := sha256.New()
	h.Write([]byte(node.Kind.String()))
	h.Write([]byte{0})
	h.Write([]byte(node.Name))
	h.Write([]byte{0})
	h.Write([]byte(node.MCode))
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// SetNode records a definition and its direct dependencies.
func (s *State) SetNode(node graph.Node, dependencies []string) {
	s.Nodes[node.ID] = NodeState{
		Name:         node.Name,
		Kind:         node.Kind.String(),
		Source:       node.Source,
		Hash:         HashNode(node),
		Dependencies: dependencies,
		UpdatedAt:    time.Now(),
	}
}

// GetNodeHash returns the stored hash for a definition
func (s *State) GetNodeHash(id string) (string, bool) {
	ns, ok := s.Nodes[id]
	if !ok {
		return "", false
	}
	return ns.Hash, true
}

// HasChanged returns true if the definition hash differs from stored
func (s *State) HasChanged(id, currentHash string) bool {
	storedHash, ok := s.GetNodeHash(id)
	if !ok {
		return true // new definition
	}
	return storedHash != currentHash
}

// RemoveNode removes a definition from state tracking
func (s *State) RemoveNode(id string) {
	delete(s.Nodes, id)
}

// ChangedNodes returns IDs of new or modified definitions, sorted
func (s *State) ChangedNodes(current []graph.Node) []string {
	changed := make([]string, 0)
	for _, node := range current {
		if s.HasChanged(node.ID, HashNode(node)) {
			changed = append(changed, node.ID)
		}
	}
	sort.Strings(changed)
	return dedupeSorted(changed)
}

// DeletedNodes returns IDs of definitions that no longer exist, sorted
func (s *State) DeletedNodes(current []graph.Node) []string {
	present := make(map[string]bool, len(current))
	for _, node := range current {
		present[node.ID] = true
	}

	deleted := make([]string, 0)
	for id := range s.Nodes {
		if !present[id] {
			deleted = append(deleted, id)
		}
	}
	sort.Strings(deleted)
	return deleted
}

// SourceChanged reports whether any input file was added, removed or modified.
func (s *State) SourceChanged(currentHashes map[string]string) bool {
	if len(currentHashes) != len(s.SourceHashes) {
		return true
	}
	for file, hash := range currentHashes {
		if stored, ok := s.SourceHashes[file]; !ok || stored != hash {
			return true
		}
	}
	return false
}

// ImpactedNodes returns changed/deleted definitions plus their reverse dependency closure.
func (s *State) ImpactedNodes(changed, deleted []string) []string {
	reverse := s.ReverseDependencies()

	impacted := make(map[string]bool)
	queue := make([]string, 0, len(changed)+len(deleted))
	for _, id := range append(append([]string{}, changed...), deleted...) {
		if !impacted[id] {
			impacted[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, depender := range reverse[id] {
			if impacted[depender] {
				continue
			}
			impacted[depender] = true
			queue = append(queue, depender)
		}
	}

	out := make([]string, 0, len(impacted))
	for id := range impacted {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ReverseDependencies maps each ID to the sorted IDs that depend on it.
func (s *State) ReverseDependencies() map[string][]string {
	reverse := make(map[string][]string)
	for id, ns := range s.Nodes {
		for _, dep := range ns.Dependencies {
			reverse[dep] = append(reverse[dep], id)
		}
	}
	for id := range reverse {
		sort.Strings(reverse[id])
	}
	return reverse
}

// SetOutputHash records the content hash for a generated output file.
func (s *State) SetOutputHash(path, hash string) {
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}
	s.OutputHashes[path] = hash
}

// GetOutputHash returns the previously stored hash for a generated output file.
func (s *State) GetOutputHash(path string) (string, bool) {
	hash, ok := s.OutputHashes[path]
	return hash, ok
}

func dedupeSorted(values []string) []string {
	out := values[:0]
	for i, value := range values {
		if i > 0 && value == values[i-1] {
			continue
		}
		out = append(out, value)
	}
	return out
}

func migrateState(s *State) {
	if s.Nodes == nil {
		s.Nodes = make(map[string]NodeState)
	}
	if s.SourceHashes == nil {
		s.SourceHashes = make(map[string]string)
	}
	if s.OutputHashes == nil {
		s.OutputHashes = make(map[string]string)
	}
	if s.DetectorVersion == "" {
		s.DetectorVersion = CurrentDetectorVersion
	}
	if s.OutputVersion == "" {
		s.OutputVersion = CurrentOutputVersion
	}

	switch s.Version {
	case "", "1":
		s.Version = CurrentStateVersion
	case CurrentStateVersion:
		// no-op
	default:
		// Keep unknown versions untouched but ensure required maps are initialized.
	}
}
