package parser

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/pqgraph-dev/pqgraph/internal/graph"
	"github.com/pqgraph-dev/pqgraph/internal/mcode"
)

const (
	mashupPartName  = "DataMashup"
	sectionPartName = "Formulas/Section1.m"
)

// PBIXReader reads the Power Query definitions embedded in a Power BI file.
type PBIXReader struct{}

func (PBIXReader) Format() string       { return "pbix" }
func (PBIXReader) Extensions() []string { return []string{".pbix", ".pbit"} }

func (PBIXReader) Read(filename string, content []byte) ([]graph.Node, error) {
	container, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s as a zip container: %w", filename, err)
	}

	var mashup []byte
	for _, file := range container.File {
		if strings.EqualFold(file.Name, mashupPartName) {
			mashup, err = readZipFile(file)
			if err != nil {
				return nil, fmt.Errorf("failed to read %s: %w", mashupPartName, err)
			}
			break
		}
	}
	if mashup == nil {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoMashup)
	}

	stream, err := parseMashup(mashup)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}

	section, ok := mcode.ParseSection(string(stream.formulas))
	if !ok {
		return nil, fmt.Errorf("%s: %s is not a section document", filename, sectionPartName)
	}
	nodes := sectionNodes(section)
	for i := range nodes {
		if loaded, ok := stream.loadEnabled[nodes[i].Name]; ok {
			nodes[i].LoadEnabled = &loaded
		}
	}
	return nodes, nil
}

// mashupStream is the decoded part of a DataMashup binary this reader needs.
type mashupStream struct {
	formulas    []byte
	loadEnabled map[string]bool // member name -> FillEnabled
}

// parseMashup decodes the DataMashup layout: a 4-byte version, then length-prefixed
// package parts (a zip), permissions and metadata. All integers are little-endian.
func parseMashup(data []byte) (*mashupStream, error) {
	r := bytes.NewReader(data)
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("failed to read mashup version: %w", err)
	}
	if version != 0 {
		return nil, fmt.Errorf("unsupported mashup version %d", version)
	}

	parts, err := readChunk(r, "package parts")
	if err != nil {
		return nil, err
	}
	pkg, err := zip.NewReader(bytes.NewReader(parts), int64(len(parts)))
	if err != nil {
		return nil, fmt.Errorf("failed to open package parts: %w", err)
	}

	stream := &mashupStream{loadEnabled: make(map[string]bool)}
	for _, file := range pkg.File {
		if file.Name != sectionPartName {
			continue
		}
		stream.formulas, err = readZipFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", sectionPartName, err)
		}
		break
	}
	if stream.formulas == nil {
		return nil, fmt.Errorf("package parts carry no %s", sectionPartName)
	}

	// Permissions and metadata are optional; a truncated tail keeps the formulas.
	if _, err := readChunk(r, "permissions"); err != nil {
		return stream, nil
	}
	metadata, err := readChunk(r, "metadata")
	if err != nil {
		return stream, nil
	}
	stream.loadEnabled = parseLoadFlags(metadata)
	return stream, nil
}

func readChunk(r *bytes.Reader, what string) ([]byte, error) {
	var size uint32
	if err := binary.Read(r, binary.LittleEndian, &size); err != nil {
		return nil, fmt.Errorf("failed to read %s length: %w", what, err)
	}
	if int64(size) > int64(r.Len()) {
		return nil, fmt.Errorf("%s length %d exceeds remaining %d bytes", what, size, r.Len())
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", what, err)
	}
	return buf, nil
}

type mashupMetadata struct {
	Items []struct {
		ItemType string `xml:"ItemLocation>ItemType"`
		ItemPath string `xml:"ItemLocation>ItemPath"`
		Entries  []struct {
			Type  string `xml:"Type,attr"`
			Value string `xml:"Value,attr"`
		} `xml:"StableEntries>Entry"`
	} `xml:"Items>Item"`
}

// parseLoadFlags reads FillEnabled entries from the metadata part: a 4-byte version and
// a length-prefixed XML document. Anything unreadable yields an empty map.
func parseLoadFlags(metadata []byte) map[string]bool {
	out := make(map[string]bool)
	r := bytes.NewReader(metadata)
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return out
	}
	doc, err := readChunk(r, "metadata xml")
	if err != nil {
		return out
	}
	doc = bytes.TrimPrefix(doc, []byte("\xef\xbb\xbf"))

	var meta mashupMetadata
	if err := xml.Unmarshal(doc, &meta); err != nil {
		return out
	}
	for _, item := range meta.Items {
		if item.ItemType != "Formula" {
			continue
		}
		_, member, ok := strings.Cut(item.ItemPath, "/")
		if !ok {
			continue
		}
		if unescaped, err := url.PathUnescape(member); err == nil {
			member = unescaped
		}
		for _, entry := range item.Entries {
			if entry.Type != "FillEnabled" {
				continue
			}
			switch entry.Value {
			case "l1":
				out[member] = true
			case "l0":
				out[member] = false
			}
		}
	}
	return out
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
