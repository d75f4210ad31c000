package graph

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aretw0/skphelp/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

//go:embed data/ekinerja.yaml
var defaultDocument []byte

// Document is the loaded reference data: the decision graph and the escalation contacts.
type Document struct {
	Graph    *Graph
	Contacts []domain.Contact
}

// nodeRecord is the authored shape of a node.
// Exactly one of Options or Solution must be set.
type nodeRecord struct {
	ID             string          `mapstructure:"id"`
	Text           string          `mapstructure:"text"`
	Options        []domain.Option `mapstructure:"options"`
	Solution       string          `mapstructure:"solution"`
	ContactTrigger bool            `mapstructure:"contact_trigger"`
}

type documentRecord struct {
	Root     string           `mapstructure:"root"`
	Nodes    []nodeRecord     `mapstructure:"nodes"`
	Contacts []domain.Contact `mapstructure:"contacts"`
}

// Default returns the embedded E-Kinerja troubleshooting tree.
func Default() (*Document, error) {
	return Load(bytes.NewReader(defaultDocument))
}

// Open returns the embedded tree when path is empty and the file at path otherwise.
func Open(path string) (*Document, error) {
	if path == "" {
		return Default()
	}
	return LoadFile(path)
}

// LoadFile reads a graph document from disk.
func LoadFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	doc, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load parses a YAML graph document and validates the resulting graph.
func Load(r io.Reader) (*Document, error) {
	var raw map[string]any
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidGraph)
		}
		return nil, fmt.Errorf("failed to parse graph yaml: %w", err)
	}

	var rec documentRecord
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &rec,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	nodes := make([]domain.Node, 0, len(rec.Nodes))
	var problems []string
	for _, nr := range rec.Nodes {
		n, err := nr.toNode()
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		nodes = append(nodes, n)
	}
	if len(problems) > 0 {
		return nil, &ValidationError{Problems: problems}
	}

	g, err := New(rec.Root, nodes...)
	if err != nil {
		return nil, err
	}

	return &Document{Graph: g, Contacts: rec.Contacts}, nil
}

func (r nodeRecord) toNode() (domain.Node, error) {
	hasOptions := len(r.Options) > 0
	hasSolution := strings.TrimSpace(r.Solution) != ""

	switch {
	case hasOptions && hasSolution:
		return nil, fmt.Errorf("node '%s' has both options and a solution", r.ID)
	case hasOptions:
		if r.ContactTrigger {
			return nil, fmt.Errorf("node '%s' sets contact_trigger without a solution", r.ID)
		}
		return domain.Branch{ID: r.ID, Text: r.Text, Options: r.Options}, nil
	case hasSolution:
		return domain.Terminal{
			ID:             r.ID,
			Text:           r.Text,
			Solution:       r.Solution,
			ContactTrigger: r.ContactTrigger,
		}, nil
	default:
		return nil, fmt.Errorf("node '%s' has neither options nor a solution", r.ID)
	}
}
