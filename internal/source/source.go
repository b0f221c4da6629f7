// Package source acquires the OpenAPI document for a sync run, either from
// a local file or by exporting a deployed API Gateway stage. Content is
// treated as opaque text; the only introspection is a shallow title read
// used to default the hub spec name.
package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Mode selects the acquisition strategy for a run.
type Mode string

const (
	// ModeLocal reads a pre-existing spec file.
	ModeLocal Mode = "local"
	// ModeExport exports the spec from an API Gateway stage.
	ModeExport Mode = "export"
)

// Document is an acquired OpenAPI document. Immutable for the run.
type Document struct {
	Content  string
	Type     string // always "openapi3"
	Language string // "yaml" or "json"
}

// Params carries the per-run acquisition inputs. OutPath is where the
// acquired document is persisted in both modes.
type Params struct {
	LocalPath string

	Region    string
	RestAPIID string
	StageName string

	OutPath string
}

// Source acquires spec documents. Exporter is only consulted in export
// mode.
type Source struct {
	Exporter Exporter
}

// Acquire produces the run's document and persists it to p.OutPath. In
// local mode the copy is skipped when input and output paths coincide.
func (s *Source) Acquire(ctx context.Context, mode Mode, p Params) (*Document, error) {
	switch mode {
	case ModeLocal:
		return s.acquireLocal(p)
	case ModeExport:
		return s.acquireExport(ctx, p)
	default:
		return nil, &ConfigError{Reason: fmt.Sprintf("unknown acquisition mode %q", mode)}
	}
}

func (s *Source) acquireLocal(p Params) (*Document, error) {
	data, err := os.ReadFile(p.LocalPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: p.LocalPath}
		}
		return nil, fmt.Errorf("reading %s: %w", p.LocalPath, err)
	}
	if filepath.Clean(p.LocalPath) != filepath.Clean(p.OutPath) {
		if err := os.WriteFile(p.OutPath, data, 0o644); err != nil {
			return nil, fmt.Errorf("writing copy to %s: %w", p.OutPath, err)
		}
	}
	return newDocument(string(data)), nil
}

func (s *Source) acquireExport(ctx context.Context, p Params) (*Document, error) {
	var missing []string
	for _, f := range []struct{ flag, val string }{
		{"--region", p.Region},
		{"--rest-api-id", p.RestAPIID},
		{"--stage-name", p.StageName},
	} {
		if f.val == "" {
			missing = append(missing, f.flag)
		}
	}
	if len(missing) > 0 {
		return nil, &ConfigError{
			Reason: "missing required arguments for export mode: " +
				strings.Join(missing, ", ") + " (or provide --local-spec)",
		}
	}

	err := s.Exporter.Export(ctx, ExportInput{
		Region:    p.Region,
		RestAPIID: p.RestAPIID,
		StageName: p.StageName,
		OutPath:   p.OutPath,
	})
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p.OutPath)
	if err != nil {
		return nil, fmt.Errorf("reading exported spec %s: %w", p.OutPath, err)
	}
	return newDocument(string(data)), nil
}

func newDocument(content string) *Document {
	return &Document{
		Content:  content,
		Type:     "openapi3",
		Language: DetectLanguage(content),
	}
}

// DetectLanguage classifies the document as JSON or YAML. JSON documents
// start with an object or array opener; everything else is YAML.
func DetectLanguage(content string) string {
	trimmed := strings.TrimSpace(content)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		return "json"
	}
	return "yaml"
}

// DefaultName derives a hub spec name from the document's info.title.
// Returns "" when the document has no readable title.
func DefaultName(content string) string {
	var doc struct {
		Info struct {
			Title string `yaml:"title"`
		} `yaml:"info"`
	}
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil || doc.Info.Title == "" {
		return ""
	}
	return doc.Info.Title + " (Spec Hub)"
}
