// Package ingest drives one spec sync run end to end: acquire the
// document, look it up in the hub by name, create or update it, then
// trigger collection generation.
//
// A run is strictly linear and holds no state afterwards; the hub is the
// only durable store. Concurrent runs against the same workspace and name
// are not coordinated and can race (duplicate specs or lost updates).
package ingest

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/techcorp/spechub-sync/internal/hub"
	"github.com/techcorp/spechub-sync/internal/source"
)

// FallbackSpecName is used when no name was given and the document carries
// no readable title.
const FallbackSpecName = "OpenAPI Spec (Spec Hub)"

// HubClient is the surface of the spec hub the syncer drives.
type HubClient interface {
	ListSpecs(ctx context.Context, workspaceID string) ([]hub.SpecRef, error)
	CreateSpec(ctx context.Context, workspaceID string, doc hub.Document) (hub.SpecRef, error)
	UpdateSpec(ctx context.Context, specID string, doc hub.Document) error
	TriggerGeneration(ctx context.Context, specID string) (hub.Generation, error)
}

// Action records whether the run created a new hub spec or updated an
// existing one.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Result is the outcome of one run. GenerationErr is set when the
// generation trigger failed after a durable create/update; the run is then
// a partial success, not a failure.
type Result struct {
	Action        Action
	SpecID        string
	SpecName      string
	Generation    hub.Generation
	GenerationErr error
}

// Input carries the per-run parameters.
type Input struct {
	WorkspaceID string
	SpecName    string // optional; defaulted from the document title
	Mode        source.Mode
	Params      source.Params
}

// Syncer performs sync runs. Out receives human-readable progress; it
// defaults to stdout.
type Syncer struct {
	Source *source.Source
	Hub    HubClient
	Out    io.Writer
}

const banner = "============================================================"

// Run executes one sync. Acquisition, lookup and write failures are fatal;
// a generation-trigger failure is reported in the Result instead.
func (s *Syncer) Run(ctx context.Context, in Input) (*Result, error) {
	s.printf("%s\n", banner)
	if in.Mode == source.ModeLocal {
		s.printf("Step 1: Load OpenAPI from local file\n")
	} else {
		s.printf("Step 1: Export OpenAPI from API Gateway\n")
	}
	s.printf("%s\n", banner)

	doc, err := s.Source.Acquire(ctx, in.Mode, in.Params)
	if err != nil {
		return nil, err
	}
	if in.Mode == source.ModeLocal {
		s.printf("Loaded spec from %s (%d chars)\n", in.Params.LocalPath, len(doc.Content))
		if filepath.Clean(in.Params.LocalPath) != filepath.Clean(in.Params.OutPath) {
			s.printf("Wrote copy to %s\n", in.Params.OutPath)
		}
	} else {
		s.printf("Exported spec to %s (%d chars)\n", in.Params.OutPath, len(doc.Content))
	}

	name := in.SpecName
	if name == "" {
		if name = source.DefaultName(doc.Content); name == "" {
			name = FallbackSpecName
		}
	}

	s.printf("\n%s\n", banner)
	s.printf("Step 2: Upsert spec to Spec Hub\n")
	s.printf("%s\n", banner)

	payload := hub.Document{
		Name:     name,
		Type:     doc.Type,
		Language: doc.Language,
		Content:  doc.Content,
	}

	refs, err := s.Hub.ListSpecs(ctx, in.WorkspaceID)
	if err != nil {
		return nil, fmt.Errorf("listing specs: %w", err)
	}

	res := &Result{SpecName: name}
	if existing, ok := firstByName(refs, name); ok {
		if err := s.Hub.UpdateSpec(ctx, existing.ID, payload); err != nil {
			return nil, fmt.Errorf("updating spec %s: %w", existing.ID, err)
		}
		res.Action = ActionUpdated
		res.SpecID = existing.ID
		s.printf("Updated spec: %s (id=%s)\n", name, existing.ID)
	} else {
		ref, err := s.Hub.CreateSpec(ctx, in.WorkspaceID, payload)
		if err != nil {
			return nil, fmt.Errorf("creating spec: %w", err)
		}
		res.Action = ActionCreated
		res.SpecID = ref.ID
		s.printf("Created spec: %s (id=%s)\n", name, ref.ID)
	}

	s.printf("\n%s\n", banner)
	s.printf("Step 3: Generate baseline collection from spec\n")
	s.printf("%s\n", banner)

	gen, err := s.Hub.TriggerGeneration(ctx, res.SpecID)
	if err != nil {
		// The spec write is already durable; report and carry on.
		res.GenerationErr = err
		s.printf("WARNING: generation trigger failed: %v\n", err)
	} else {
		res.Generation = gen
		s.printf("Generation request completed (response keys: %s)\n", strings.Join(gen.Keys(), ", "))
	}

	s.printf("\n%s\n", banner)
	if res.GenerationErr != nil {
		s.printf("DONE (partial) - spec synced, generation trigger failed\n")
	} else {
		s.printf("DONE - Ingestion complete\n")
	}
	s.printf("%s\n", banner)
	return res, nil
}

// firstByName returns the first ref whose name matches exactly. First
// match by list order is canonical; duplicates later in the list are
// ignored. A first match without an id falls through to the create path.
func firstByName(refs []hub.SpecRef, name string) (hub.SpecRef, bool) {
	for _, ref := range refs {
		if ref.Name == name {
			return ref, ref.ID != ""
		}
	}
	return hub.SpecRef{}, false
}

func (s *Syncer) printf(format string, args ...any) {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, args...)
}
