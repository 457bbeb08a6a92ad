// Package filestore provides the artifact storage abstraction used by input
// nodes that reference a fileId, and the artifact-fence filter that keeps
// large binary/file payloads out of agent and validator prompts.
package filestore

import (
	"context"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

// Artifact is one stored file payload.
type Artifact struct {
	ID       string
	Name     string
	MimeType string
	Data     []byte
}

// FileStore persists artifacts produced during a run and resolves them back
// by id. Implementations must be safe for concurrent use, since multiple
// same-level nodes may write artifacts concurrently.
type FileStore interface {
	Put(ctx context.Context, name, mimeType string, data []byte) (Artifact, error)
	Get(ctx context.Context, id string) (Artifact, bool, error)
}

// Memory is an in-process FileStore backed by a map. Artifacts do not
// survive past the process, matching the engine's no-cross-run-state
// default.
type Memory struct {
	mu        sync.RWMutex
	artifacts map[string]Artifact
}

// NewMemory returns an empty in-memory FileStore.
func NewMemory() *Memory {
	return &Memory{artifacts: make(map[string]Artifact)}
}

func (m *Memory) Put(_ context.Context, name, mimeType string, data []byte) (Artifact, error) {
	a := Artifact{
		ID:       uuid.NewString(),
		Name:     name,
		MimeType: mimeType,
		Data:     data,
	}
	m.mu.Lock()
	m.artifacts[a.ID] = a
	m.mu.Unlock()
	return a, nil
}

func (m *Memory) Get(_ context.Context, id string) (Artifact, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.artifacts[id]
	if !ok {
		return Artifact{}, false, nil
	}
	return a, true, nil
}

// ArtifactPlaceholder is substituted for artifact payloads before they reach
// an agent or validator node's prompt.
const ArtifactPlaceholder = "[artifact removed]"

// artifactFenceRe matches a Markdown code fence tagged "artifact", e.g.
//
//	```artifact
//	{"type":"FeatureCollection", ...}
//	```
//
// Large binary/GeoJSON/image payloads are embedded this way so the filter
// can strip them before a node's result reaches an agent or validator
// prompt, without needing a separate reference/ID scheme.
var artifactFenceRe = regexp.MustCompile("(?s)```artifact\\s*\\n.*?```")

// FilterArtifacts replaces every ```artifact fenced block in text with
// ArtifactPlaceholder.
func FilterArtifacts(text string) string {
	return artifactFenceRe.ReplaceAllString(text, ArtifactPlaceholder)
}
