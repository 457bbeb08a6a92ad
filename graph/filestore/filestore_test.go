package filestore

import (
	"context"
	"testing"
)

func TestMemoryPutAndGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	a, err := m.Put(ctx, "report.pdf", "application/pdf", []byte("data"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if a.ID == "" {
		t.Fatal("expected a generated artifact id")
	}

	got, ok, err := m.Get(ctx, a.ID)
	if err != nil || !ok {
		t.Fatalf("Get: %v, ok=%v", err, ok)
	}
	if got.Name != "report.pdf" {
		t.Fatalf("Name = %q, want report.pdf", got.Name)
	}
}

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()
	_, ok, err := m.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for a missing artifact")
	}
}

func TestFilterArtifactsReplacesFence(t *testing.T) {
	text := "see\n```artifact\n{\"type\":\"FeatureCollection\"}\n```\nfor details"
	want := "see\n" + ArtifactPlaceholder + "\nfor details"
	if got := FilterArtifacts(text); got != want {
		t.Fatalf("FilterArtifacts = %q, want %q", got, want)
	}
}

func TestFilterArtifactsMultipleFences(t *testing.T) {
	text := "```artifact\naaa\n``` and ```artifact\nbbb\n```"
	want := ArtifactPlaceholder + " and " + ArtifactPlaceholder
	if got := FilterArtifacts(text); got != want {
		t.Fatalf("FilterArtifacts = %q, want %q", got, want)
	}
}

func TestFilterArtifactsNoFences(t *testing.T) {
	text := "plain text"
	if got := FilterArtifacts(text); got != text {
		t.Fatalf("FilterArtifacts = %q, want unchanged %q", got, text)
	}
}

func TestFilterArtifactsUnterminatedFenceLeftUnchanged(t *testing.T) {
	text := "broken ```artifact\nno closing fence here"
	if got := FilterArtifacts(text); got != text {
		t.Fatalf("FilterArtifacts = %q, want the text left unchanged when unterminated", got)
	}
}

func TestFilterArtifactsIgnoresOrdinaryCodeFences(t *testing.T) {
	text := "```go\nfmt.Println(\"hi\")\n```"
	if got := FilterArtifacts(text); got != text {
		t.Fatalf("FilterArtifacts = %q, want unchanged %q (non-artifact fence)", got, text)
	}
}
