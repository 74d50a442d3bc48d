package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/drugqa/internal/config"
	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/ingest"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()
	want := []string{"serve", "ask", "ingest", "purge", "stats", "version"}
	for _, name := range want {
		cmd, _, err := root.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("subcommand %s not found: %v", name, err)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	if err := root.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.HasPrefix(out.String(), "drugqa dev") {
		t.Errorf("unexpected output %q", out.String())
	}
}

func TestPurgeCmd_RequiresExactlyOneTarget(t *testing.T) {
	for _, args := range [][]string{
		{"purge"},
		{"purge", "--drug-id", "d1", "--file-id", "f1"},
	} {
		root := newRootCmd()
		root.SetArgs(args)
		if err := root.Execute(); err == nil {
			t.Errorf("args %v: expected error", args)
		}
	}
}

func TestAskCmd_RejectsTopKOutOfRange(t *testing.T) {
	for _, k := range []string{"-1", "101", "4611686018427387904"} {
		root := newRootCmd()
		root.SetArgs([]string{"ask", "--top-k", k, "price of DrugX"})
		err := root.Execute()
		if err == nil || !strings.Contains(err.Error(), "top-k") {
			t.Errorf("--top-k %s: expected range error, got %v", k, err)
		}
	}
}

func TestCollectDocuments_Files(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "alpha text")
	b := writeFile(t, dir, "b.txt", "beta text")

	docs, err := collectDocuments("", []string{a, b}, ingest.Document{DrugID: "d1", Source: "CDA"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].Filename != "a.txt" || docs[0].Text != "alpha text" || docs[0].Source != "CDA" {
		t.Errorf("unexpected first doc: %+v", docs[0])
	}
	if docs[0].FileID == "" || docs[0].FileID == docs[1].FileID {
		t.Errorf("expected distinct generated file ids, got %q and %q", docs[0].FileID, docs[1].FileID)
	}
}

func TestCollectDocuments_Manifest(t *testing.T) {
	dir := t.TempDir()
	m := writeFile(t, dir, "docs.json", `[{"drug_id":"d1","file_id":"f1","text":"t"}]`)

	docs, err := collectDocuments(m, nil, ingest.Document{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 1 || docs[0].FileID != "f1" {
		t.Errorf("unexpected docs: %+v", docs)
	}
}

func TestCollectDocuments_Errors(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.txt", "x")
	b := writeFile(t, dir, "b.txt", "y")
	m := writeFile(t, dir, "bad.json", `{"not":"an array"}`)

	tests := []struct {
		name     string
		manifest string
		files    []string
		tmpl     ingest.Document
	}{
		{"no input", "", nil, ingest.Document{DrugID: "d1"}},
		{"missing drug id", "", []string{a}, ingest.Document{}},
		{"file id with many files", "", []string{a, b}, ingest.Document{DrugID: "d1", FileID: "f1"}},
		{"manifest and files", m, []string{a}, ingest.Document{}},
		{"bad manifest", m, nil, ingest.Document{}},
		{"missing file", "", []string{filepath.Join(dir, "nope.txt")}, ingest.Document{DrugID: "d1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := collectDocuments(tt.manifest, tt.files, tt.tmpl); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func memoryConfig() config.Config {
	cfg := config.Config{
		HTTP:    config.HTTPConfig{Port: 8080},
		Storage: config.StorageConfig{Backend: config.BackendMemory},
		Embedding: config.EmbeddingConfig{
			Providers: map[string]config.ProviderConfig{"openai": {APIKey: "test", BaseURL: "http://127.0.0.1:1"}},
			Vectorizers: map[string]config.VectorizerConfig{
				"small": {Provider: "openai", Model: "text-embedding-3-small", Dimensions: 4},
			},
			Vectorizer: "small",
		},
		Completion: config.CompletionConfig{
			Provider:        "openai",
			ClassifierModel: "gpt-4o-mini",
			SynthesisModel:  "gpt-4o",
		},
		Prediction: config.PredictionConfig{
			Price: config.ServiceConfig{URL: "http://127.0.0.1:1/price", DependsOnRetrieval: true},
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestBuildApp_MemoryBackend(t *testing.T) {
	cfg := memoryConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config invalid: %v", err)
	}

	a, err := buildApp(context.Background(), cfg, zap.NewNop())
	if err != nil {
		t.Fatalf("buildApp: %v", err)
	}
	defer a.Close()

	stats, err := a.ingest.Stats(context.Background(), domain.PublicTenant)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Chunks != 0 || stats.Dimension != 4 {
		t.Errorf("unexpected stats: %+v", stats)
	}
}

func TestBuildRegistry_SkipsUnconfiguredServices(t *testing.T) {
	cfg := memoryConfig()
	cfg.Prediction.Price.URL = ""

	reg, err := buildRegistry(cfg, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if _, err := reg.Lookup(domain.CapabilityRetrieval); err != nil {
		t.Errorf("retrieval should be registered: %v", err)
	}
	if _, err := reg.Lookup(domain.CapabilityPricePrediction); err == nil {
		t.Error("price prediction should not be registered without a url")
	}
}

func TestBuildRegistry_DependsOnRetrieval(t *testing.T) {
	cfg := memoryConfig()

	reg, err := buildRegistry(cfg, nil, nil, zap.NewNop())
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	r, err := reg.Lookup(domain.CapabilityPricePrediction)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if !r.DependsOnRetrieval {
		t.Error("price prediction should depend on retrieval")
	}
}
