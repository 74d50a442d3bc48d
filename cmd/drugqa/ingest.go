package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/ingest"
)

func newIngestCmd(flags *globalFlags) *cobra.Command {
	var (
		tenant   string
		manifest string
		doc      ingest.Document
	)

	cmd := &cobra.Command{
		Use:   "ingest [file.txt ...]",
		Short: "Chunk, embed and index plain-text documents",
		Long: `Index plain-text files for a tenant. Each file becomes one document sharing
the drug flags. A missing --file-id gets a random one per file.

Alternatively --manifest reads a JSON array of documents with the same
fields the HTTP API accepts.

Examples:
  drugqa ingest --tenant public --drug-id d1 --title "Drug X" --source CDA review.txt
  drugqa ingest --tenant user-7 --manifest docs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			docs, err := collectDocuments(manifest, args, doc)
			if err != nil {
				return err
			}

			cfg, logger, err := flags.load(true)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			a, err := buildApp(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.ingest.Ingest(cmd.Context(), domain.TenantID(tenant), docs...)
			if err != nil {
				return err
			}
			fmt.Printf("indexed %d chunks from %d documents into %s\n", len(res.ChunkIDs), len(docs), res.Tenant)
			return nil
		},
	}

	cmd.Flags().StringVarP(&tenant, "tenant", "t", string(domain.PublicTenant), "tenant index to write")
	cmd.Flags().StringVar(&manifest, "manifest", "", "JSON file with an array of documents")
	cmd.Flags().StringVar(&doc.DrugID, "drug-id", "", "drug identifier")
	cmd.Flags().StringVar(&doc.DrugTitle, "title", "", "drug title")
	cmd.Flags().StringVar(&doc.FileID, "file-id", "", "file identifier")
	cmd.Flags().StringVar(&doc.URL, "url", "", "source document URL")
	cmd.Flags().StringVar(&doc.Source, "source", "", "publisher, e.g. CDA or INESSS")
	cmd.Flags().StringVar(&doc.TherapeuticArea, "therapeutic-area", "", "therapeutic area")
	cmd.Flags().StringVar(&doc.DrugType, "drug-type", "", "drug type")
	cmd.Flags().StringVar(&doc.SubmissionPathway, "pathway", "", "submission pathway")
	return cmd
}

// collectDocuments reads either a manifest or plain-text files using tmpl for lineage.
func collectDocuments(manifest string, files []string, tmpl ingest.Document) ([]ingest.Document, error) {
	if manifest != "" {
		if len(files) > 0 {
			return nil, errors.New("use either --manifest or file arguments, not both")
		}
		data, err := os.ReadFile(filepath.Clean(manifest))
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		var docs []ingest.Document
		if err := json.Unmarshal(data, &docs); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
		return docs, nil
	}

	if len(files) == 0 {
		return nil, errors.New("no input: pass text files or --manifest")
	}
	if tmpl.DrugID == "" {
		return nil, errors.New("--drug-id is required")
	}
	if tmpl.FileID != "" && len(files) > 1 {
		return nil, errors.New("--file-id applies to a single file")
	}

	docs := make([]ingest.Document, 0, len(files))
	for _, path := range files {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		d := tmpl
		d.Filename = filepath.Base(path)
		d.Text = string(data)
		if d.FileID == "" {
			d.FileID = uuid.NewString()
		}
		docs = append(docs, d)
	}
	return docs, nil
}
