package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/drugqa/internal/domain"
	"github.com/kailas-cloud/drugqa/internal/usecase/ask"
)

func newAskCmd(flags *globalFlags) *cobra.Command {
	var (
		tenants []string
		source  string
		drugID  string
		topK    int
		asJSON  bool
	)

	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer one question",
		Long: `Classify the question, query the selected tenants and prediction services,
and print the synthesized answer.

Examples:
  drugqa ask "What is the expected price of Drug X in Quebec?"
  drugqa ask --tenant public --tenant user-7 --source user-7 "Summarize my upload"
  drugqa ask --json "When will Drug X be reimbursed?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if topK < 0 || topK > domain.MaxTopK {
				return fmt.Errorf("--top-k must be between 0 and %d", domain.MaxTopK)
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

			resp, err := a.ask.Ask(cmd.Context(), ask.Request{
				Query:   strings.Join(args, " "),
				Tenants: tenantIDs(tenants),
				Source:  domain.TenantID(source),
				DrugID:  drugID,
				TopK:    topK,
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(resp)
			}
			fmt.Println(resp.Answer)
			fmt.Fprintf(os.Stderr, "\ncapabilities: %s\ntrace: %s\ntokens: embedding=%d completion=%d\n",
				strings.Join(resp.Capabilities, ","), strings.Join(resp.Evidence.IntentTrace, " "),
				resp.Usage.EmbeddingTokens, resp.Usage.CompletionTokens)
			return nil
		},
	}

	cmd.Flags().StringArrayVarP(&tenants, "tenant", "t", nil, "tenant to search (repeatable, default public)")
	cmd.Flags().StringVar(&source, "source", "", "restrict retrieval to one tenant")
	cmd.Flags().StringVar(&drugID, "drug-id", "", "restrict retrieval to one drug")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "number of chunks to retrieve")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full response as JSON")
	return cmd
}

func tenantIDs(in []string) []domain.TenantID {
	out := make([]domain.TenantID, len(in))
	for i, t := range in {
		out[i] = domain.TenantID(t)
	}
	return out
}
