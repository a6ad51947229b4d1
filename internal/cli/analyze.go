package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"claim-risk/internal/client"
	"claim-risk/internal/scoring"
)

func newAnalyzeCommand(v *viper.Viper) *cobra.Command {
	var (
		claim  scoring.ClaimInput
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze a single claim",
		Example: `  claimctl analyze --amount 15000 --diag-code X12 --provider-id PR001
  CLAIMRISK_SERVER=http://claims.internal:3000 claimctl analyze --amount 900 --diag-code A01 --provider-id PROV12345 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client.New(client.Config{
				BaseURL: v.GetString("server"),
				Timeout: v.GetDuration("timeout"),
			})
			if err != nil {
				return err
			}

			prediction, err := c.AnalyzeClaim(cmd.Context(), claim)
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(prediction)
			}
			printPrediction(cmd.OutOrStdout(), prediction)
			return nil
		},
	}

	cmd.Flags().Float64Var(&claim.Amount, "amount", 0, "claim amount")
	cmd.Flags().StringVar(&claim.DiagCode, "diag-code", "", "diagnosis code")
	cmd.Flags().StringVar(&claim.ProviderID, "provider-id", "", "provider identifier")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw prediction as JSON")
	_ = cmd.MarkFlagRequired("amount")

	return cmd
}

func printPrediction(w io.Writer, p scoring.Prediction) {
	fmt.Fprintf(w, "Risk score:  %d\n", p.Score)
	fmt.Fprintf(w, "Decision:    %s (%s)\n", p.Decision, p.DecisionClass)
	fmt.Fprintf(w, "Confidence:  %.1f\n", p.Confidence)
	fmt.Fprintln(w, "Factors:")
	for _, f := range p.Factors {
		fmt.Fprintf(w, "  - %s\n", strings.TrimSpace(f))
	}
}
