// Package categorize handles single transaction categorization commands
package categorize

import (
	"fmt"
	"strings"

	"fjacquet/cascade-categorizer/cmd/root"
	"fjacquet/cascade-categorizer/internal/dateutils"
	"fjacquet/cascade-categorizer/internal/logging"
	"fjacquet/cascade-categorizer/internal/models"

	"github.com/spf13/cobra"
)

var (
	description string
	amount      string
	hint        string
	thirdParty  string
	date        string
)

// Cmd represents the categorize command
var Cmd = &cobra.Command{
	Use:   "categorize",
	Short: "Categorize a single transaction",
	Long: `Categorize a single transaction from its description and signed amount.

Negative amounts are debits and may only receive expense codes; positive
amounts are credits and may only receive income codes or the refund code.

Example:
  cascade categorize -d "WOOLWORTHS 1234 MELBOURNE VIC" -a -45.50 --hint Groceries`,
	RunE: categorizeFunc,
}

func init() {
	Cmd.Flags().StringVarP(&description, "description", "d", "", "Transaction description")
	Cmd.Flags().StringVarP(&amount, "amount", "a", "", "Signed transaction amount (negative for debits)")
	Cmd.Flags().StringVar(&hint, "hint", "", "Bank-supplied category hint (optional)")
	Cmd.Flags().StringVar(&thirdParty, "third-party", "", "Third-party payment provider (optional)")
	Cmd.Flags().StringVarP(&date, "date", "t", "", "Transaction date (optional)")
	_ = Cmd.MarkFlagRequired("description")
	_ = Cmd.MarkFlagRequired("amount")
}

// buildTransaction turns the command flags into a transaction.
func buildTransaction(description, amount, hint, thirdParty, date string) (models.Transaction, error) {
	if strings.TrimSpace(description) == "" {
		return models.Transaction{}, fmt.Errorf("description is required")
	}
	value, err := models.ParseAmount(amount)
	if err != nil {
		return models.Transaction{}, err
	}

	tx := models.Transaction{
		Description:  strings.TrimSpace(description),
		Amount:       value,
		HintCategory: strings.TrimSpace(hint),
		ThirdParty:   strings.TrimSpace(thirdParty),
	}
	if date != "" {
		parsed, _, err := dateutils.ParseDate(date)
		if err != nil {
			return models.Transaction{}, err
		}
		tx.Date = parsed
	}
	return tx, nil
}

func categorizeFunc(cmd *cobra.Command, args []string) error {
	c, err := root.RequireContainer()
	if err != nil {
		return err
	}

	tx, err := buildTransaction(description, amount, hint, thirdParty, date)
	if err != nil {
		return err
	}

	// A one-element batch lets the detector pick up the configured accounts.
	predictions, err := c.GetCategorizer().CategorizeBatch(cmd.Context(), []models.Transaction{tx})
	if err != nil {
		return fmt.Errorf("error categorizing transaction: %w", err)
	}
	prediction := predictions[0]

	root.Log.Info("Transaction categorized",
		logging.F(logging.FieldCategory, prediction.Code),
		logging.F(logging.FieldConfidence, prediction.Confidence),
		logging.F(logging.FieldSource, prediction.Source.String()))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Code:       %s\n", prediction.Code)
	fmt.Fprintf(out, "Category:   %s\n", c.GetTaxonomy().Name(prediction.Code))
	fmt.Fprintf(out, "Confidence: %.2f\n", prediction.Confidence)
	fmt.Fprintf(out, "Source:     %s\n", prediction.Source)
	if prediction.Reason != "" {
		fmt.Fprintf(out, "Reason:     %s\n", prediction.Reason)
	}
	return nil
}
