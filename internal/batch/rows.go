package batch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fjacquet/cascade-categorizer/internal/dateutils"
	"fjacquet/cascade-categorizer/internal/models"
	"fjacquet/cascade-categorizer/internal/parsererror"
)

// InputRow is one line of a transaction export.
type InputRow struct {
	Date          string `csv:"date"`
	Description   string `csv:"description"`
	Amount        string `csv:"amount"`
	HintCategory  string `csv:"hint_category"`
	ThirdParty    string `csv:"third_party"`
	AccountNumber string `csv:"account_number"`
	BSB           string `csv:"bsb"`
}

// OutputRow is an input row plus the decision.
type OutputRow struct {
	Date          string `csv:"date"`
	Description   string `csv:"description"`
	Amount        string `csv:"amount"`
	HintCategory  string `csv:"hint_category"`
	ThirdParty    string `csv:"third_party"`
	AccountNumber string `csv:"account_number"`
	BSB           string `csv:"bsb"`
	CategoryCode  string `csv:"category_code"`
	CategoryName  string `csv:"category_name"`
	Confidence    string `csv:"confidence"`
	Source        string `csv:"source"`
	Reason        string `csv:"reason"`
}

var errEmptyDescription = errors.New("description is empty")

// toTransaction converts a row. source identifies the row in errors, e.g.
// "in.csv:12".
func (r InputRow) toTransaction(source string) (models.Transaction, error) {
	desc := strings.TrimSpace(r.Description)
	if desc == "" {
		return models.Transaction{}, &parsererror.ParseError{Source: source, Field: "description", Value: r.Description, Err: errEmptyDescription}
	}

	amount, err := models.ParseAmount(r.Amount)
	if err != nil {
		return models.Transaction{}, &parsererror.ParseError{Source: source, Field: "amount", Value: r.Amount, Err: err}
	}

	var date time.Time
	if strings.TrimSpace(r.Date) != "" {
		date, _, err = dateutils.ParseDate(r.Date)
		if err != nil {
			return models.Transaction{}, &parsererror.ParseError{Source: source, Field: "date", Value: r.Date, Err: err}
		}
	}

	return models.Transaction{
		Date:          date,
		Description:   desc,
		Amount:        amount,
		HintCategory:  strings.TrimSpace(r.HintCategory),
		ThirdParty:    strings.TrimSpace(r.ThirdParty),
		AccountNumber: strings.TrimSpace(r.AccountNumber),
		BSB:           strings.TrimSpace(r.BSB),
	}, nil
}

func newOutputRow(tx models.Transaction, p models.CategoryPrediction, taxonomy *models.Taxonomy, dateLayout string) OutputRow {
	return OutputRow{
		Date:          dateutils.FormatDate(tx.Date, dateLayout),
		Description:   tx.Description,
		Amount:        tx.Amount.StringFixed(2),
		HintCategory:  tx.HintCategory,
		ThirdParty:    tx.ThirdParty,
		AccountNumber: tx.AccountNumber,
		BSB:           tx.BSB,
		CategoryCode:  p.Code,
		CategoryName:  taxonomy.Name(p.Code),
		Confidence:    fmt.Sprintf("%.2f", p.Confidence),
		Source:        p.Source.String(),
		Reason:        p.Reason,
	}
}
