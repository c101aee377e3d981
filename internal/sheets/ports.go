package sheets

import (
	"context"
	"fmt"
	"time"

	"finapp/internal/core"
)

const dateLayout = "2006-01-02"

// ExportRow is one transaction as written to the spreadsheet.
type ExportRow struct {
	TransactionID string
	Version       int64
	Date          time.Time
	Wallet        string
	Currency      string
	Type          core.TransactionType
	Category      string
	Note          string
	Amount        core.Money
}

// Values returns the spreadsheet columns: Date, Wallet, Type, Category, Note,
// Amount and a reference of the form "<id>@v<version>".
func (r ExportRow) Values() []any {
	return []any{
		r.Date.Format(dateLayout),
		r.Wallet,
		r.Type.String(),
		r.Category,
		r.Note,
		r.Amount.Float(),
		r.Ref(),
	}
}

func (r ExportRow) Ref() string {
	return fmt.Sprintf("%s@v%d", r.TransactionID, r.Version)
}

// TransactionExporter is the outbound port of the export worker.
type TransactionExporter interface {
	ExportTransaction(ctx context.Context, row ExportRow) (rowRef string, err error)
}
