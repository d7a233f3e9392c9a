package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/syoopie/money-collection-bot/internal/domain"
)

// DebtListString renders a debt list for display. Entries keep their
// persisted insertion order; a settled entry drops its "@" marker so paid
// lines are visually distinct. The stored UTC timestamp is converted to loc
// at render time only.
func DebtListString(list domain.DebtList, debts []domain.Debt, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nPay to: %s\n\n", list.Name, list.PhoneNumber)

	for _, d := range debts {
		if d.Paid {
			fmt.Fprintf(&b, "%s - %s ✅\n", d.OwedBy, d.Amount.StringFixed(2))
		} else {
			fmt.Fprintf(&b, "@%s - %s ❌\n", d.OwedBy, d.Amount.StringFixed(2))
		}
	}

	fmt.Fprintf(&b, "\nMessage last updated at %s",
		list.LastUpdated.In(loc).Format("2006-01-02 15:04:05"))
	return b.String()
}
