package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// IntegrityAlert describes a failed ledger verification.
type IntegrityAlert struct {
	PortfolioID      string
	EntriesChecked   int64
	FirstBadSequence *int64
	Reason           string
	VerifiedAt       time.Time
}

// FormatIntegrityAlert renders a failed verification as a Markdown message.
func FormatIntegrityAlert(a IntegrityAlert) string {
	var sb strings.Builder
	sb.WriteString("🚨 *Ledger integrity check FAILED* 🚨\n\n")
	sb.WriteString(fmt.Sprintf("📁 *Portfolio:* `%s`\n", a.PortfolioID))
	sb.WriteString(fmt.Sprintf("🔢 *Entries checked:* %d\n", a.EntriesChecked))
	if a.FirstBadSequence != nil {
		sb.WriteString(fmt.Sprintf("❌ *First bad entry:* #%d\n", *a.FirstBadSequence))
	}
	if a.Reason != "" {
		sb.WriteString(fmt.Sprintf("💬 *Reason:* %s\n", tgbotapi.EscapeText(tgbotapi.ModeMarkdown, a.Reason)))
	}
	sb.WriteString(fmt.Sprintf("🕒 *Verified at:* %s\n", a.VerifiedAt.UTC().Format(time.RFC3339)))
	return sb.String()
}
