package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/brainforcegit/vin-bot/internal/models"
	"github.com/brainforcegit/vin-bot/internal/services"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// CheckVINButton is the reply keyboard button that asks for a VIN.
const CheckVINButton = "🔍 Check VIN"

const (
	startText = "📟 <b>CarFact</b> checks a vehicle's history by its VIN.\n" +
		"🚗 Find out:\n" +
		"• how many <b>owners</b> the car had\n" +
		"• whether it was in any <b>accidents</b>\n" +
		"• its <b>mileage</b>\n" +
		"• where and when it was <b>imported</b>\n\n" +
		"Press \"" + CheckVINButton + "\" to start.\n\n" +
		"/history shows your last checks, /buy 1 or /buy 3 buys paid checks, " +
		"/balance shows what is left and /report VIN spends one."

	vinPromptText      = "📥 Please send the vehicle's VIN (17 characters)."
	invalidVINText     = "⚠️ Invalid VIN. It must be 17 characters, letters and digits only."
	emptyHistoryText   = "❗ You have not checked any VIN yet."
	buyUsageText       = "Choose a quantity: 1 or 3 (for example /buy 3)."
	reportUsageText    = "Usage: /report <VIN> (17 letters or digits)."
	noCreditsText      = "You have no paid checks left. Buy some with /buy 1 or /buy 3."
	unknownCommandText = "Unknown command. Send /help for the list of commands."
	apologyText        = "⚠️ Sorry, something went wrong. Please try again later."
)

// MainKeyboard is the reply keyboard attached to /start.
func MainKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(CheckVINButton)))
	kb.ResizeKeyboard = true
	return kb
}

// RenderReport formats a report as Telegram HTML. Only fields the decoder
// returned are shown.
func RenderReport(r *models.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 <b>Vehicle report</b> (%s)\n", html.EscapeString(r.VIN))

	rows := []struct {
		label string
		value *string
	}{
		{"🏷️ Make", r.Make},
		{"🚘 Model", r.Model},
		{"📆 Year", r.Year},
		{"🚗 Type", r.VehicleType},
		{"🏭 Plant", r.PlantCountry},
		{"🚙 Body", r.BodyClass},
		{"👥 Owners", r.Owners},
		{"🛣️ Mileage", r.Mileage},
		{"💥 Accidents", r.Accident},
		{"🚢 Imported", r.Imported},
	}

	written := 0
	for _, row := range rows {
		if row.value == nil {
			continue
		}
		if written == 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", row.label, html.EscapeString(*row.value))
		written++
	}
	if written == 0 {
		b.WriteString("\nNo data found for this VIN.")
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderHistory formats the newest-first history as a numbered list.
func RenderHistory(entries []services.HistoryEntry) string {
	var b strings.Builder
	b.WriteString("<b>📜 Your latest VIN checks</b>:\n\n")
	for i, e := range entries {
		model := valueOr(e.Report.Model, "n/a")
		year := valueOr(e.Report.Year, "n/a")
		paid := ""
		if models.ParseIdentity(e.UserID).IsPaid() {
			paid = " 💳"
		}
		fmt.Fprintf(&b, "%d. %s — %s, %s%s\n", i+1, html.EscapeString(e.VIN), html.EscapeString(model), html.EscapeString(year), paid)
	}
	return strings.TrimRight(b.String(), "\n")
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
