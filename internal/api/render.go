package telegram

import (
	"errors"
	"fmt"
	"strings"

	"rescue-bot/internal/domain/entity"
)

// breedNotApplicable значение breed_guess, когда породу определить нельзя
const breedNotApplicable = "N/A"

var severityBadge = map[entity.Severity]string{
	entity.SeverityHigh:    "🔴 High",
	entity.SeverityMedium:  "🟠 Medium",
	entity.SeverityLow:     "🟢 Low",
	entity.SeverityUnknown: "⚪ Unknown",
}

// renderReport форматирует итог анализа для отправки в чат
func renderReport(r *entity.AnalysisResult) string {
	var b strings.Builder

	b.WriteString("🐾 Analysis complete!\n\n")
	fmt.Fprintf(&b, "Animal: %s", r.AnimalType)
	if breed := r.BreedGuess; breed != nil && !strings.EqualFold(strings.TrimSpace(*breed), breedNotApplicable) {
		fmt.Fprintf(&b, " (%s)", *breed)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Injury: %s\n", r.Injury)
	fmt.Fprintf(&b, "Severity: %s\n", severityBadge[r.Severity])

	if r.PersonnelRequired != nil {
		fmt.Fprintf(&b, "Personnel required: %s\n", *r.PersonnelRequired)
	}
	if r.EnvironmentFactors != nil {
		fmt.Fprintf(&b, "Environment: %s\n", *r.EnvironmentFactors)
	}

	if len(r.Equipment) > 0 {
		b.WriteString("\n🧰 Equipment:\n")
		for _, item := range r.Equipment {
			fmt.Fprintf(&b, "• %s\n", item)
		}
	}

	if len(r.Procedure) > 0 {
		b.WriteString("\n🩹 Procedure:\n")
		for i, step := range r.Procedure {
			fmt.Fprintf(&b, "%d. %s\n", i+1, step)
		}
	}

	if r.Suggestions != nil {
		fmt.Fprintf(&b, "\n💡 Suggestions: %s\n", *r.Suggestions)
	}

	fmt.Fprintf(&b, "\n📍 %.5f, %.5f\n", r.Coordinates.Latitude, r.Coordinates.Longitude)
	fmt.Fprintf(&b, "Report ID: %s", r.ReportID)

	return b.String()
}

// renderFailure текст для состояния failed
func renderFailure(err error) string {
	var text string
	switch entity.KindOf(err) {
	case entity.KindServer:
		var srvErr *entity.ServerError
		errors.As(err, &srvErr)
		text = "❌ Analysis failed: " + srvErr.Message
	case entity.KindNetwork:
		text = "📡 Network error. Please check your connection and try again."
	case entity.KindParse:
		text = "🧩 Unable to parse analysis results."
	case entity.KindImage:
		text = "🖼 The photo could not be read. Please pick another one."
	default:
		text = msgProcessingError
	}
	return text + "\n\n" + msgRetryHint
}
