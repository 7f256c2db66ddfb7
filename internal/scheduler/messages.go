package scheduler

import (
	"fmt"
	"strings"

	"ratex/internal/discord"
	"ratex/pkg/domain"
)

// openingMessage объявление об открытии приёма заявок
func openingMessage(exchange *domain.Exchange) string {
	return fmt.Sprintf(
		"# %s is now open!\n"+
			"\n"+
			"Submit your games with `/submit`.\n"+
			"\n"+
			"Submissions close at %s your time or %s UTC.\n",
		exchange.DisplayName,
		discord.FormatLocal(exchange.SubmissionsEnd),
		discord.FormatUTC(exchange.SubmissionsEnd))
}

// closingMessage объявление о закрытии приёма и разосланной раздаче
func closingMessage(exchange *domain.Exchange) string {
	return fmt.Sprintf(
		"# %s is now closed!\n"+
			"\n"+
			"Assignments have been sent out. Check your DMs!\n",
		exchange.DisplayName)
}

// assignmentMessage личное сообщение участнику с его раздачей. Пустая
// раздача тоже проговаривается явно: молчание участник читает как
// поломку бота.
func assignmentMessage(exchange *domain.Exchange, assigned []domain.Submission) string {
	if len(assigned) == 0 {
		return fmt.Sprintf(
			"# Your assignments for %s\n"+
				"\n"+
				"There is nothing for you to review this time. Thank you for participating!\n",
			exchange.DisplayName)
	}

	var b strings.Builder
	fmt.Fprintf(&b,
		"# Your assignments for %s\n"+
			"\n"+
			"Please play and rate these games:\n"+
			"\n",
		exchange.DisplayName)
	for _, submission := range assigned {
		b.WriteString(submission.Link)
		b.WriteByte('\n')
	}
	return b.String()
}
