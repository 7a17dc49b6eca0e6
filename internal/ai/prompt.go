package ai

import (
	"fmt"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const systemInstruction = "You're a friendly and knowledgeable customer support assistant."

// BuildPrompt prepares the structured prompt for a streamed response: one
// fixed system instruction and one user turn embedding the issue description,
// the serialized thread history, and the latest customer utterance. When the
// thread holds no customer message the ticket description substitutes for it.
func BuildPrompt(ticket *domain.Ticket, history []domain.Message, lastCustomer *domain.Message) []Turn {
	lines := make([]string, 0, len(history))
	for _, msg := range history {
		speaker := "Customer"
		if msg.IsAI {
			speaker = "Agent"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, msg.Content))
	}

	latest := fmt.Sprintf("Customer: %s", ticket.Description)
	if lastCustomer != nil {
		latest = fmt.Sprintf("Customer: %s", lastCustomer.Content)
	}

	userTurn := fmt.Sprintf(
		"A customer is facing this issue: %s\n\n"+
			"Messages history: %s\n\n"+
			"Their latest message is: %s\n\n"+
			"Please craft a helpful and thoughtful response to assist them.",
		ticket.Description,
		strings.Join(lines, "\n"),
		latest,
	)

	return []Turn{
		{Role: RoleSystem, Content: systemInstruction},
		{Role: RoleUser, Content: userTurn},
	}
}
