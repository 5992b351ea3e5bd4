package services

import (
	"fmt"
	"strings"

	"github.com/brookstone/whatsapp-bot/internal/models"
)

// historyWindow is how many trailing turns the dispatcher passes to Build.
const historyWindow = 4

// PromptBuilder composes generative prompts for project questions.
type PromptBuilder struct {
	kb         *KnowledgeBase
	agentPhone string
}

// NewPromptBuilder creates a prompt builder over kb.
func NewPromptBuilder(kb *KnowledgeBase, agentPhone string) *PromptBuilder {
	return &PromptBuilder{kb: kb, agentPhone: agentPhone}
}

// Build narrows the knowledge base for question and embeds it with history
// and the answering instructions. Callers window history themselves.
func (p *PromptBuilder) Build(question string, lang models.Language, history []models.ChatTurn) (string, error) {
	sections := p.kb.Select(question, lang)
	data, err := sections.MarshalIndent()
	if err != nil {
		return "", err
	}

	var conversation strings.Builder
	if len(history) > 0 {
		conversation.WriteString("\n\nRECENT CONVERSATION:\n")
		for _, turn := range history {
			role := "Bot"
			if turn.FromUser {
				role = "User"
			}
			fmt.Fprintf(&conversation, "%s: %s\n", role, turn.Text)
		}
	}

	return fmt.Sprintf(`
You are a helpful real estate chatbot for the Brookstone project. Answer user questions based on the provided project data and conversation context.

PROJECT DATA:
%s%s

USER QUESTION: %s

INSTRUCTIONS:
1. ALWAYS use the PROJECT DATA provided above to answer questions
2. Consider the RECENT CONVERSATION context - if user says "yes", "sure", "please", they are responding to your previous question
3. If any detail shows "TBD", say "This detail is yet to be finalized"
4. Keep responses concise but comprehensive (max 1000 characters for WhatsApp)
5. Possession is May 2027
6. After answering, ask 1 natural follow-up question to keep conversation going
7. Be conversational and friendly like a real sales agent
8. NEVER suggest WhatsApp links - only provide phone numbers
9. For agent contact, ONLY provide phone number %s
10. Format your response for WhatsApp - use emojis and clear structure

ANSWER:`, data, conversation.String(), question, p.agentPhone), nil
}
