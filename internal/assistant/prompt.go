package assistant

import (
	"fmt"
	"strings"
)

const systemPromptTmpl = `You are a helpful AI assistant for a manufacturing distribution network. You help dealers, sales representatives and administrators with SKU availability, claim status and sales data.

User role: %s

Be conversational and friendly, and give actionable insights. Use bullet points or tables when showing data. Only state figures that appear in the data context.

Current data context:
%s`

// SystemPrompt builds the system message for the remote model. The digest
// should already be truncated to the context budget.
func SystemPrompt(role, digest string) string {
	if strings.TrimSpace(role) == "" {
		role = "guest"
	}
	return fmt.Sprintf(systemPromptTmpl, role, digest)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
