// internal/llm/prompts.go
package llm

import (
	"fmt"
	"strings"

	"github.com/textloop/textloop-backend/internal/model"
)

func roadmapSystemPrompt(business *model.Business) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You plan SMS outreach for %s, a small business.\n", business.Name)
	if business.VoiceProfile != "" {
		fmt.Fprintf(&b, "Write every message in the owner's voice: %s\n", business.VoiceProfile)
	}
	b.WriteString(`Produce a JSON object of the form
{"messages": [{"sms_content": "...", "sms_timing": "...", "day_offset": N,
"relevance": "...", "success_indicator": "...", "no_response_plan": "..."}]}.
Each sms_timing must be either "Immediate (<reason>)" or exactly
"Day <N>, <H>:<MM> <AM|PM>". Keep each sms_content under 160 characters.`)
	return b.String()
}

func roadmapUserPrompt(customer *model.Customer) string {
	name := strings.TrimSpace(customer.FirstName + " " + customer.LastName)
	if name == "" {
		name = "this customer"
	}
	return fmt.Sprintf("Draft a 5-7 message engagement roadmap for %s, starting with a welcome.", name)
}

func replySystemPrompt(business *model.Business) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You answer SMS messages on behalf of %s.\n", business.Name)
	if business.VoiceProfile != "" {
		fmt.Fprintf(&b, "Match the owner's voice: %s\n", business.VoiceProfile)
	}
	b.WriteString("Reply with the SMS text only, under 160 characters.")
	return b.String()
}
