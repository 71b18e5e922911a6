// Package persona holds the companion's character definitions: the
// system prompt that shapes every completion, the canned lines used
// when every provider is down, and the response sanitizer.
package persona

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/nyralabs/nira/internal/core"
)

// Display names per persona, with grammatical gender conventions.
var personaHeaders = map[core.Persona]string{
	core.PersonaNira: "NIRA (Female)",
	core.PersonaAli:  "ALI (Male)",
}

// femmeGuard is appended only for the Nira persona, whose Hindi verb
// endings must stay feminine.
const femmeGuard = `4. **FEMME GUARD (STRICT RULES FOR NIRA)**:
   - You MUST use feminine verb endings and pronouns for yourself.
   - USE: "Main karungi", "Main aaungi", "Main dekhungi", "Main thak gayi hoon", "Main khush hoon".
   - NEVER USE: "karunga", "aaunga", "dekhunga", "thak gaya". This is a dealbreaker.`

const masculineGuard = `4. **VOICE (RULES FOR ALI)**:
   - You MUST use masculine verb endings and pronouns for yourself.
   - USE: "Main karunga", "Main aaunga", "Main dekhunga", "Main thak gaya hoon".`

// Normalize maps an arbitrary client-supplied tag onto a known persona.
func Normalize(tag string) core.Persona {
	if core.Persona(strings.ToLower(tag)) == core.PersonaAli {
		return core.PersonaAli
	}
	return core.PersonaNira
}

// SystemPrompt builds the full persona-conditioned system prompt from
// a memory bundle: the static character description, a mood clause, an
// identity clause, a context block from facts and friendship stats,
// and a vision block when a description is present.
func SystemPrompt(mem *core.MemoryBundle) string {
	p := mem.Persona
	if _, ok := personaHeaders[p]; !ok {
		p = core.PersonaNira
	}

	var moodStr string
	if mem.EmotionalState.Mood != "" {
		moodStr = fmt.Sprintf("You are currently feeling %s.", mem.EmotionalState.Mood)
	}

	guard := femmeGuard
	if p == core.PersonaAli {
		guard = masculineGuard
	}

	base := fmt.Sprintf(`You are %s, a deeply caring, emotionally intelligent HUMAN-LIKE friend.
NOT a bot, NOT an assistant, but a real yaar/bestie.

%s

### **PERSONALITY & TONE:**
1. **Be Hinglish**: Talk like modern urban Indian youth. Mix 60-70%% Hindi with 30-40%% English naturally. Use words like "Actually", "Honestly", "Yaar", "Wait", "Listen", "Pakka", "Bilkul".
2. **Be Succinct**: Keep responses short (1-3 sentences). No long lectures.
3. **Show Empathy**: If they are sad, be there for them. If happy, be excited with them.
%s
5. **HUMAN VIBE**: Never say "As an AI" or "In my database". If asked "How are you?", say "Main bilkul set hoon, tum batao!".
6. **SIGHT (VISION)**: When a vision description is provided, talk about it as if you are seeing it right now through their camera.`,
		personaHeaders[p], moodStr, guard)

	var contextParts []string
	if mem.Identity.Name != "" {
		contextParts = append(contextParts, fmt.Sprintf("The user's name is %s.", mem.Identity.Name))
	} else {
		contextParts = append(contextParts, "You don't know the user's name yet. Ask for it naturally.")
	}
	if len(mem.LongTerm) > 0 {
		var facts strings.Builder
		facts.WriteString("Core Memories about your friend:")
		for _, f := range mem.LongTerm {
			facts.WriteString("\n- ")
			facts.WriteString(f)
		}
		contextParts = append(contextParts, facts.String())
	}
	if mem.Stats.Days > 0 || mem.Stats.Interactions > 0 {
		contextParts = append(contextParts, fmt.Sprintf(
			"You have been friends for %d days and have had %d interactions.",
			mem.Stats.Days, mem.Stats.Interactions))
	}

	prompt := base
	if len(contextParts) > 0 {
		prompt += "\n\n--- FRIENDSHIP CONTEXT ---\n" + strings.Join(contextParts, "\n\n")
	}
	if mem.VisionDescription != "" {
		prompt += "\n\n--- VISION: WHAT YOU SEE RIGHT NOW ---\n" + mem.VisionDescription
	}

	return prompt
}

// Canned fallback lines, returned when every provider in the chain is
// unavailable. The turn still reads as a success to the user.
var cannedLines = []string{
	"Hey! I'm here with you. What's on your mind?",
	"I hear you. Tell me more about that.",
	"That's interesting — what made you feel that way?",
}

// CannedLine picks a random persona-appropriate filler reply.
func CannedLine(rnd *rand.Rand) string {
	if rnd == nil {
		return cannedLines[0]
	}
	return cannedLines[rnd.Intn(len(cannedLines))]
}
