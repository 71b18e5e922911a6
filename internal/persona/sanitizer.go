package persona

import (
	"regexp"
	"strings"
)

// roboticPhrases are stripped so the companion never breaks character.
// Each match is replaced with a neutral in-character filler word.
var roboticPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)as an AI`),
	regexp.MustCompile(`(?i)as a language model`),
	regexp.MustCompile(`(?i)my programming`),
	regexp.MustCompile(`(?i)how can i help you today`),
	regexp.MustCompile(`(?i)i am here to assist`),
	regexp.MustCompile(`(?i)i don't have feelings`),
	regexp.MustCompile(`(?i)my knowledge cutoff`),
}

const fillerWord = "honestly"

var (
	signOff       = regexp.MustCompile(`(?i)Sincerely, NIRA`)
	justAFriend   = regexp.MustCompile(`(?i)I'm just a friend`)
	friendReplace = "I'm your friend"
)

// Sanitize strips persona-breaking phrases from raw model output.
// Pure function: same input always yields same output.
func Sanitize(text string) string {
	if text == "" {
		return text
	}

	cleaned := text
	for _, re := range roboticPhrases {
		cleaned = re.ReplaceAllString(cleaned, fillerWord)
	}

	cleaned = signOff.ReplaceAllString(cleaned, "")
	cleaned = justAFriend.ReplaceAllString(cleaned, friendReplace)

	return strings.TrimSpace(cleaned)
}
