package ai

import (
	"fmt"
	"strings"

	"techread/internal/textutil"
)

// Mode selects the shape of a summary.
type Mode string

const (
	ModeShort     Mode = "short"
	ModeBullets   Mode = "bullets"
	ModeTakeaways Mode = "takeaways"
)

// articleChars caps how much article text goes into a prompt.
const articleChars = 12000

// ParseMode accepts a mode name or its first letter.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "short", "s":
		return ModeShort, nil
	case "bullets", "b":
		return ModeBullets, nil
	case "takeaways", "t", "":
		return ModeTakeaways, nil
	}
	return "", fmt.Errorf("ai: unknown summary mode %q (want short|bullets|takeaways)", s)
}

func summaryPrompt(mode Mode, title, url, text string) string {
	var instruction string
	switch mode {
	case ModeShort:
		instruction = "Write a TL;DR in 2-3 sentences. Be concrete and technical. No fluff."
	case ModeBullets:
		instruction = "Summarize into up to 5 bullet points. Each bullet must be one sentence. Be specific."
	default:
		instruction = "Produce: (1) 3 key takeaways (bullets), (2) a 'Why it matters' paragraph (max 3 sentences), " +
			"(3) 1 suggested experiment/action to try."
	}
	return fmt.Sprintf("You summarize technical writing for a busy senior engineer. Be precise.\n\n"+
		"Title: %s\nURL: %s\n\n%s\n\nArticle text:\n%s\n",
		title, url, instruction, textutil.Truncate(text, articleChars))
}
