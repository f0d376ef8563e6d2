package transform

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const maxPromptRunes = 6000

// Sanitize collapses whitespace and caps text at maxPromptRunes, preferring
// to end on a sentence boundary.
func Sanitize(text string) string {
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= maxPromptRunes {
		return text
	}

	runes := []rune(text)
	trimmed := string(runes[:maxPromptRunes])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed + " [TRUNCATED]"
}

func buildPrompt(language, title, summary string) string {
	return fmt.Sprintf(`You are the editor of a technology and artificial intelligence news channel.
Rewrite the news item below for readers who speak %[1]s.

NEWS ITEM:
Title: %[2]s
Text: %[3]s

Answer with a single JSON object and nothing else. It must have exactly these keys:

"title": a short, catchy headline in %[1]s.
"summary": two or three sentences in %[1]s summarising the news.
"content": the full article in %[1]s, in Markdown, at least four paragraphs.
"telegram_post": a short post in %[1]s for a Telegram channel, up to 600 characters, with a few fitting emoji.
"category": one word naming the topic, for example "AI", "Startups", "Hardware" or "Research".
"hashtags": three to five hashtags separated by spaces, for example "#AI #OpenAI #news".

Do not translate brand, product or company names. Do not wrap the JSON in code fences.
`, language, title, summary)
}
