package services

import (
	"regexp"
	"strings"
	"unicode"
)

// Base canonical words for comment screening. BLOCKED_WORDS extends the list.
var baseSpamWords = []string{
	"casino",
	"viagra",
	"lottery winner",
	"click here",
	"free money",
	"crypto giveaway",
}

var (
	obfuscation = strings.NewReplacer(
		"@", "a",
		"4", "a",
		"3", "e",
		"!", "i",
		"1", "i",
		"0", "o",
		"$", "s",
		"5", "s",
		"7", "t",
		"+", "t",
		"а", "a", // Cyrillic 'а' looks like Latin 'a'
		"е", "e", // Cyrillic 'е' looks like Latin 'e'
		"і", "i", // Cyrillic 'і' looks like Latin 'i'
		"о", "o", // Cyrillic 'о' looks like Latin 'o'
		"р", "p", // Cyrillic 'р' looks like Latin 'p'
	)
	spaceRegex = regexp.MustCompile(`\s+`)
)

// CleanText normalizes text to canonical form: lowercase, de-obfuscated,
// letters only, repeats collapsed. Devanagari letters survive untouched.
func CleanText(text string) string {
	cleaned := obfuscation.Replace(strings.ToLower(text))

	var builder strings.Builder
	for _, r := range cleaned {
		if unicode.IsLetter(r) || unicode.IsMark(r) {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}
	cleaned = collapseRepeats(builder.String())
	cleaned = spaceRegex.ReplaceAllString(cleaned, " ")
	return strings.TrimSpace(cleaned)
}

// collapseRepeats reduces repeated letters to one: "caaasino" -> "casino".
func collapseRepeats(text string) string {
	if len(text) == 0 {
		return text
	}

	var result strings.Builder
	lastChar := rune(0)
	lastWasLetter := false

	for _, char := range text {
		isLetter := unicode.IsLetter(char)
		if isLetter && lastWasLetter && char == lastChar {
			continue
		}
		result.WriteRune(char)
		lastChar = char
		lastWasLetter = isLetter
	}

	return result.String()
}

// ContainsConfirmedWord checks if cleaned text contains any base word.
// Single words must match a whole word ("skill" does not match "kill");
// phrases match as substrings.
func ContainsConfirmedWord(cleanedText string, baseWords []string) (bool, []string) {
	var confirmedWords []string
	words := strings.Fields(cleanedText)

	for _, baseWord := range baseWords {
		if !strings.Contains(cleanedText, baseWord) {
			continue
		}
		if len(strings.Fields(baseWord)) > 1 {
			confirmedWords = append(confirmedWords, baseWord)
			continue
		}
		for _, w := range words {
			if w == baseWord {
				confirmedWords = append(confirmedWords, baseWord)
				break
			}
		}
	}

	return len(confirmedWords) > 0, confirmedWords
}

// CommentScreener rejects comments containing blocked words.
type CommentScreener struct {
	words []string
}

// NewCommentScreener builds a screener from the base list plus extra words.
// Words are cleaned the same way as input so that repeat-collapsing applies
// to both sides ("free money" is stored as "fre money").
func NewCommentScreener(extra []string) *CommentScreener {
	seen := map[string]bool{}
	var words []string
	for _, w := range append(append([]string{}, baseSpamWords...), extra...) {
		c := CleanText(w)
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		words = append(words, c)
	}
	return &CommentScreener{words: words}
}

// Screen reports whether the text is acceptable and which words matched.
func (s *CommentScreener) Screen(text string) (bool, []string) {
	if s == nil {
		return true, nil
	}
	found, matched := ContainsConfirmedWord(CleanText(text), s.words)
	return !found, matched
}
