// Package translit converts romanised Hindi (as typed on a Latin keyboard)
// into Devanagari so that searches like "kavita" also find "कविता".
package translit

import (
	"strings"
	"unicode"
)

const virama = "्"

var consonants = []struct{ latin, deva string }{
	{"chh", "छ"},
	{"kh", "ख"}, {"gh", "घ"}, {"ch", "च"}, {"jh", "झ"}, {"th", "थ"},
	{"dh", "ध"}, {"ph", "फ"}, {"bh", "भ"}, {"sh", "श"},
	{"k", "क"}, {"g", "ग"}, {"c", "क"}, {"j", "ज"}, {"t", "त"}, {"d", "द"},
	{"n", "न"}, {"p", "प"}, {"b", "ब"}, {"m", "म"}, {"y", "य"}, {"r", "र"},
	{"l", "ल"}, {"v", "व"}, {"w", "व"}, {"s", "स"}, {"h", "ह"}, {"f", "फ"},
	{"z", "ज़"}, {"q", "क"}, {"x", "क्स"},
}

// vowels holds the independent letter and the dependent sign (matra).
// The inherent "a" has no sign.
var vowels = []struct{ latin, letter, sign string }{
	{"aa", "आ", "ा"}, {"ai", "ऐ", "ै"}, {"au", "औ", "ौ"},
	{"ee", "ई", "ी"}, {"ii", "ई", "ी"}, {"oo", "ऊ", "ू"}, {"uu", "ऊ", "ू"},
	{"a", "अ", ""}, {"i", "इ", "ि"}, {"u", "उ", "ु"}, {"e", "ए", "े"}, {"o", "ओ", "ो"},
}

// HasLatin reports whether s contains any ASCII letter worth transliterating.
func HasLatin(s string) bool {
	for _, r := range s {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// ToDevanagari transliterates every run of ASCII letters in s using greedy
// longest-match. Everything else is copied through unchanged.
func ToDevanagari(s string) string {
	var out strings.Builder
	lower := strings.ToLower(s)
	start := -1
	for i, r := range lower {
		isLatin := r < unicode.MaxASCII && unicode.IsLetter(r)
		if isLatin && start == -1 {
			start = i
		}
		if !isLatin {
			if start != -1 {
				out.WriteString(word(lower[start:i]))
				start = -1
			}
			out.WriteRune(r)
		}
	}
	if start != -1 {
		out.WriteString(word(lower[start:]))
	}
	return out.String()
}

func word(w string) string {
	var out strings.Builder
	afterConsonant := false
	for i := 0; i < len(w); {
		if latin, letter, sign, ok := matchVowel(w[i:]); ok {
			i += len(latin)
			switch {
			case !afterConsonant:
				out.WriteString(letter)
			case latin == "a" && i == len(w):
				// a trailing "a" is pronounced long: kavita -> कविता
				out.WriteString("ा")
			default:
				out.WriteString(sign)
			}
			afterConsonant = false
			continue
		}
		if latin, deva, ok := matchConsonant(w[i:]); ok {
			if afterConsonant {
				out.WriteString(virama)
			}
			out.WriteString(deva)
			i += len(latin)
			afterConsonant = true
			continue
		}
		out.WriteByte(w[i])
		afterConsonant = false
		i++
	}
	return out.String()
}

func matchVowel(s string) (latin, letter, sign string, ok bool) {
	for _, v := range vowels {
		if strings.HasPrefix(s, v.latin) {
			return v.latin, v.letter, v.sign, true
		}
	}
	return "", "", "", false
}

func matchConsonant(s string) (latin, deva string, ok bool) {
	for _, c := range consonants {
		if strings.HasPrefix(s, c.latin) {
			return c.latin, c.deva, true
		}
	}
	return "", "", false
}
