package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// PersonName is a split "FAMILY Given Names" column
type PersonName struct {
	Given    string
	Family   string
	Full     string
	Original string
}

var (
	historicalNamePattern = regexp.MustCompile(`\(ent\.\s*([^()]+)\)`)
	whitespace            = regexp.MustCompile(`\s+`)
)

// SplitPersonName splits a name column where the family name comes first in
// upper case, optionally followed by a parenthesized former name. The family
// name is returned title-cased.
func SplitPersonName(raw string) PersonName {
	orig := strings.TrimSpace(raw)
	name := PersonName{Original: orig}
	if orig == "" {
		return name
	}

	tokens := strings.Fields(orig)
	var family, given []string
	inFamily := true
	depth := 0
	for _, tok := range tokens {
		if inFamily {
			opens := strings.Count(tok, "(")
			closes := strings.Count(tok, ")")
			if depth > 0 || opens > 0 || isUpperWord(tok) || len(family) == 0 {
				family = append(family, tok)
				depth += opens - closes
				continue
			}
			inFamily = false
		}
		given = append(given, tok)
	}

	name.Family = titleFamily(strings.Join(family, " "))
	name.Given = strings.Join(given, " ")
	if name.Given != "" {
		name.Full = name.Given + " " + name.Family
	} else {
		name.Full = name.Family
	}
	return name
}

// titleFamily title-cases the name outside the "(ent. X)" marker
func titleFamily(s string) string {
	out := cases.Title(language.Finnish).String(strings.ToLower(s))
	return strings.ReplaceAll(out, "(Ent.", "(ent.")
}

func isUpperWord(tok string) bool {
	letters := 0
	for _, r := range tok {
		if unicode.IsLetter(r) {
			letters++
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return letters > 0
}

// HistoricalFamilyName returns the name a person was known by when the
// family name carries a name-change marker: "Korhonen (ent. Virtanen)"
// becomes "Virtanen". Other names are returned trimmed.
func HistoricalFamilyName(family string) string {
	if m := historicalNamePattern.FindStringSubmatch(family); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(family)
}

// Fold builds a match key: NFC, case folded, whitespace collapsed
func Fold(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	s = cases.Fold().String(s)
	return whitespace.ReplaceAllString(s, " ")
}
