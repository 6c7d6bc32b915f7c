package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize folds a human phrase into its canonical lookup form: diacritics
// stripped, lowercased, whitespace collapsed. "Matériels  Informatiques"
// becomes "materiels informatiques".
func Normalize(s string) string {
	stripper := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(stripper, s)
	if err != nil {
		out = s
	}
	out = strings.ToLower(out)
	return strings.Join(strings.Fields(out), " ")
}

// camelSplit breaks a camel-case type name into lowercase words:
// "BonCommande" -> ["bon", "commande"].
func camelSplit(name string) []string {
	var words []string
	var current strings.Builder
	for i, r := range name {
		if unicode.IsUpper(r) && i > 0 {
			words = append(words, strings.ToLower(current.String()))
			current.Reset()
		}
		current.WriteRune(r)
	}
	if current.Len() > 0 {
		words = append(words, strings.ToLower(current.String()))
	}
	return words
}

// startsWithVowel reports whether a French word elides the preceding "de".
func startsWithVowel(word string) bool {
	if word == "" {
		return false
	}
	switch word[0] {
	case 'a', 'e', 'i', 'o', 'u', 'h':
		return true
	}
	return false
}

// prepositionalVariants joins camel-split words with French prepositions:
// ["bon", "commande"] -> "bon de commande"; ["demande", "achat"] -> "demande d'achat".
func prepositionalVariants(words []string) []string {
	if len(words) < 2 {
		return nil
	}
	var de, plain strings.Builder
	for i, w := range words {
		if i > 0 {
			plain.WriteString(" ")
			if startsWithVowel(w) {
				de.WriteString(" d'")
			} else {
				de.WriteString(" de ")
			}
		}
		de.WriteString(w)
		plain.WriteString(w)
	}
	variants := []string{plain.String()}
	if de.String() != plain.String() {
		variants = append(variants, de.String())
	}
	return variants
}

// naivePlural applies French/English surface pluralization. Words already
// ending in s/x are left alone; "al" endings take "aux".
func naivePlural(word string) string {
	switch {
	case word == "":
		return word
	case strings.HasSuffix(word, "s"), strings.HasSuffix(word, "x"), strings.HasSuffix(word, "z"):
		return word
	case strings.HasSuffix(word, "al"):
		return word[:len(word)-2] + "aux"
	default:
		return word + "s"
	}
}

// pluralizePhrase pluralizes the head noun of a multi-word phrase:
// "bon de commande" -> "bons de commande".
func pluralizePhrase(phrase string) string {
	words := strings.SplitN(phrase, " ", 2)
	if len(words) == 1 {
		return naivePlural(phrase)
	}
	return naivePlural(words[0]) + " " + words[1]
}
