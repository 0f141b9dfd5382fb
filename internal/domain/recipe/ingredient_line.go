package recipe

import (
	"regexp"
	"strconv"
	"strings"
)

// ParsedIngredient is the structured reading of a freeform ingredient line
type ParsedIngredient struct {
	Name     string
	Quantity *float64
	Unit     string
	RawText  string
}

var (
	quantityUnitNamePattern = regexp.MustCompile(`^(\d+(?:\s+\d+/\d+|\.\d+|/\d+)?)\s+([a-zA-Z]+(?:\s+[a-zA-Z]+)*?)\s+(.+)$`)
	quantityNamePattern     = regexp.MustCompile(`^(\d+(?:\s+\d+/\d+|\.\d+|/\d+)?)\s+(.+)$`)
	parentheticalPattern    = regexp.MustCompile(`\([^)]*\)`)
	descriptorCharsPattern  = regexp.MustCompile(`[^a-z-]`)
)

// descriptors are size, preparation, temperature and packaging words that do
// not identify the ingredient itself
var descriptors = toSet(
	"large", "medium", "small", "extra", "fresh", "frozen", "dried", "ground", "chopped",
	"diced", "minced", "sliced", "crushed", "whole", "shredded", "grated", "finely",
	"coarsely", "roughly", "thinly", "thickly", "lean", "boneless", "skinless",
	"unsalted", "salted", "sweetened", "unsweetened", "packed", "unpacked",
	"active", "dry", "instant", "quick-cooking", "long-grain", "short-grain",
	"all-purpose", "bread", "wheat", "white", "brown", "raw", "cooked",
)

// ParseIngredientLine extracts quantity, unit and a normalized name from a line
// such as "2 1/2 cups all-purpose flour, sifted". Forms are tried from most to
// least specific; a quantity that cannot be read is left unset.
func ParseIngredientLine(raw string) ParsedIngredient {
	text := strings.TrimSpace(raw)
	parsed := ParsedIngredient{RawText: raw}

	var quantityText, name string
	if m := quantityUnitNamePattern.FindStringSubmatch(text); m != nil {
		quantityText, parsed.Unit, name = m[1], strings.ToLower(m[2]), m[3]
	} else if m := quantityNamePattern.FindStringSubmatch(text); m != nil {
		quantityText, name = m[1], m[2]
	} else {
		name = text
	}

	if quantityText != "" {
		parsed.Quantity = ParseQuantity(quantityText)
	}
	parsed.Name = NormalizeName(CleanName(name))
	return parsed
}

// ParseQuantity reads integers, decimals, simple fractions and mixed numbers.
// It returns nil for anything it cannot read or for non-positive values.
func ParseQuantity(s string) *float64 {
	parts := strings.Fields(s)
	var value float64

	switch {
	case len(parts) == 2 && strings.Contains(parts[1], "/"):
		whole, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil
		}
		fraction, ok := parseFraction(parts[1])
		if !ok {
			return nil
		}
		value = whole + fraction
	case len(parts) == 1 && strings.Contains(parts[0], "/"):
		fraction, ok := parseFraction(parts[0])
		if !ok {
			return nil
		}
		value = fraction
	case len(parts) == 1:
		v, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return nil
		}
		value = v
	default:
		return nil
	}

	if value <= 0 {
		return nil
	}
	return &value
}

func parseFraction(s string) (float64, bool) {
	num, den, found := strings.Cut(s, "/")
	if !found {
		return 0, false
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

// CleanName removes parenthetical asides, preparation notes after a comma and
// descriptor words. The last word always survives.
func CleanName(name string) string {
	name = parentheticalPattern.ReplaceAllString(name, "")
	if before, _, found := strings.Cut(name, ","); found && strings.TrimSpace(before) != "" {
		name = before
	}

	words := strings.Fields(name)
	if len(words) <= 1 {
		return strings.TrimSpace(name)
	}

	kept := make([]string, 0, len(words))
	for _, word := range words {
		key := descriptorCharsPattern.ReplaceAllString(strings.ToLower(word), "")
		if _, ok := descriptors[key]; ok {
			continue
		}
		kept = append(kept, word)
	}
	if len(kept) == 0 {
		kept = words[len(words)-1:]
	}
	return strings.TrimSpace(strings.Join(kept, " "))
}

func toSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}
