package publication

import (
	"regexp"
	"strings"

	"ReviewPipeline/internal/domain"
)

const (
	siteName      = "상품 리뷰"
	slugMaxLen    = 50
	titleMaxLen   = 60
	descMaxLen    = 150
	maxNameWords  = 5
	idSuffixRunes = 8
)

// Hangul jamo romanization tables, indexed by syllable decomposition.
var (
	choseong = []string{
		"g", "kk", "n", "d", "tt", "r", "m", "b", "pp", "s", "ss", "",
		"j", "jj", "ch", "k", "t", "p", "h",
	}
	jungseong = []string{
		"a", "ae", "ya", "yae", "eo", "e", "yeo", "ye", "o", "wa",
		"wae", "oe", "yo", "u", "wo", "we", "wi", "yu", "eu", "ui", "i",
	}
	jongseong = []string{
		"", "g", "kk", "gs", "n", "nj", "nh", "d", "l", "lg", "lm",
		"lb", "ls", "lt", "lp", "lh", "m", "b", "bs", "s", "ss", "ng",
		"j", "ch", "k", "t", "p", "h",
	}
)

// Transliterate converts Hangul syllables to Latin; everything else passes
// through unchanged.
func Transliterate(text string) string {
	var b strings.Builder
	for _, r := range text {
		if r >= 0xAC00 && r <= 0xD7A3 {
			v := int(r - 0xAC00)
			b.WriteString(choseong[v/588])
			b.WriteString(jungseong[(v%588)/28])
			b.WriteString(jongseong[v%28])
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

var (
	slugStripExpr = regexp.MustCompile(`[^a-z0-9가-힣\s-]`)
	spaceExpr     = regexp.MustCompile(`\s+`)
	hyphenRunExpr = regexp.MustCompile(`-+`)
	htmlTagExpr   = regexp.MustCompile(`<[^>]*>`)
	nameSplitExpr = regexp.MustCompile(`[^\p{L}\p{N}]+`)
)

// Slug derives a URL slug from the product name: Hangul romanized, special
// characters stripped, whitespace hyphenated, truncated, and suffixed with
// the tail of the item id for uniqueness across similarly named products.
func Slug(productName, itemID string) string {
	cleaned := strings.ToLower(Transliterate(productName))
	cleaned = slugStripExpr.ReplaceAllString(cleaned, "")
	cleaned = spaceExpr.ReplaceAllString(cleaned, "-")
	cleaned = hyphenRunExpr.ReplaceAllString(cleaned, "-")
	cleaned = strings.Trim(cleaned, "-")

	if runes := []rune(cleaned); len(runes) > slugMaxLen {
		cleaned = strings.Trim(string(runes[:slugMaxLen]), "-")
	}

	suffix := itemID
	if runes := []rune(itemID); len(runes) > idSuffixRunes {
		suffix = string(runes[len(runes)-idSuffixRunes:])
	}
	if cleaned == "" {
		return suffix
	}
	return cleaned + "-" + suffix
}

// BuildSEO derives publication metadata from the draft content and its item.
func BuildSEO(item domain.Item, content string) *domain.SEOMeta {
	return &domain.SEOMeta{
		Title:       seoTitle(item.Name),
		Description: extractDescription(content, descMaxLen),
		Keywords:    extractKeywords(item.Name, item.Category),
		OGImage:     item.ImageURL,
	}
}

func seoTitle(productName string) string {
	base := productName + " 리뷰"
	suffix := " | " + siteName

	baseRunes := []rune(base)
	if len(baseRunes)+len([]rune(suffix)) > titleMaxLen {
		base = string(baseRunes[:titleMaxLen-len([]rune(suffix))])
	}
	return base + suffix
}

func extractDescription(content string, maxLen int) string {
	plain := htmlTagExpr.ReplaceAllString(content, "")
	for entity, repl := range map[string]string{
		"&nbsp;": " ", "&amp;": "&", "&lt;": "<", "&gt;": ">", "&quot;": `"`,
	} {
		plain = strings.ReplaceAll(plain, entity, repl)
	}
	plain = strings.TrimSpace(spaceExpr.ReplaceAllString(plain, " "))

	runes := []rune(plain)
	if len(runes) <= maxLen {
		return plain
	}

	truncated := string(runes[:maxLen])
	if idx := strings.LastIndex(truncated, " "); idx > maxLen-20 {
		truncated = truncated[:idx]
	}
	return truncated + "..."
}

func extractKeywords(productName, category string) []string {
	keywords := []string{"리뷰", "추천"}
	if category != "" {
		keywords = append(keywords, category)
	}

	words := nameSplitExpr.Split(productName, -1)
	added := 0
	for _, word := range words {
		if len([]rune(word)) < 2 || added >= maxNameWords {
			continue
		}
		keywords = append(keywords, word)
		added++
	}

	seen := make(map[string]struct{}, len(keywords))
	unique := keywords[:0]
	for _, kw := range keywords {
		if _, ok := seen[kw]; ok {
			continue
		}
		seen[kw] = struct{}{}
		unique = append(unique, kw)
	}
	return unique
}
