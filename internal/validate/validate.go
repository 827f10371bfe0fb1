// Package validate holds the content quality gate for generated reviews.
// All checks are pure and deterministic given the same settings snapshot.
package validate

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"ReviewPipeline/internal/domain"
)

// bannedPatterns are matched case-insensitively against the raw text;
// the first match rejects the review.
var bannedPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)씨발|병신|좆같`),
	regexp.MustCompile(`(?i)공짜`),
	regexp.MustCompile(`(?i)무료\s*증정`),
	regexp.MustCompile(`(?i)100%\s*환불`),
	regexp.MustCompile(`(?i)전액\s*환불`),
	regexp.MustCompile(`(?i)최저가\s*보장?`),
	regexp.MustCompile(`(?i)\bfree\b`),
	regexp.MustCompile(`(?i)full\s*refund`),
	regexp.MustCompile(`(?i)lowest\s*price\s*guaranteed?`),
}

var tokenExpr = regexp.MustCompile(`[a-z0-9가-힣]+`)

var positiveWords = []string{
	"만족", "좋", "훌륭", "편리", "추천", "기분", "쓸만", "깔끔", "튼튼", "예쁘", "고급",
}

var negativeWords = []string{
	"불만", "별로", "싫", "불편", "문제", "최악", "짜증", "실망", "환불", "나쁘", "형편",
}

// Result carries the measurements taken from an accepted review.
type Result struct {
	ToneScore float64
	CharCount int
}

// Review runs the quality gate against the candidate text in a fixed
// order: length, banned phrase, tone. The first failing check determines
// the rejection reason even when several would fail.
func Review(text string, settings domain.ValidationSettings) (Result, error) {
	charCount := utf8.RuneCountInString(text)
	if charCount < settings.MinLength || charCount > settings.MaxLength {
		return Result{}, domain.ValidationError(domain.CodeLengthOutOfRange, strconv.Itoa(charCount))
	}

	for _, pattern := range bannedPatterns {
		if pattern.MatchString(text) {
			return Result{}, domain.ValidationError(domain.CodeBannedPhrase, "")
		}
	}

	score := ToneScore(text)
	if score <= settings.ToneScoreThreshold {
		return Result{}, domain.ValidationError(domain.CodeToneScoreTooLow, formatScore(score))
	}

	return Result{ToneScore: score, CharCount: charCount}, nil
}

// ToneScore tokenizes the text on runs of alphanumerics and Hangul,
// classifies each token by substring membership (positive wins when a token
// matches both lists), and returns the Laplace-smoothed ratio
// (positive+1)/(positive+negative+2), rounded to two decimals. Text with no
// sentiment tokens scores exactly 0.5.
func ToneScore(text string) float64 {
	tokens := tokenExpr.FindAllString(strings.ToLower(text), -1)

	var positive, negative int
	for _, token := range tokens {
		if containsAny(token, positiveWords) {
			positive++
			continue
		}
		if containsAny(token, negativeWords) {
			negative++
		}
	}

	score := float64(positive+1) / float64(positive+negative+2)
	return math.Round(score*100) / 100
}

func containsAny(token string, words []string) bool {
	for _, word := range words {
		if strings.Contains(token, word) {
			return true
		}
	}
	return false
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'g', -1, 64)
}
