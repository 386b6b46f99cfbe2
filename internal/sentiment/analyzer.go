// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

// Package sentiment implements lexicon-based review sentiment scoring.
//
// Each review is scored in [0, 1] where 0.5 is neutral, with mentioned
// product aspects (quality, price, delivery, service) extracted from
// keyword matches. Intentionally simple: no model to train, no
// external calls, deterministic output.
package sentiment

import (
	"strings"
	"unicode"
)

// Sentiment classification labels.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
	LabelNeutral  = "neutral"
)

// maxEchoRunes bounds the text echoed back in results.
const maxEchoRunes = 100

var positiveWords = map[string]struct{}{
	"good": {}, "great": {}, "excellent": {}, "love": {},
	"best": {}, "amazing": {}, "perfect": {},
}

var negativeWords = map[string]struct{}{
	"bad": {}, "poor": {}, "worst": {}, "hate": {},
	"terrible": {}, "awful": {}, "disappointed": {},
}

// aspectKeywords maps aspect names to their trigger words.
var aspectKeywords = map[string][]string{
	"quality":  {"quality"},
	"price":    {"price", "expensive", "cheap"},
	"delivery": {"delivery", "shipping"},
	"service":  {"service", "support"},
}

// Review is a single review to analyze.
type Review struct {
	ReviewID int    `json:"review_id"`
	Text     string `json:"text"`
}

// Result is the sentiment analysis of one review.
type Result struct {
	ReviewID int      `json:"review_id"`
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
	Label    string   `json:"label"`
	Aspects  []string `json:"aspects,omitempty"`
}

// Analyze scores a batch of reviews. Always returns one result per
// review, in input order.
func Analyze(reviews []Review) []Result {
	results := make([]Result, len(reviews))
	for i, review := range reviews {
		results[i] = analyzeOne(review)
	}
	return results
}

func analyzeOne(review Review) Result {
	words := tokenize(review.Text)

	var positive, negative int
	for _, w := range words {
		if _, ok := positiveWords[w]; ok {
			positive++
		}
		if _, ok := negativeWords[w]; ok {
			negative++
		}
	}

	score := 0.5
	if total := positive + negative; total > 0 {
		score = float64(positive) / float64(total)
	}

	label := LabelNeutral
	switch {
	case score > 0.5:
		label = LabelPositive
	case score < 0.5:
		label = LabelNegative
	}

	return Result{
		ReviewID: review.ReviewID,
		Text:     truncate(review.Text, maxEchoRunes),
		Score:    score,
		Label:    label,
		Aspects:  extractAspects(words),
	}
}

// extractAspects returns mentioned aspects in a fixed order so output
// is deterministic.
func extractAspects(words []string) []string {
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	var aspects []string
	for _, aspect := range []string{"quality", "price", "delivery", "service"} {
		for _, keyword := range aspectKeywords[aspect] {
			if _, ok := wordSet[keyword]; ok {
				aspects = append(aspects, aspect)
				break
			}
		}
	}
	return aspects
}

// tokenize lowercases and splits on non-letter runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
