// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package reranking

import (
	"testing"

	"github.com/shopsight/shopsight/internal/recommend"
)

func products() map[int]recommend.Product {
	return map[int]recommend.Product{
		1: {ID: 1, Category: "shoes"},
		2: {ID: 2, Category: "shoes"},
		3: {ID: 3, Category: "shoes"},
		4: {ID: 4, Category: "jackets"},
		5: {ID: 5, Category: "kitchen"},
	}
}

func TestMMRKeepsTopCandidate(t *testing.T) {
	candidates := []recommend.ScoredProduct{
		{ProductID: 1, Score: 0.9},
		{ProductID: 2, Score: 0.8},
		{ProductID: 4, Score: 0.7},
	}

	out := NewMMR(0.7).Rerank(candidates, products(), 3)
	if len(out) != 3 {
		t.Fatalf("got %d, want 3", len(out))
	}
	if out[0].ProductID != 1 {
		t.Errorf("first pick = %d, want 1 (top score always kept)", out[0].ProductID)
	}
}

func TestMMRPromotesCategoryDiversity(t *testing.T) {
	// Products 2 and 3 share the leader's category; 4 scores lower but
	// brings a new category. With lambda 0.5 the penalty outweighs the
	// score gap.
	candidates := []recommend.ScoredProduct{
		{ProductID: 1, Score: 0.9},
		{ProductID: 2, Score: 0.8},
		{ProductID: 3, Score: 0.75},
		{ProductID: 4, Score: 0.6},
	}

	out := NewMMR(0.5).Rerank(candidates, products(), 3)
	if len(out) != 3 {
		t.Fatalf("got %d, want 3", len(out))
	}
	if out[1].ProductID != 4 {
		t.Errorf("second pick = %d, want 4 (new category beats same-category 0.8)", out[1].ProductID)
	}
}

func TestMMRLambdaOneIsPlainTruncation(t *testing.T) {
	candidates := []recommend.ScoredProduct{
		{ProductID: 1, Score: 0.9},
		{ProductID: 2, Score: 0.8},
		{ProductID: 3, Score: 0.7},
	}

	out := NewMMR(1.0).Rerank(candidates, products(), 2)
	if len(out) != 2 {
		t.Fatalf("got %d, want 2", len(out))
	}
	if out[0].ProductID != 1 || out[1].ProductID != 2 {
		t.Errorf("lambda 1.0 must preserve score order, got %+v", out)
	}
}

func TestMMREmptyInput(t *testing.T) {
	if out := NewMMR(0.7).Rerank(nil, products(), 5); out != nil {
		t.Errorf("expected nil for empty input, got %+v", out)
	}
}

func TestMMRFewerCandidatesThanLimit(t *testing.T) {
	candidates := []recommend.ScoredProduct{{ProductID: 1, Score: 0.9}}
	out := NewMMR(0.7).Rerank(candidates, products(), 10)
	if len(out) != 1 {
		t.Errorf("got %d, want 1", len(out))
	}
}
