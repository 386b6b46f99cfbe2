// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/shopsight/shopsight/internal/validation"
)

// maxRequestBody caps request body size at 1 MiB.
const maxRequestBody = 1 << 20

// UserRecommendationsRequest is the body for POST /ml/recommendations/user.
type UserRecommendationsRequest struct {
	UserID         int  `json:"user_id" validate:"required,min=1"`
	Limit          int  `json:"limit" validate:"omitempty,min=1,max=100"`
	IncludeReasons bool `json:"include_reasons"`
}

// SimilarProductsRequest is the body for POST /ml/recommendations/similar.
type SimilarProductsRequest struct {
	ProductID int `json:"product_id" validate:"required,min=1"`
	Limit     int `json:"limit" validate:"omitempty,min=1,max=100"`
}

// SegmentCustomer is one customer in a segmentation request.
type SegmentCustomer struct {
	CustomerID  int     `json:"customer_id" validate:"required,min=1"`
	RecencyDays float64 `json:"recency_days" validate:"min=0"`
	Frequency   float64 `json:"frequency" validate:"min=0"`
	Monetary    float64 `json:"monetary" validate:"min=0"`
}

// SegmentRequest is the body for POST /ml/segmentation/segment.
type SegmentRequest struct {
	Customers []SegmentCustomer `json:"customers" validate:"required,min=1,max=10000,dive"`
	// Clusters overrides the configured k when positive.
	Clusters int `json:"clusters" validate:"omitempty,min=1,max=20"`
}

// DemandForecastRequest is the body for POST /ml/forecasting/demand.
type DemandForecastRequest struct {
	ProductID   int `json:"product_id" validate:"required,min=1"`
	HorizonDays int `json:"horizon_days" validate:"omitempty,min=0"`
}

// SentimentReview is one review in a sentiment analysis request.
type SentimentReview struct {
	ReviewID int    `json:"review_id"`
	Text     string `json:"text" validate:"required,max=10000"`
}

// SentimentRequest is the body for POST /ml/sentiment/analyze.
type SentimentRequest struct {
	Reviews []SentimentReview `json:"reviews" validate:"required,min=1,max=500,dive"`
}

// decodeAndValidate decodes the JSON body into dst and validates it.
// On failure it writes the error response and returns false.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	rw := NewResponseWriter(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		rw.BadRequest(fmt.Sprintf("invalid request body: %v", err))
		return false
	}

	if verr := validation.ValidateStruct(dst); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return false
	}
	return true
}
