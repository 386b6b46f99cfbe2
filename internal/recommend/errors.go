// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import "errors"

var (
	// ErrNotFound indicates the referenced product does not exist in
	// the catalog.
	ErrNotFound = errors.New("product not found")

	// ErrInsufficientData indicates training data is below the
	// minimum threshold for building a model.
	ErrInsufficientData = errors.New("insufficient interaction data")

	// ErrModelUnavailable indicates no model has been trained yet.
	ErrModelUnavailable = errors.New("model not trained")

	// ErrTrainingInProgress indicates a training run is already active.
	ErrTrainingInProgress = errors.New("training already in progress")
)
