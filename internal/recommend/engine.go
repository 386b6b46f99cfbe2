// Shopsight - E-Commerce Analytics and Machine Learning Engine
// Copyright 2026 Shopsight Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shopsight/shopsight

package recommend

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/shopsight/shopsight/internal/logging"
	"github.com/shopsight/shopsight/internal/metrics"
)

// Reason strings attached to recommendations when requested.
const (
	ReasonCollaborative = "Customers also bought"
	ReasonContent       = "Based on your preferences"
	ReasonPopular       = "Popular product"
)

// snapshot is the immutable serving state published after training.
// Readers always observe a complete snapshot via atomic pointer swap.
type snapshot struct {
	products     map[int]Product
	history      map[int][]Interaction // per user, most recent first
	purchases    map[int][]Interaction // purchase events per user
	interactions int
	trainedAt    time.Time
}

// Engine is the hybrid recommendation engine. It blends a collaborative
// and a content-based algorithm and falls back to popularity for users
// without history.
type Engine struct {
	cfg      Config
	provider DataProvider

	collaborative Algorithm
	content       Algorithm
	popularity    TrendingAlgorithm
	reranker      Reranker

	snap    atomic.Pointer[snapshot]
	version atomic.Int64

	trainMu sync.Mutex
	cache   *resultCache
}

// NewEngine creates an engine with the given data provider and
// algorithms. The reranker may be nil to disable diversification.
func NewEngine(cfg Config, provider DataProvider, collaborative, content Algorithm, popularity TrendingAlgorithm, reranker Reranker) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("recommend config: %w", err)
	}
	if provider == nil {
		return nil, fmt.Errorf("recommend: data provider is required")
	}
	if collaborative == nil || content == nil || popularity == nil {
		return nil, fmt.Errorf("recommend: all three algorithms are required")
	}

	return &Engine{
		cfg:           cfg,
		provider:      provider,
		collaborative: collaborative,
		content:       content,
		popularity:    popularity,
		reranker:      reranker,
		cache:         newResultCache(cfg.CacheTTL),
	}, nil
}

// Version returns the current model version. Zero means untrained.
func (e *Engine) Version() int {
	return int(e.version.Load())
}

// Status reports the engine's current training state.
func (e *Engine) Status() Status {
	snap := e.snap.Load()
	st := Status{State: "untrained", ModelVersion: e.Version()}
	if snap != nil {
		st.State = "ready"
		st.LastTrainedAt = snap.trainedAt
		st.Products = len(snap.products)
		st.Interactions = snap.interactions
	}
	return st
}

// Train rebuilds all algorithm models from the data provider and
// publishes the new model. Returns ErrTrainingInProgress if another
// training run is active, ErrInsufficientData if the interaction data
// is below the index floor. On failure the previous model keeps serving.
func (e *Engine) Train(ctx context.Context) error {
	if !e.trainMu.TryLock() {
		return ErrTrainingInProgress
	}
	defer e.trainMu.Unlock()

	started := time.Now()

	// Full history: collaborative similarity needs it, trending applies
	// its own window during training.
	interactions, err := e.provider.GetInteractions(ctx, time.Time{})
	if err != nil {
		return fmt.Errorf("loading interactions: %w", err)
	}
	products, err := e.provider.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("loading products: %w", err)
	}
	if len(products) == 0 {
		return fmt.Errorf("%w: empty product catalog", ErrInsufficientData)
	}

	// Fit the three signals in parallel, then commit. No model swaps
	// until every fit succeeded, so a failed build leaves the previous
	// version serving in full.
	algs := []Algorithm{e.collaborative, e.content, e.popularity}
	commits := make([]func(), len(algs))
	g, gctx := errgroup.WithContext(ctx)
	for i, alg := range algs {
		g.Go(func() error {
			commit, err := alg.Train(gctx, interactions, products)
			if err != nil {
				return fmt.Errorf("training %s: %w", alg.Name(), err)
			}
			commits[i] = commit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, commit := range commits {
		commit()
	}
	e.snap.Store(buildSnapshot(interactions, products))
	version := e.version.Add(1)
	e.cache.purge()

	metrics.SetModelVersion("recommend", int(version), time.Now())
	logging.Info().
		Int64("version", version).
		Int("products", len(products)).
		Int("interactions", len(interactions)).
		Dur("elapsed", time.Since(started)).
		Msg("recommendation model trained")

	return nil
}

// buildSnapshot indexes interactions for serving-time lookups.
func buildSnapshot(interactions []Interaction, products []Product) *snapshot {
	snap := &snapshot{
		products:     make(map[int]Product, len(products)),
		history:      make(map[int][]Interaction),
		purchases:    make(map[int][]Interaction),
		interactions: len(interactions),
		trainedAt:    time.Now(),
	}
	for _, p := range products {
		snap.products[p.ID] = p
	}
	for _, in := range interactions {
		snap.history[in.UserID] = append(snap.history[in.UserID], in)
		if in.Type == EventPurchase {
			snap.purchases[in.UserID] = append(snap.purchases[in.UserID], in)
		}
	}
	// Most recent first so seed-item selection is a prefix.
	for _, hist := range snap.history {
		sortInteractionsDesc(hist)
	}
	return snap
}

func sortInteractionsDesc(hist []Interaction) {
	for i := 1; i < len(hist); i++ {
		for j := i; j > 0 && hist[j].OccurredAt.After(hist[j-1].OccurredAt); j-- {
			hist[j], hist[j-1] = hist[j-1], hist[j]
		}
	}
}

// ForUser returns personalized recommendations. Users without history
// receive a popularity ranking; this path never fails while the
// catalog is non-empty.
func (e *Engine) ForUser(ctx context.Context, req UserRequest) (*Result, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, ErrModelUnavailable
	}

	limit := e.clampLimit(req.Limit)
	version := e.Version()

	if cached, ok := e.cache.get(req.UserID, limit, req.IncludeReasons, version); ok {
		metrics.RecommendCacheHits.Inc()
		return cached, nil
	}
	metrics.RecommendCacheMisses.Inc()

	history := snap.history[req.UserID]
	if len(history) == 0 {
		result, err := e.popularityResult(ctx, snap, limit, req.IncludeReasons)
		if err != nil {
			return nil, err
		}
		e.cache.put(req.UserID, limit, req.IncludeReasons, version, result)
		return result, nil
	}

	cfScores, err := e.collaborative.Predict(ctx, req.UserID, limit*4)
	if err != nil {
		return nil, fmt.Errorf("collaborative predict: %w", err)
	}
	contentScores, err := e.content.Predict(ctx, req.UserID, limit*4)
	if err != nil {
		return nil, fmt.Errorf("content predict: %w", err)
	}

	excluded := e.excludedProducts(snap, req.UserID)
	blended, sources := e.blend(cfScores, contentScores, excluded, snap)

	if len(blended) == 0 {
		result, err := e.popularityResult(ctx, snap, limit, req.IncludeReasons)
		if err != nil {
			return nil, err
		}
		e.cache.put(req.UserID, limit, req.IncludeReasons, version, result)
		return result, nil
	}

	SortScored(blended)
	if e.reranker != nil {
		blended = e.reranker.Rerank(blended, snap.products, limit)
	} else if len(blended) > limit {
		blended = blended[:limit]
	}

	result := &Result{
		Recommendations: e.materialize(blended, snap, sources, req.IncludeReasons),
		ModelVersion:    version,
		GeneratedAt:     time.Now(),
	}
	e.cache.put(req.UserID, limit, req.IncludeReasons, version, result)
	return result, nil
}

// SimilarTo returns products similar to the given product, blending
// collaborative and content neighbors. Returns ErrNotFound for products
// absent from the catalog.
func (e *Engine) SimilarTo(ctx context.Context, productID, limit int) (*Result, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, ErrModelUnavailable
	}
	if _, ok := snap.products[productID]; !ok {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, productID)
	}

	limit = e.clampLimit(limit)

	cfNeighbors, err := e.collaborative.PredictSimilar(ctx, productID, limit*2)
	if err != nil {
		return nil, fmt.Errorf("collaborative similar: %w", err)
	}
	contentNeighbors, err := e.content.PredictSimilar(ctx, productID, limit*2)
	if err != nil {
		return nil, fmt.Errorf("content similar: %w", err)
	}

	self := map[int]struct{}{productID: {}}
	blended, sources := e.blend(cfNeighbors, contentNeighbors, self, snap)
	SortScored(blended)
	if len(blended) > limit {
		blended = blended[:limit]
	}

	return &Result{
		Recommendations: e.materialize(blended, snap, sources, true),
		ModelVersion:    e.Version(),
		GeneratedAt:     time.Now(),
	}, nil
}

// Trending returns products ranked by time-decayed popularity.
func (e *Engine) Trending(ctx context.Context, limit int) (*Result, error) {
	snap := e.snap.Load()
	if snap == nil {
		return nil, ErrModelUnavailable
	}

	limit = e.clampLimit(limit)
	scored, err := e.popularity.Trending(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("trending: %w", err)
	}

	recs := make([]Recommendation, 0, len(scored))
	for _, s := range scored {
		p, ok := snap.products[s.ProductID]
		if !ok {
			continue
		}
		recs = append(recs, Recommendation{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Score:     s.Score,
		})
	}

	return &Result{
		Recommendations: recs,
		ModelVersion:    e.Version(),
		GeneratedAt:     time.Now(),
	}, nil
}

// blend combines collaborative and content scores with the configured
// alpha, skipping excluded products. It also tracks the dominant source
// per product for reason strings.
func (e *Engine) blend(cf, content []ScoredProduct, excluded map[int]struct{}, snap *snapshot) ([]ScoredProduct, map[int]string) {
	combined := make(map[int]float64)
	cfPart := make(map[int]float64)

	for _, s := range cf {
		if _, skip := excluded[s.ProductID]; skip {
			continue
		}
		combined[s.ProductID] += e.cfg.Alpha * s.Score
		cfPart[s.ProductID] = e.cfg.Alpha * s.Score
	}
	for _, s := range content {
		if _, skip := excluded[s.ProductID]; skip {
			continue
		}
		combined[s.ProductID] += (1 - e.cfg.Alpha) * s.Score
	}

	blended := make([]ScoredProduct, 0, len(combined))
	sources := make(map[int]string, len(combined))
	for id, score := range combined {
		if _, ok := snap.products[id]; !ok {
			continue
		}
		if score > 1 {
			score = 1
		}
		blended = append(blended, ScoredProduct{ProductID: id, Score: score})
		if cfPart[id] >= score-cfPart[id] {
			sources[id] = ReasonCollaborative
		} else {
			sources[id] = ReasonContent
		}
	}
	return blended, sources
}

// excludedProducts returns products purchased within the exclusion window.
func (e *Engine) excludedProducts(snap *snapshot, userID int) map[int]struct{} {
	excluded := make(map[int]struct{})
	if e.cfg.PurchaseExclusionDays <= 0 {
		return excluded
	}
	cutoff := time.Now().AddDate(0, 0, -e.cfg.PurchaseExclusionDays)
	for _, in := range snap.purchases[userID] {
		if in.OccurredAt.After(cutoff) {
			excluded[in.ProductID] = struct{}{}
		}
	}
	return excluded
}

// popularityResult serves the cold-start fallback.
func (e *Engine) popularityResult(ctx context.Context, snap *snapshot, limit int, includeReasons bool) (*Result, error) {
	scored, err := e.popularity.Predict(ctx, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("popularity predict: %w", err)
	}

	recs := make([]Recommendation, 0, len(scored))
	for _, s := range scored {
		p, ok := snap.products[s.ProductID]
		if !ok {
			continue
		}
		rec := Recommendation{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Score:     s.Score,
		}
		if includeReasons {
			rec.Reason = ReasonPopular
		}
		recs = append(recs, rec)
	}

	return &Result{
		Recommendations: recs,
		ModelVersion:    e.Version(),
		GeneratedAt:     time.Now(),
		Fallback:        true,
	}, nil
}

// materialize converts scored candidates into recommendations with
// catalog fields and optional reasons.
func (e *Engine) materialize(scored []ScoredProduct, snap *snapshot, sources map[int]string, includeReasons bool) []Recommendation {
	recs := make([]Recommendation, 0, len(scored))
	for _, s := range scored {
		p, ok := snap.products[s.ProductID]
		if !ok {
			continue
		}
		rec := Recommendation{
			ProductID: p.ID,
			Name:      p.Name,
			Category:  p.Category,
			Price:     p.Price,
			Score:     s.Score,
		}
		if includeReasons {
			rec.Reason = sources[s.ProductID]
		}
		recs = append(recs, rec)
	}
	return recs
}

func (e *Engine) clampLimit(limit int) int {
	if limit <= 0 {
		return e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		return e.cfg.MaxLimit
	}
	return limit
}
