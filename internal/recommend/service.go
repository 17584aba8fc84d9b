package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"pod-service/internal/models"
	"pod-service/internal/repositories"
)

// ListingFallbackScore replaces fallback scores in recommendation listings.
const ListingFallbackScore = 75

const (
	defaultCandidateLimit = 50
	defaultConcurrency    = 4
)

// Recommender ranks candidate pods for a user.
type Recommender struct {
	pods        repositories.PodRepository
	profiles    repositories.ProfileRepository
	scorer      *Scorer
	cache       MatchCache
	cacheTTL    time.Duration
	concurrency int
}

func NewRecommender(pods repositories.PodRepository, profiles repositories.ProfileRepository, scorer *Scorer, cache MatchCache, cacheTTL time.Duration) *Recommender {
	return &Recommender{
		pods:        pods,
		profiles:    profiles,
		scorer:      scorer,
		cache:       cache,
		cacheTTL:    cacheTTL,
		concurrency: defaultConcurrency,
	}
}

// RecommendPods scores open pods for userID and returns the best limit of them.
func (r *Recommender) RecommendPods(ctx context.Context, userID string, limit int) ([]models.PodRecommendation, error) {
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	candidates, err := r.pods.ListCandidatePods(ctx, userID, defaultCandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("list candidates: %w", err)
	}

	recs := make([]models.PodRecommendation, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, pod := range candidates {
		g.Go(func() error {
			match := r.match(gctx, profile, pod)
			if match.Fallback {
				match.Score = ListingFallbackScore
			}
			recs[i] = models.PodRecommendation{Pod: pod, Match: match}
			return nil
		})
	}
	_ = g.Wait()

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Match.Score != recs[j].Match.Score {
			return recs[i].Match.Score > recs[j].Match.Score
		}
		return recs[i].Name < recs[j].Name
	})
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

// MatchPod scores a single pod for userID.
func (r *Recommender) MatchPod(ctx context.Context, userID, podID string) (models.PodMatch, error) {
	pod, err := r.pods.GetPod(ctx, podID)
	if err != nil {
		return models.PodMatch{}, err
	}
	profile, err := r.profiles.GetProfile(ctx, userID)
	if err != nil {
		return models.PodMatch{}, fmt.Errorf("load profile: %w", err)
	}
	return r.match(ctx, profile, pod), nil
}

func (r *Recommender) match(ctx context.Context, profile models.UserProfile, pod models.Pod) models.PodMatch {
	if r.cache != nil {
		if cached, ok := r.cache.Get(ctx, profile.UserID, pod.ID); ok {
			return cached
		}
	}
	match := r.scorer.CalculatePodMatch(ctx, profile, pod)
	if r.cache != nil && !match.Fallback {
		r.cache.Set(ctx, profile.UserID, pod.ID, match, r.cacheTTL)
	}
	return match
}
