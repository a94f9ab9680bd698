package services

import (
	"context"
	"time"

	"policy_reco/models"
	"policy_reco/repository"
)

// SQLStore 基于 repository 包（MySQL）的 Store 实现
type SQLStore struct{}

func (SQLStore) GetUser(ctx context.Context, email string, now time.Time) (*models.UserProfile, error) {
	return repository.GetUserByEmail(ctx, email, now)
}

func (SQLStore) LoadPolicies(ctx context.Context, user models.UserProfile) ([]models.Policy, error) {
	return repository.LoadPoliciesPrefiltered(ctx, user)
}

func (SQLStore) SaveRecommendation(ctx context.Context, rec *models.Recommendation) error {
	return repository.SaveRecommendation(ctx, rec)
}

func (SQLStore) GetLatestRecommendation(ctx context.Context, email string) (*models.Recommendation, error) {
	return repository.GetLatestRecommendation(ctx, email)
}

func (SQLStore) PurgeRecommendationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	return repository.PurgeRecommendationsBefore(ctx, cutoff)
}
