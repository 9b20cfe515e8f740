package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Aashish23092/loan-intake-verification/config"
	"github.com/Aashish23092/loan-intake-verification/dto"
	"github.com/Aashish23092/loan-intake-verification/session"
)

const profileKeyPrefix = "loan:profile:"

// NewRedisClient creates a Redis client from config
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// ProfileRepository stores applicant profiles as JSON in Redis.
type ProfileRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProfileRepository(client *redis.Client, ttl time.Duration) *ProfileRepository {
	return &ProfileRepository{client: client, ttl: ttl}
}

func profileKey(applicantID string) string {
	return profileKeyPrefix + applicantID
}

// Load returns session.ErrProfileNotFound when nothing is stored for the applicant.
func (r *ProfileRepository) Load(ctx context.Context, applicantID string) (dto.UserProfile, error) {
	raw, err := r.client.Get(ctx, profileKey(applicantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return dto.UserProfile{}, session.ErrProfileNotFound
	}
	if err != nil {
		return dto.UserProfile{}, fmt.Errorf("redis get failed: %w", err)
	}

	var profile dto.UserProfile
	if err := json.Unmarshal(raw, &profile); err != nil {
		return dto.UserProfile{}, fmt.Errorf("failed to decode stored profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) Save(ctx context.Context, profile dto.UserProfile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	if err := r.client.Set(ctx, profileKey(profile.ApplicantID), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *ProfileRepository) Delete(ctx context.Context, applicantID string) error {
	return r.client.Del(ctx, profileKey(applicantID)).Err()
}
