package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/notebook-grading-api/internal/dto"
	"github.com/noah-isme/notebook-grading-api/internal/repository"
)

const graderStatsCacheKey = "stats:grader"

// StatsService produces dashboard counters for students and graders.
type StatsService interface {
	Student(ctx context.Context, studentID string) (dto.StudentStatsResponse, error)
	Grader(ctx context.Context) (dto.GraderStatsResponse, error)
}

type statsService struct {
	submissions repository.SubmissionRepository
	cache       *redis.Client
	cacheTTL    time.Duration
	logger      zerolog.Logger
}

// NewStatsService builds the stats aggregator. A nil cache disables caching.
func NewStatsService(submissions repository.SubmissionRepository, cache *redis.Client, ttl time.Duration, logger zerolog.Logger) StatsService {
	return &statsService{
		submissions: submissions,
		cache:       cache,
		cacheTTL:    ttl,
		logger:      logger.With().Str("component", "stats_service").Logger(),
	}
}

func (s *statsService) Student(ctx context.Context, studentID string) (dto.StudentStatsResponse, error) {
	var response dto.StudentStatsResponse
	cacheKey := "stats:student:" + studentID
	if s.readCache(ctx, cacheKey, &response) {
		return response, nil
	}

	counts, err := s.submissions.Counts(ctx, repository.SubmissionFilter{StudentID: &studentID})
	if err != nil {
		return dto.StudentStatsResponse{}, fmt.Errorf("count student submissions: %w", err)
	}

	response = dto.StudentStatsResponse{
		Total:  counts.Total,
		Graded: counts.Graded,
	}
	if counts.AverageGrade != nil {
		average := math.Round(*counts.AverageGrade*10) / 10
		response.AverageGrade = &average
	}

	s.writeCache(ctx, cacheKey, response)
	return response, nil
}

func (s *statsService) Grader(ctx context.Context) (dto.GraderStatsResponse, error) {
	var response dto.GraderStatsResponse
	if s.readCache(ctx, graderStatsCacheKey, &response) {
		return response, nil
	}

	counts, err := s.submissions.Counts(ctx, repository.SubmissionFilter{})
	if err != nil {
		return dto.GraderStatsResponse{}, fmt.Errorf("count submissions: %w", err)
	}

	response = dto.GraderStatsResponse{
		Total:     counts.Total,
		Submitted: counts.Submitted,
		Graded:    counts.Graded,
	}

	s.writeCache(ctx, graderStatsCacheKey, response)
	return response, nil
}

func (s *statsService) readCache(ctx context.Context, key string, target interface{}) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to read stats cache")
		}
		return false
	}

	if err := json.Unmarshal([]byte(cached), target); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt stats cache entry")
		return false
	}

	s.logger.Debug().Str("key", key).Msg("stats cache hit")
	return true
}

func (s *statsService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to store stats cache")
	}
}
