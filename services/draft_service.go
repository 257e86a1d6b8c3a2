package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tackler-server/config"
	"tackler-server/models"
)

// ErrNoDraft is returned when a customer has no saved draft
var ErrNoDraft = errors.New("no draft saved")

// DraftService stores resumable booking forms in redis. The bid and stage
// engines never read drafts; a draft only pre-fills the creation form.
type DraftService struct {
	client *redis.Client
}

// NewDraftService creates a new draft service
func NewDraftService() *DraftService {
	return &DraftService{
		client: RedisClient,
	}
}

func draftKey(userID uint) string {
	return fmt.Sprintf("booking:draft:%d", userID)
}

// Save stores the customer's draft with the configured TTL
func (s *DraftService) Save(ctx context.Context, userID uint, draft *models.BookingDraft) error {
	draft.SavedAt = time.Now()

	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}

	return s.client.Set(ctx, draftKey(userID), data, config.AppConfig.Redis.DraftTTL).Err()
}

// Load retrieves the customer's draft, ErrNoDraft if none exists
func (s *DraftService) Load(ctx context.Context, userID uint) (*models.BookingDraft, error) {
	data, err := s.client.Get(ctx, draftKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNoDraft
		}
		return nil, err
	}

	var draft models.BookingDraft
	if err := json.Unmarshal([]byte(data), &draft); err != nil {
		return nil, err
	}

	return &draft, nil
}

// Clear removes the customer's draft, usually after the booking is created
func (s *DraftService) Clear(ctx context.Context, userID uint) error {
	return s.client.Del(ctx, draftKey(userID)).Err()
}
