package services

import (
	"encoding/json"
	"log"
	"time"

	"gorm.io/gorm"

	"tackler-server/database"
	"tackler-server/models"
	ws "tackler-server/websocket"
)

// hub is the realtime transport events are published on. It is wired once
// from main; publishing is a no-op while it is nil (tests, early startup).
var hub *ws.Hub

// SetHub wires the websocket hub used for event delivery
func SetHub(h *ws.Hub) {
	hub = h
}

// EventService records booking lifecycle events and fans them out to
// realtime subscribers and in-app notifications. The engines are the sole
// publishers; nothing else writes booking_events rows.
type EventService struct {
	db *gorm.DB
}

// NewEventService creates a new event service
func NewEventService() *EventService {
	return &EventService{
		db: database.DB,
	}
}

// Record persists an event inside the caller's transaction so the event
// row commits or rolls back together with the transition it describes.
func (s *EventService) Record(tx *gorm.DB, event *models.BookingEvent) error {
	return tx.Create(event).Error
}

// Publish delivers a committed event to booking subscribers. Delivery is
// at-least-once; consumers deduplicate by event id.
func (s *EventService) Publish(event *models.BookingEvent) {
	if event == nil {
		return
	}

	if hub != nil {
		hub.PublishToBooking(&ws.Message{
			Type:      event.Type,
			EventID:   event.ID,
			BookingID: event.BookingID,
			ActorID:   event.ActorID,
			Data:      event.PayloadMap(),
			Timestamp: event.CreatedAt,
		})
	}

	log.Printf("📡 Event %s published for booking %d (event id %d)",
		event.Type, event.BookingID, event.ID)
}

// Notify creates an in-app notification row for a user and pushes it over
// the websocket if they are connected. Failures are logged, never fatal to
// the transition that triggered them.
func (s *EventService) Notify(userID uint, notifType, title, body string, data map[string]interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		payload = []byte("{}")
	}

	notification := models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Type:   notifType,
		Data:   string(payload),
	}

	if err := s.db.Create(&notification).Error; err != nil {
		log.Printf("⚠️ Failed to create notification for user %d: %v", userID, err)
		return
	}

	if hub != nil {
		hub.SendToUser(userID, &ws.Message{
			Type:      "notification",
			Data:      notification,
			Timestamp: time.Now(),
		})
	}
}
