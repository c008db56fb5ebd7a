package models

import "time"

// Notification channels
const (
	ChannelDiscord = "discord"
	ChannelWebhook = "webhook"
	ChannelMQTT    = "mqtt"
)

// Notification records one delivered (or attempted) report notification
type Notification struct {
	ID      string    `json:"id" bson:"id"`
	Profile string    `json:"profile" bson:"profile"`
	Channel string    `json:"channel" bson:"channel"` // "discord", "webhook", "mqtt"
	Band    string    `json:"band" bson:"band"`
	Score   float64   `json:"score" bson:"score"`
	Message string    `json:"message" bson:"message"`
	SentAt  time.Time `json:"sent_at" bson:"sent_at"`
	Success bool      `json:"success" bson:"success"`
}
