package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Conversation is the derived view of all messages between the current
// user and one other participant, collapsed to the most recent message
// and an unread count. It is computed on each fetch and never persisted.
type Conversation struct {
	PartnerID       string             `json:"partnerId"`
	PartnerName     string             `json:"partnerName"`
	PartnerAvatar   string             `json:"partnerAvatar"`
	PartnerRole     string             `json:"partnerRole"`
	LastMessage     string             `json:"lastMessage"`
	LastMessageDate primitive.DateTime `json:"lastMessageDate"`
	UnreadCount     int64              `json:"unreadCount"`
}
