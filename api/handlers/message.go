package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mentorhub/mentorhub-api/api"
	"github.com/mentorhub/mentorhub-api/config"
	"github.com/mentorhub/mentorhub-api/databases"
	"github.com/mentorhub/mentorhub-api/models"
)

// Message exported for testing purposes
type Message struct {
	DB  databases.MessageDatabase
	UDB databases.UserDatabase
}

// createMessageRequest is the body for POST /messages
type createMessageRequest struct {
	Receiver       string `json:"receiver"`
	Text           string `json:"text"`
	Attachment     string `json:"attachment"`
	AttachmentType string `json:"attachmentType"`
}

// ConversationsHandler returns the caller's conversation list: one entry per
// distinct partner, newest conversation first, each carrying the most recent
// message, a true unread count and the partner's public profile fields.
func (m Message) ConversationsHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	sortNewestFirst := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	filter := bson.M{"$or": []bson.M{
		{"sender": caller},
		{"receiver": caller},
	}}
	messages, err := m.DB.Find(ctx, filter, sortNewestFirst)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusInternalServerError, w, err)
		return
	}

	// newest-first scan: the first message seen per partner is that
	// conversation's latest
	conversations := []models.Conversation{}
	seen := map[string]bool{}
	for _, msg := range messages {
		partner := msg.Sender
		if partner == caller {
			partner = msg.Receiver
		}
		if seen[partner] {
			continue
		}
		seen[partner] = true

		conv := models.Conversation{
			PartnerID:       partner,
			LastMessage:     msg.Text,
			LastMessageDate: msg.CreatedAt,
		}

		unread, err := m.DB.CountDocuments(ctx, bson.M{
			"sender":   partner,
			"receiver": caller,
			"isRead":   false,
		})
		if err != nil {
			zap.S().Warnw("failed to count unread messages", "partner", partner, "error", err)
		} else {
			conv.UnreadCount = unread
		}

		// partner lookup failure still returns the conversation entry
		if partnerID, err := primitive.ObjectIDFromHex(partner); err == nil {
			if user, err := m.UDB.FindOne(ctx, bson.M{"_id": partnerID}); err == nil {
				conv.PartnerName = user.Details.Name
				conv.PartnerAvatar = user.Details.Avatar
				conv.PartnerRole = user.Details.Role
			} else {
				zap.S().Warnw("failed to look up conversation partner", "partner", partner, "error", err)
			}
		}

		conversations = append(conversations, conv)
	}

	b, err := json.Marshal(conversations)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// MessagesWithPartnerHandler returns the full message history between the
// caller and a partner, oldest first. Side effect: every message from the
// partner to the caller is marked read; repeating the call is a no-op.
func (m Message) MessagesWithPartnerHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	partner := mux.Vars(r)["partner_id"]
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	_, err := m.DB.UpdateMany(ctx,
		bson.M{"sender": partner, "receiver": caller, "isRead": false},
		bson.M{"$set": bson.M{"isRead": true}},
	)
	if err != nil {
		config.ErrorStatus("failed to mark messages as read", http.StatusInternalServerError, w, err)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	sortOldestFirst := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})
	filter := bson.M{"$or": []bson.M{
		{"sender": caller, "receiver": partner},
		{"sender": partner, "receiver": caller},
	}}
	messages, err := m.DB.FindPaginated(ctx, filter, limit, page, sortOldestFirst)
	if err != nil {
		config.ErrorStatus("failed to get messages", http.StatusInternalServerError, w, err)
		return
	}
	if len(messages) == 0 {
		messages = []models.Message{}
	}

	b, err := json.Marshal(messages)
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}

// CreateMessageHandler persists a new message from the caller. Empty text is
// rejected before anything is written to the store.
func (m Message) CreateMessageHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	var req createMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		config.ErrorStatus("failed to decode request body", http.StatusBadRequest, w, err)
		return
	}

	if strings.TrimSpace(req.Text) == "" {
		config.ErrorStatus("message text must not be empty", http.StatusBadRequest, w, fmt.Errorf("empty text"))
		return
	}
	if req.Receiver == "" {
		config.ErrorStatus("message receiver is required", http.StatusBadRequest, w, fmt.Errorf("missing receiver"))
		return
	}
	if req.AttachmentType == "" {
		req.AttachmentType = models.AttachmentTypeNone
	}
	if !models.ValidAttachmentType(req.AttachmentType) {
		config.ErrorStatus("invalid attachment type", http.StatusBadRequest, w, fmt.Errorf("unknown attachment type %q", req.AttachmentType))
		return
	}

	newMessage := models.Message{
		ID:             primitive.NewObjectID(),
		Sender:         caller,
		Receiver:       req.Receiver,
		Text:           req.Text,
		Attachment:     req.Attachment,
		AttachmentType: req.AttachmentType,
		IsRead:         false,
		CreatedAt:      primitive.NewDateTimeFromTime(time.Now()),
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	if _, err := m.DB.InsertOne(ctx, newMessage); err != nil {
		config.ErrorStatus("failed to create message", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(newMessage)
}

// DeleteMessageHandler removes a message. Only the sender may delete.
func (m Message) DeleteMessageHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	messageID := mux.Vars(r)["message_id"]

	mID, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		config.ErrorStatus("invalid message ID", http.StatusBadRequest, w, err)
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	message, err := m.DB.FindOne(ctx, bson.M{"_id": mID})
	if err != nil {
		config.ErrorStatus("failed to find message", http.StatusNotFound, w, err)
		return
	}
	if message.Sender != caller {
		config.ErrorStatus("only the sender may delete a message", http.StatusForbidden, w, fmt.Errorf("caller is not the sender"))
		return
	}

	if err := m.DB.DeleteOne(ctx, bson.M{"_id": mID}); err != nil {
		config.ErrorStatus("failed to delete message", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"message": "message deleted successfully"}`))
}

// UnreadCountHandler returns the caller's total number of unread messages
func (m Message) UnreadCountHandler(w http.ResponseWriter, r *http.Request) {
	caller := api.CallerID(r)
	if caller == "" {
		config.ErrorStatus("missing authentication", http.StatusUnauthorized, w, fmt.Errorf("no caller identity"))
		return
	}

	ctx, cancel := api.WithQueryTimeout(r.Context())
	defer cancel()

	count, err := m.DB.CountDocuments(ctx, bson.M{"receiver": caller, "isRead": false})
	if err != nil {
		config.ErrorStatus("failed to count unread messages", http.StatusInternalServerError, w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]int64{"count": count})
}
