package client

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mentorhub/mentorhub-api/models"
	"github.com/mentorhub/mentorhub-api/realtime"
)

// ChatState is the lifecycle state of the chat controller.
type ChatState int

const (
	// ChatIdle means no conversation is open.
	ChatIdle ChatState = iota
	// ChatLoading means a conversation's history is being fetched.
	ChatLoading
	// ChatActive means a conversation is open and interactive.
	ChatActive
	// ChatSending means a send is in flight for the active conversation.
	ChatSending
)

// ErrNoActiveConversation is returned when sending without an open conversation.
var ErrNoActiveConversation = errors.New("no active conversation")

// ErrEmptyMessage is returned when sending a blank message.
var ErrEmptyMessage = errors.New("message text must not be empty")

const (
	// typingQuietPeriod is how long after the last keystroke before a
	// typing-stopped event is emitted.
	typingQuietPeriod = 1 * time.Second
	// peerTypingTimeout clears a stale peer typing indicator when no
	// stop event ever arrives.
	peerTypingTimeout = 3 * time.Second
)

// ChatMessage is the controller's view of a message. Pending entries hold a
// synthetic id until the server confirms the send.
type ChatMessage struct {
	ID             string
	Sender         string
	Receiver       string
	Text           string
	Attachment     string
	AttachmentType string
	IsRead         bool
	CreatedAt      time.Time
	Pending        bool
}

func chatMessageFrom(m models.Message) ChatMessage {
	return ChatMessage{
		ID:             m.ID.Hex(),
		Sender:         m.Sender,
		Receiver:       m.Receiver,
		Text:           m.Text,
		Attachment:     m.Attachment,
		AttachmentType: m.AttachmentType,
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt.Time(),
	}
}

// MessagingAPI is the slice of the REST surface the chat controller needs.
type MessagingAPI interface {
	Conversations(ctx context.Context) ([]models.Conversation, error)
	Messages(ctx context.Context, partnerID string) ([]models.Message, error)
	SendMessage(ctx context.Context, req SendMessageRequest) (*models.Message, error)
}

// typingPayload is the body of a typing event.
type typingPayload struct {
	UserID   string `json:"userId"`
	IsTyping bool   `json:"isTyping"`
}

// ChatController drives one user's messaging view: the conversation list,
// the active conversation, optimistic sends and typing indicators. All
// methods are safe for concurrent use.
type ChatController struct {
	api     MessagingAPI
	channel Channel
	selfID  string

	mu            sync.Mutex
	state         ChatState
	activePartner string
	messages      []ChatMessage
	conversations []models.Conversation

	typingSent      bool
	typingStop      *time.Timer
	peerTyping      bool
	peerTypingClear *time.Timer
}

// NewChatController creates a controller for the given user.
func NewChatController(api MessagingAPI, channel Channel, selfID string) *ChatController {
	return &ChatController{
		api:     api,
		channel: channel,
		selfID:  selfID,
		state:   ChatIdle,
	}
}

// Start consumes the channel's event stream until it closes. Call in a
// goroutine after connecting.
func (c *ChatController) Start() {
	for event := range c.channel.Events() {
		c.HandleEvent(event)
	}
}

// State returns the current controller state.
func (c *ChatController) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActivePartner returns the partner id of the open conversation, or empty.
func (c *ChatController) ActivePartner() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activePartner
}

// Messages returns a copy of the active conversation's messages.
func (c *ChatController) Messages() []ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ChatMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

// Conversations returns a copy of the conversation list, most recent first.
func (c *ChatController) Conversations() []models.Conversation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Conversation, len(c.conversations))
	copy(out, c.conversations)
	return out
}

// PeerTyping reports whether the active partner is currently typing.
func (c *ChatController) PeerTyping() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peerTyping
}

// LoadConversations refreshes the conversation list from the server.
func (c *ChatController) LoadConversations(ctx context.Context) error {
	conversations, err := c.api.Conversations(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conversations = conversations
	c.mu.Unlock()
	return nil
}

// OpenConversation joins the conversation's room, fetches its history and
// makes it active. The server marks the partner's messages as read; the
// local unread count for the conversation is zeroed to match.
func (c *ChatController) OpenConversation(ctx context.Context, partnerID string) error {
	c.mu.Lock()
	previousState := c.state
	c.state = ChatLoading
	c.mu.Unlock()

	room := realtime.ConversationRoomID(c.selfID, partnerID)
	if err := c.channel.Join(room); err != nil {
		c.mu.Lock()
		c.state = previousState
		c.mu.Unlock()
		return err
	}

	history, err := c.api.Messages(ctx, partnerID)
	if err != nil {
		c.mu.Lock()
		c.state = previousState
		c.mu.Unlock()
		return err
	}

	messages := make([]ChatMessage, 0, len(history))
	for _, m := range history {
		messages = append(messages, chatMessageFrom(m))
	}

	c.mu.Lock()
	c.activePartner = partnerID
	c.messages = messages
	c.state = ChatActive
	c.peerTyping = false
	if c.peerTypingClear != nil {
		c.peerTypingClear.Stop()
	}
	for i := range c.conversations {
		if c.conversations[i].PartnerID == partnerID {
			c.conversations[i].UnreadCount = 0
		}
	}
	c.mu.Unlock()
	return nil
}

// Send performs an optimistic send: the message appears immediately under a
// synthetic id, then is replaced by the server record on success or removed
// on failure.
func (c *ChatController) Send(ctx context.Context, text, attachment, attachmentType string) (ChatMessage, error) {
	c.mu.Lock()
	if c.state != ChatActive {
		c.mu.Unlock()
		return ChatMessage{}, ErrNoActiveConversation
	}
	// the server rejects blank text even when an attachment is present
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return ChatMessage{}, ErrEmptyMessage
	}
	partnerID := c.activePartner
	temp := ChatMessage{
		ID:             uuid.NewString(),
		Sender:         c.selfID,
		Receiver:       partnerID,
		Text:           text,
		Attachment:     attachment,
		AttachmentType: attachmentType,
		CreatedAt:      time.Now(),
		Pending:        true,
	}
	c.messages = append(c.messages, temp)
	c.state = ChatSending
	c.mu.Unlock()

	c.stopTypingNow()

	sent, err := c.api.SendMessage(ctx, SendMessageRequest{
		Receiver:       partnerID,
		Text:           text,
		Attachment:     attachment,
		AttachmentType: attachmentType,
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = ChatActive
	if err != nil {
		c.removeMessageLocked(temp.ID)
		return ChatMessage{}, err
	}

	confirmed := chatMessageFrom(*sent)
	replaced := false
	for i := range c.messages {
		if c.messages[i].ID == temp.ID {
			c.messages[i] = confirmed
			replaced = true
			break
		}
	}
	if !replaced {
		c.messages = append(c.messages, confirmed)
	}
	c.touchConversationLocked(partnerID, confirmed, false)

	payload, _ := json.Marshal(sent)
	_ = c.channel.Emit(realtime.Event{
		Event:   realtime.EventMessage,
		Room:    realtime.ConversationRoomID(c.selfID, partnerID),
		Payload: payload,
	})
	return confirmed, nil
}

// KeystrokeTyped reports user input in the active conversation. The first
// keystroke of a burst emits a typing-started event; a stop event follows
// one quiet second after the last keystroke.
func (c *ChatController) KeystrokeTyped() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != ChatActive && c.state != ChatSending {
		return
	}
	if !c.typingSent {
		c.typingSent = true
		c.emitTypingLocked(true)
	}
	if c.typingStop != nil {
		c.typingStop.Stop()
	}
	c.typingStop = time.AfterFunc(typingQuietPeriod, c.stopTypingNow)
}

func (c *ChatController) stopTypingNow() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.typingSent {
		return
	}
	c.typingSent = false
	if c.typingStop != nil {
		c.typingStop.Stop()
	}
	c.emitTypingLocked(false)
}

func (c *ChatController) emitTypingLocked(isTyping bool) {
	if c.activePartner == "" {
		return
	}
	payload, _ := json.Marshal(typingPayload{UserID: c.selfID, IsTyping: isTyping})
	_ = c.channel.Emit(realtime.Event{
		Event:   realtime.EventTyping,
		Room:    realtime.ConversationRoomID(c.selfID, c.activePartner),
		Payload: payload,
	})
}

// HandleEvent applies one incoming realtime event to local state.
func (c *ChatController) HandleEvent(event realtime.Event) {
	switch event.Event {
	case realtime.EventMessage:
		c.handleIncomingMessage(event)
	case realtime.EventTyping:
		c.handleTyping(event)
	}
}

func (c *ChatController) handleIncomingMessage(event realtime.Event) {
	var msg models.Message
	if err := json.Unmarshal(event.Payload, &msg); err != nil {
		return
	}
	if msg.Sender == c.selfID {
		return
	}

	incoming := chatMessageFrom(msg)

	c.mu.Lock()
	defer c.mu.Unlock()

	if msg.Sender == c.activePartner && c.state != ChatIdle {
		// The optimistic path can race the realtime echo; drop duplicates.
		for _, existing := range c.messages {
			if existing.ID == incoming.ID {
				return
			}
		}
		c.messages = append(c.messages, incoming)
		c.touchConversationLocked(msg.Sender, incoming, false)
		return
	}
	c.touchConversationLocked(msg.Sender, incoming, true)
}

func (c *ChatController) handleTyping(event realtime.Event) {
	var payload typingPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if payload.UserID != c.activePartner {
		return
	}
	if c.peerTypingClear != nil {
		c.peerTypingClear.Stop()
	}
	c.peerTyping = payload.IsTyping
	if payload.IsTyping {
		c.peerTypingClear = time.AfterFunc(peerTypingTimeout, func() {
			c.mu.Lock()
			c.peerTyping = false
			c.mu.Unlock()
		})
	}
}

// touchConversationLocked moves the partner's conversation to the top of the
// list with the new last message, creating an entry when none exists, and
// bumps the unread count when the conversation is not the active one.
func (c *ChatController) touchConversationLocked(partnerID string, msg ChatMessage, unread bool) {
	var conv models.Conversation
	found := false
	for i := range c.conversations {
		if c.conversations[i].PartnerID == partnerID {
			conv = c.conversations[i]
			c.conversations = append(c.conversations[:i], c.conversations[i+1:]...)
			found = true
			break
		}
	}
	if !found {
		conv = models.Conversation{PartnerID: partnerID}
	}
	conv.LastMessage = msg.Text
	conv.LastMessageDate = primitive.NewDateTimeFromTime(msg.CreatedAt)
	if unread {
		conv.UnreadCount++
	}
	c.conversations = append([]models.Conversation{conv}, c.conversations...)
}

func (c *ChatController) removeMessageLocked(id string) {
	for i := range c.messages {
		if c.messages[i].ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}
