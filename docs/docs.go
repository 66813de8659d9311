// Package docs MentorHub API.
//
// Documentation of the MentorHub API.
//
//     Schemes: https
//     BasePath: /
//     Version: 1.0.0
//
//     Consumes:
//     - application/json
//
//     Produces:
//     - application/json
//
//     Security:
//     - basic
//
//    SecurityDefinitions:
//    basic:
//      type: basic
//
// swagger:meta
package docs

import (
	"github.com/mentorhub/mentorhub-api/models"
)

// swagger:route GET /api/v1/messages/conversations messages conversationsList
// Lists the caller's conversations, most recent first.
// responses:
//   200: conversationsResponse

// One entry per partner with the latest message and unread count.
// swagger:response conversationsResponse
type conversationsResponseWrapper struct {
	// in:body
	Body []models.Conversation
}

// swagger:route GET /api/v1/messages/{partner_id} messages messagesWithPartner
// Full message history with one partner, oldest first.
// responses:
//   200: messagesResponse

// The messages between the caller and the partner.
// swagger:response messagesResponse
type messagesResponseWrapper struct {
	// in:body
	Body []models.Message
}

// swagger:route POST /api/v1/sessions sessions createSession
// Books a new mentoring session with the caller as mentee.
// responses:
//   201: sessionResponse

// The persisted session record.
// swagger:response sessionResponse
type sessionResponseWrapper struct {
	// in:body
	Body models.Session
}
