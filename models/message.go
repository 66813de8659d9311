package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Attachment types accepted on a message. AttachmentTypeNone is the
// default when no attachment is present.
const (
	AttachmentTypeImage    = "image"
	AttachmentTypeDocument = "document"
	AttachmentTypeLink     = "link"
	AttachmentTypeNone     = "none"
)

// Message holds the structure for the messages collection in MongoDB
type Message struct {
	ID             primitive.ObjectID `json:"_id" bson:"_id"`
	Sender         string             `json:"sender" bson:"sender"`
	Receiver       string             `json:"receiver" bson:"receiver"`
	Text           string             `json:"text" bson:"text"`
	Attachment     string             `json:"attachment,omitempty" bson:"attachment,omitempty"`
	AttachmentType string             `json:"attachmentType" bson:"attachmentType"`
	IsRead         bool               `json:"isRead" bson:"isRead"`
	CreatedAt      primitive.DateTime `json:"createdAt" bson:"createdAt"`
}

// ValidAttachmentType reports whether t is one of the accepted attachment types.
func ValidAttachmentType(t string) bool {
	switch t {
	case AttachmentTypeImage, AttachmentTypeDocument, AttachmentTypeLink, AttachmentTypeNone:
		return true
	}
	return false
}
