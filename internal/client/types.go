package client

import "strings"

type AttachmentType string

const (
	AttachmentFile  AttachmentType = "file"
	AttachmentImage AttachmentType = "image"
)

// UploadRequest describes a single attachment upload. File is the path on
// disk; it is opened when the request is sent.
type UploadRequest struct {
	Channel string
	File    string
	Type    AttachmentType
}

type Recipient struct {
	ThreadKey string `json:"thread_key"`
}

type TextMessage struct {
	Text string `json:"text"`
}

type StatusPayload struct {
	MessagingType string      `json:"messaging_type"`
	Recipient     Recipient   `json:"recipient"`
	Message       TextMessage `json:"message"`
}

type AttachmentPayload struct {
	IsReusable bool `json:"is_reusable"`
}

type Attachment struct {
	Type    AttachmentType    `json:"type"`
	Payload AttachmentPayload `json:"payload"`
}

type AttachmentMessage struct {
	Attachment Attachment `json:"attachment"`
}

const messagingTypeUpdate = "UPDATE"

// Response is the decoded JSON body. The API reports failures inside the
// body, but callers only treat transport and decode problems as errors.
type Response map[string]any

// ErrorMessage extracts error.message from a Graph-style error body.
func (r Response) ErrorMessage() (string, bool) {
	errBody, ok := r["error"].(map[string]any)
	if !ok {
		return "", false
	}
	msg, _ := errBody["message"].(string)
	msg = strings.TrimSpace(msg)
	if msg == "" {
		return "unknown API error", true
	}
	return msg, true
}
