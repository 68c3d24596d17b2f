package models

import "time"

const (
	HeaderMessageID    = "messageId"
	HeaderTopic        = "topic"
	HeaderGenerateTime = "generateTime"
	HeaderContentType  = "contentType"
)

// Delivery is one message handed over by a broker consumer.
type Delivery struct {
	Body    []byte            `json:"-"`
	Headers map[string]string `json:"headers,omitempty"`
	// ContentType is the protocol-level content type, if the transport has one.
	ContentType string    `json:"content_type,omitempty"`
	Source      string    `json:"source,omitempty"`
	ReceivedAt  time.Time `json:"received_at"`
}

func (d Delivery) header(key string) string {
	if d.Headers == nil {
		return ""
	}
	return d.Headers[key]
}

func (d Delivery) MessageID() string {
	return d.header(HeaderMessageID)
}

func (d Delivery) Topic() string {
	return d.header(HeaderTopic)
}

func (d Delivery) GenerateTime() string {
	return d.header(HeaderGenerateTime)
}

// DeclaredContentType prefers the protocol-level content type over the contentType header.
func (d Delivery) DeclaredContentType() string {
	if d.ContentType != "" {
		return d.ContentType
	}
	return d.header(HeaderContentType)
}
