// Package whatsapp turns WhatsApp Business webhook deliveries into stored
// messages.
package whatsapp

// ObjectBusinessAccount is the only webhook object this package handles
const ObjectBusinessAccount = "whatsapp_business_account"

// Payload is the body of a webhook POST
type Payload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string `json:"field"`
	Value Value  `json:"value"`
}

type Value struct {
	MessagingProduct string           `json:"messaging_product"`
	Contacts         []Contact        `json:"contacts"`
	Messages         []InboundMessage `json:"messages"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// InboundMessage is one message inside a change. Exactly one of the typed
// bodies is set, matching Type.
type InboundMessage struct {
	ID        string     `json:"id" validate:"required"`
	From      string     `json:"from" validate:"omitempty,max=64"`
	Timestamp string     `json:"timestamp"`
	Type      string     `json:"type" validate:"required"`
	Text      *TextBody  `json:"text,omitempty"`
	Image     *MediaBody `json:"image,omitempty"`
	Audio     *MediaBody `json:"audio,omitempty"`
	Video     *MediaBody `json:"video,omitempty"`
	Document  *MediaBody `json:"document,omitempty"`
}

type TextBody struct {
	Body string `json:"body"`
}

// MediaBody references an attachment held by the provider
type MediaBody struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Caption  string `json:"caption,omitempty"`
	Filename string `json:"filename,omitempty"`
	FileSize int64  `json:"file_size,omitempty"`
}

// Media returns the attachment body for the message's type, if any
func (m InboundMessage) Media() *MediaBody {
	switch m.Type {
	case "image":
		return m.Image
	case "audio":
		return m.Audio
	case "video":
		return m.Video
	case "document":
		return m.Document
	}
	return nil
}

// contactFor picks the contact describing msg's sender, falling back to the
// first contact of the change.
func (v Value) contactFor(msg InboundMessage) Contact {
	for _, c := range v.Contacts {
		if c.WaID != "" && c.WaID == msg.From {
			return c
		}
	}
	if len(v.Contacts) > 0 {
		return v.Contacts[0]
	}
	return Contact{}
}
