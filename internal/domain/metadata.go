// Package domain defines the core persistence models for the application.
// This file models message metadata as a tagged union keyed by message type,
// replacing the open-ended provider bags with variants that declare only the
// fields they actually need. Unrecognized shapes are preserved verbatim in
// the Opaque variant so nothing a provider sends is ever lost.
package domain

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Metadata kinds. Kind selects which variant of MessageMetadata is populated.
const (
	MetadataNone     = ""
	MetadataImage    = "image"
	MetadataAudio    = "audio"
	MetadataDocument = "document"
	MetadataGeneric  = "generic"
	MetadataOpaque   = "opaque"
)

// ImageMetadata carries provider media fields for image messages.
type ImageMetadata struct {
	URL      string `json:"url"`
	Caption  string `json:"caption,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
}

// AudioMetadata carries provider media fields for audio/voice messages.
type AudioMetadata struct {
	URL             string `json:"url"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
	MimeType        string `json:"mime_type,omitempty"`
}

// DocumentMetadata carries provider media fields for document messages.
type DocumentMetadata struct {
	URL      string `json:"url"`
	Filename string `json:"filename,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// GenericMetadata covers the small set of non-media fields providers attach
// to plain messages (quoted/forwarded markers, provider message ids).
type GenericMetadata struct {
	ProviderMessageID string `json:"provider_message_id,omitempty"`
	QuotedMessageID   string `json:"quoted_message_id,omitempty"`
	Forwarded         bool   `json:"forwarded,omitempty"`
}

// MessageMetadata is the tagged union stored on a message. Exactly one
// variant pointer is non-nil, matching Kind; a zero value (Kind == "")
// means the message has no metadata.
type MessageMetadata struct {
	Kind     string            `json:"kind,omitempty"`
	Image    *ImageMetadata    `json:"image,omitempty"`
	Audio    *AudioMetadata    `json:"audio,omitempty"`
	Document *DocumentMetadata `json:"document,omitempty"`
	Generic  *GenericMetadata  `json:"generic,omitempty"`
	Opaque   json.RawMessage   `json:"opaque,omitempty"`
}

// IsZero reports whether the metadata carries no payload at all.
func (m MessageMetadata) IsZero() bool {
	return m.Kind == MetadataNone && m.Image == nil && m.Audio == nil &&
		m.Document == nil && m.Generic == nil && len(m.Opaque) == 0
}

// envelope is the wire/storage shape. Decoding switches on Kind; payloads
// with an unknown kind (or no kind) fall back to Opaque.
type envelope struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Value implements driver.Valuer so GORM can store the union as a TEXT column.
func (m MessageMetadata) Value() (driver.Value, error) {
	if m.IsZero() {
		return nil, nil
	}
	b, err := json.Marshal(m.wire())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner. NULL and empty values scan to the zero union.
func (m *MessageMetadata) Scan(src any) error {
	if src == nil {
		*m = MessageMetadata{}
		return nil
	}
	var raw []byte
	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("metadata: unsupported scan type %T", src)
	}
	if len(raw) == 0 {
		*m = MessageMetadata{}
		return nil
	}
	return m.decode(raw)
}

func (m MessageMetadata) wire() envelope {
	var payload any
	switch m.Kind {
	case MetadataImage:
		payload = m.Image
	case MetadataAudio:
		payload = m.Audio
	case MetadataDocument:
		payload = m.Document
	case MetadataGeneric:
		payload = m.Generic
	case MetadataOpaque:
		return envelope{Kind: MetadataOpaque, Payload: m.Opaque}
	default:
		return envelope{}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return envelope{Kind: MetadataOpaque}
	}
	return envelope{Kind: m.Kind, Payload: b}
}

func (m *MessageMetadata) decode(raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		// Not even an envelope; keep the bytes rather than dropping them.
		if !json.Valid(raw) {
			return errors.New("metadata: invalid JSON")
		}
		*m = MessageMetadata{Kind: MetadataOpaque, Opaque: append(json.RawMessage(nil), raw...)}
		return nil
	}
	out := MessageMetadata{Kind: env.Kind}
	switch env.Kind {
	case MetadataNone:
		// No kind tag. Either a genuinely empty value, or a legacy flat
		// provider bag written before the union existed; keep the latter.
		trimmed := string(raw)
		if trimmed == "{}" || trimmed == "null" {
			*m = MessageMetadata{}
			return nil
		}
		*m = MessageMetadata{Kind: MetadataOpaque, Opaque: append(json.RawMessage(nil), raw...)}
		return nil
	case MetadataImage:
		out.Image = &ImageMetadata{}
		if err := json.Unmarshal(env.Payload, out.Image); err != nil {
			return err
		}
	case MetadataAudio:
		out.Audio = &AudioMetadata{}
		if err := json.Unmarshal(env.Payload, out.Audio); err != nil {
			return err
		}
	case MetadataDocument:
		out.Document = &DocumentMetadata{}
		if err := json.Unmarshal(env.Payload, out.Document); err != nil {
			return err
		}
	case MetadataGeneric:
		out.Generic = &GenericMetadata{}
		if err := json.Unmarshal(env.Payload, out.Generic); err != nil {
			return err
		}
	default:
		// Unknown kind: preserve as opaque, tagged with what we received.
		out.Kind = MetadataOpaque
		out.Opaque = append(json.RawMessage(nil), raw...)
	}
	*m = out
	return nil
}

// ParseMetadata decodes a wire payload (envelope or legacy provider bag) into
// the union. Empty input yields the zero value. Unlike Scan, which must accept
// whatever is already stored, wire input is required to be a JSON object.
func ParseMetadata(raw json.RawMessage) (MessageMetadata, error) {
	var m MessageMetadata
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		return m, nil
	}
	if trimmed[0] != '{' {
		return MessageMetadata{}, errors.New("metadata: must be a JSON object")
	}
	if err := m.decode(trimmed); err != nil {
		return MessageMetadata{}, err
	}
	return m, nil
}

// ImageMeta builds image metadata.
func ImageMeta(url, caption, mime string) MessageMetadata {
	return MessageMetadata{Kind: MetadataImage, Image: &ImageMetadata{URL: url, Caption: caption, MimeType: mime}}
}

// AudioMeta builds audio metadata.
func AudioMeta(url string, duration int, mime string) MessageMetadata {
	return MessageMetadata{Kind: MetadataAudio, Audio: &AudioMetadata{URL: url, DurationSeconds: duration, MimeType: mime}}
}

// DocumentMeta builds document metadata.
func DocumentMeta(url, filename, mime string) MessageMetadata {
	return MessageMetadata{Kind: MetadataDocument, Document: &DocumentMetadata{URL: url, Filename: filename, MimeType: mime}}
}
