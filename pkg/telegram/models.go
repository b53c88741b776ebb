package telegram

import (
	"encoding/json"
	"errors"
	"fmt"
)

const ParseModeHTML = "HTML"

var (
	// ErrMalformedUpdate is returned when an update body is not valid JSON.
	ErrMalformedUpdate = errors.New("malformed update")
	// ErrUnsupportedUpdate is returned for well-formed updates the bot cannot
	// answer, such as channel posts or messages without a sender.
	ErrUnsupportedUpdate = errors.New("unsupported update")
)

type User struct {
	ID           int64  `json:"id"`
	IsBot        bool   `json:"is_bot"`
	FirstName    string `json:"first_name"`
	Username     string `json:"username,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

type Chat struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Message struct {
	MessageID int64     `json:"message_id"`
	From      *User     `json:"from,omitempty"`
	Chat      *Chat     `json:"chat,omitempty"`
	Date      int64     `json:"date"`
	Text      string    `json:"text,omitempty"`
	Location  *Location `json:"location,omitempty"`
}

// Update is an incoming webhook event.
type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// ParseUpdate decodes and validates a webhook body. A nil error guarantees
// that Message and Message.From are set and that a present Location holds
// valid coordinates.
func ParseUpdate(body []byte) (*Update, error) {
	var upd Update
	if err := json.Unmarshal(body, &upd); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedUpdate, err)
	}
	if err := upd.Validate(); err != nil {
		return &upd, err
	}
	return &upd, nil
}

// Validate reports whether the update can be answered.
func (u *Update) Validate() error {
	if u.Message == nil {
		return fmt.Errorf("%w: update %d has no message", ErrUnsupportedUpdate, u.UpdateID)
	}
	if u.Message.From == nil {
		return fmt.Errorf("%w: message %d has no sender", ErrUnsupportedUpdate, u.Message.MessageID)
	}
	if loc := u.Message.Location; loc != nil {
		if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
			return fmt.Errorf("%w: location %f,%f out of range", ErrUnsupportedUpdate, loc.Latitude, loc.Longitude)
		}
	}
	return nil
}

type response struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	ErrorCode   int             `json:"error_code"`
}
