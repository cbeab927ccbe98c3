package character

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"
)

type Character struct {
	Name         string   `json:"name"`
	Gender       string   `json:"gender"`
	Age          string   `json:"age,omitempty"`
	Traits       []string `json:"traits"`
	SpeechStyle  string   `json:"speech_style"`
	Catchphrase  string   `json:"catchphrase"`
	AnimeSetting string   `json:"anime_setting"`
}

func FromJSON(data []byte) (*Character, error) {
	var c *Character

	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal character: %w", err)
	}

	if c == nil {
		return nil, fmt.Errorf("character document is null")
	}

	return c, nil
}

// ToJSON encodes the record as 2-space indented UTF-8 without HTML escaping.
func (c *Character) ToJSON() ([]byte, error) {
	buf := &bytes.Buffer{}

	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")

	if err := enc.Encode(c); err != nil {
		return nil, fmt.Errorf("failed to marshal character: %w", err)
	}

	return buf.Bytes(), nil
}

func (c *Character) Validate() error {
	if c == nil || c.Name == "" || c.Gender == "" || len(c.Traits) == 0 ||
		c.SpeechStyle == "" || c.AnimeSetting == "" || c.Catchphrase == "" {
		return apperr.New(apperr.CodeValidation, "All fields are required")
	}

	return nil
}

func (c *Character) IsEmpty() bool {
	return c == nil || (c.Name == "" && c.Gender == "" && c.Age == "" && len(c.Traits) == 0 &&
		c.SpeechStyle == "" && c.Catchphrase == "" && c.AnimeSetting == "")
}
