// Package analyst is the client for the Snowflake Cortex Analyst API.
//
// Design decisions:
//   - Reply content is a closed sum type (TextBlock, SuggestionsBlock,
//     SQLBlock) instead of string-keyed maps. Rendering switches over the
//     concrete type; an unknown wire tag fails at decode time, not deep in
//     the UI.
//   - The client never retries and never raises on HTTP failure to its
//     caller's control flow: a failed send yields a zero Reply plus a
//     RequestError the UI shows inline, and the conversation continues.
package analyst

import (
	"encoding/json"
	"fmt"
)

// ContentBlock is one rendering unit within a turn.
// The type set is closed: text, suggestions, sql.
type ContentBlock interface {
	blockType() string
}

// TextBlock is prose from the analyst (or the user's prompt).
type TextBlock struct {
	Text string
}

// SuggestionsBlock carries follow-up questions the user can promote to a
// new prompt.
type SuggestionsBlock struct {
	Suggestions []string
}

// SQLBlock carries a generated SQL statement to run against the session.
type SQLBlock struct {
	Statement string
}

func (TextBlock) blockType() string        { return "text" }
func (SuggestionsBlock) blockType() string { return "suggestions" }
func (SQLBlock) blockType() string         { return "sql" }

// Content is an ordered block list with tagged-union JSON encoding.
type Content []ContentBlock

// blockEnvelope is the wire form of one content block.
type blockEnvelope struct {
	Type        string   `json:"type"`
	Text        string   `json:"text,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Statement   string   `json:"statement,omitempty"`
}

// MarshalJSON restores the tagged wire form.
func (c Content) MarshalJSON() ([]byte, error) {
	envelopes := make([]blockEnvelope, 0, len(c))
	for _, block := range c {
		env := blockEnvelope{Type: block.blockType()}
		switch b := block.(type) {
		case TextBlock:
			env.Text = b.Text
		case SuggestionsBlock:
			env.Suggestions = b.Suggestions
		case SQLBlock:
			env.Statement = b.Statement
		}
		envelopes = append(envelopes, env)
	}
	return json.Marshal(envelopes)
}

// UnmarshalJSON dispatches on the "type" tag. Unknown tags are an error.
func (c *Content) UnmarshalJSON(data []byte) error {
	var envelopes []blockEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return err
	}

	blocks := make(Content, 0, len(envelopes))
	for i, env := range envelopes {
		switch env.Type {
		case "text":
			blocks = append(blocks, TextBlock{Text: env.Text})
		case "suggestions":
			blocks = append(blocks, SuggestionsBlock{Suggestions: env.Suggestions})
		case "sql":
			blocks = append(blocks, SQLBlock{Statement: env.Statement})
		default:
			return fmt.Errorf("content block %d: unknown type %q", i, env.Type)
		}
	}
	*c = blocks
	return nil
}

// Reply is one parsed analyst response: content blocks plus the
// correlation id from the X-Snowflake-Request-Id header. The zero Reply
// means "no content, no request id" and is what failed sends return.
type Reply struct {
	Content   Content
	RequestID string
}
