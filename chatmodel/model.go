package chatmodel

import (
	"github.com/cockroachdb/errors"
)

var (
	ErrFailedUnmarshalInput = errors.New("failed to unmarshal input: check the schema and try again")
	ErrInvalidChatContext   = errors.New("invalid chat context")
)

// Bot describes the bot (assistant configuration) on whose behalf a tool is called.
type Bot struct {
	ID          string `json:"id" yaml:"id"`
	OwnerID     string `json:"owner_id,omitempty" yaml:"owner_id,omitempty"`
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}
