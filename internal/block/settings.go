// Package block runs the fetch cycle behind a timeline block: one token
// exchange, one timeline request, then linkification of every post.
package block

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidRequest is returned, wrapped, for requests rejected before any
// network call is made.
var ErrInvalidRequest = errors.New("invalid block request")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Request identifies whose posts to fetch and how many.
type Request struct {
	Username string `json:"username" validate:"required,max=512"`
	Count    int    `json:"count" validate:"min=0"`
}

// Validate rejects empty or overlong usernames and negative counts.
func (r Request) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return nil
}

// Settings is the per-instance configuration of a block.
type Settings struct {
	Username  string `koanf:"username" json:"username" validate:"required,max=512"`
	NumTweets int    `koanf:"num_tweets" json:"num_tweets" validate:"min=0"`
}

// Validate checks the settings against the selectable range 0..maxTweets.
func (s Settings) Validate(maxTweets int) error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	if s.NumTweets > maxTweets {
		return fmt.Errorf("%w: num_tweets %d exceeds maximum of %d", ErrInvalidRequest, s.NumTweets, maxTweets)
	}
	return nil
}

// Request converts the settings into a fetch request.
func (s Settings) Request() Request {
	return Request{Username: s.Username, Count: s.NumTweets}
}

// CountOptions lists the selectable tweet counts, 0 through maxTweets.
func CountOptions(maxTweets int) []int {
	if maxTweets < 0 {
		return nil
	}
	options := make([]int, 0, maxTweets+1)
	for i := 0; i <= maxTweets; i++ {
		options = append(options, i)
	}
	return options
}
