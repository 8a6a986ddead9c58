package grounding

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"
)

func init() {
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
	encodingErr  error
)

// TokenEstimator counts tokens with the cl100k_base encoding. When the
// encoding cannot be loaded it falls back to a character heuristic so the
// budget check never blocks assembly.
type TokenEstimator struct{}

// NewTokenEstimator returns a shared-encoding estimator.
func NewTokenEstimator() *TokenEstimator {
	return &TokenEstimator{}
}

// Count returns the token count for text.
func (e *TokenEstimator) Count(text string) int {
	encodingOnce.Do(func() {
		encoding, encodingErr = tiktoken.GetEncoding("cl100k_base")
	})
	if encodingErr != nil || encoding == nil {
		return (utf8.RuneCountInString(text) + 3) / 4
	}
	return len(encoding.Encode(text, nil, nil))
}
