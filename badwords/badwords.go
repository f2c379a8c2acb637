// Package badwords screens visitor-supplied free text (meeting titles,
// notes) before it is forwarded to an approver mailbox.
package badwords

import (
	"fmt"
	"os"
	"strings"
	"sync"
)

// blocklist is a set of disallowed words, lowercased.
var (
	blocklist map[string]struct{}
	mu        sync.RWMutex
)

// LoadBadWords loads the blocklist from a text file, one word per line.
// Screening is optional: a missing file leaves the blocklist empty and every
// text passes.
func LoadBadWords(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read bad words file: %w", err)
	}

	words := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			words[strings.ToLower(line)] = struct{}{}
		}
	}

	mu.Lock()
	blocklist = words
	mu.Unlock()
	return nil
}

// ContainsBadWords reports whether any word of the text is on the blocklist.
// Matching is case-insensitive and splits on anything that is not a letter
// or digit.
func ContainsBadWords(text string) bool {
	mu.RLock()
	defer mu.RUnlock()

	if len(blocklist) == 0 {
		return false
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !('a' <= r && r <= 'z' || '0' <= r && r <= '9')
	})
	for _, word := range words {
		if _, found := blocklist[word]; found {
			return true
		}
	}
	return false
}

// AddBadWord adds a word to the in-memory blocklist.
func AddBadWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if blocklist == nil {
		blocklist = make(map[string]struct{})
	}
	blocklist[word] = struct{}{}
}
