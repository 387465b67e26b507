package adapter

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/m-mizutani/goerr/v2"
)

// BERT special token IDs for the all-MiniLM family vocabularies.
const (
	tokenUNK = 100
	tokenCLS = 101
	tokenSEP = 102
)

// wordPieceTokenizer implements BERT-style WordPiece tokenization from a
// HuggingFace tokenizer.json vocabulary. Only the pieces needed for
// sentence embedding are implemented; the model is robust to the
// simplified punctuation handling.
type wordPieceTokenizer struct {
	vocab map[string]int
}

func loadWordPieceTokenizer(path string) (*wordPieceTokenizer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read tokenizer file")
	}

	var doc struct {
		Model struct {
			Vocab map[string]int `json:"vocab"`
		} `json:"model"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse tokenizer file")
	}
	if len(doc.Model.Vocab) == 0 {
		return nil, goerr.New("tokenizer vocabulary is empty")
	}

	return &wordPieceTokenizer{vocab: doc.Model.Vocab}, nil
}

// Encode converts text to a [CLS] ... [SEP] token ID sequence, truncated
// to maxLen. The model is uncased, so input is lowercased first.
func (t *wordPieceTokenizer) Encode(text string, maxLen int) []int64 {
	words := strings.Fields(strings.ToLower(text))

	ids := make([]int64, 0, maxLen)
	ids = append(ids, tokenCLS)

	for _, word := range words {
		word = strings.Trim(word, ".,!?;:\"'()[]")
		if word == "" {
			continue
		}
		for _, id := range t.tokenizeWord(word) {
			if len(ids) >= maxLen-1 {
				break
			}
			ids = append(ids, id)
		}
	}

	return append(ids, tokenSEP)
}

// tokenizeWord splits one word into vocabulary entries by greedy
// longest-prefix matching, using the "##" continuation convention.
func (t *wordPieceTokenizer) tokenizeWord(word string) []int64 {
	if id, ok := t.vocab[word]; ok {
		return []int64{int64(id)}
	}

	var ids []int64
	start := 0
	for start < len(word) {
		matched := false
		for end := len(word); end > start; end-- {
			piece := word[start:end]
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab[piece]; ok {
				ids = append(ids, int64(id))
				start = end
				matched = true
				break
			}
		}
		if !matched {
			return []int64{tokenUNK}
		}
	}
	return ids
}
