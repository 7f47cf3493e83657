package wordlist

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Generator produces fresh random code words for the sender side of
// AllocateCode (core.CodeGenerator). It is stateless and safe for concurrent
// use.
type Generator struct{}

// NewGenerator returns the default word generator, drawn from the PGP word
// list the same way the teacher's magicWormholeEncoding addresses it:
// alternating between the even- and odd-position halves so a transcribed
// code is harder to garble one word at a time.
func NewGenerator() Generator { return Generator{} }

// Match offers a prefix-completion hint from the same word list RandomWords
// draws from, satisfying core.WordMatcher.
func (Generator) Match(prefix string) string { return Match(prefix) }

// RandomWords returns n freshly chosen words, suitable for joining with "-"
// after the nameplate to form a Code.
func (Generator) RandomWords(n int) ([]string, error) {
	words := make([]string, n)
	for i := range words {
		half := parityWords(pgpWords, i%2)
		w, err := randomElement(half)
		if err != nil {
			return nil, err
		}
		words[i] = w
	}
	return words, nil
}

// parityWords returns every other entry of list starting at parity (0 or
// 1), mirroring the column layout magicWormholeEncoding indexes into.
func parityWords(list []string, parity int) []string {
	out := make([]string, 0, len(list)/2)
	for i := parity; i < len(list); i += 2 {
		out = append(out, list[i])
	}
	return out
}

func randomElement(list []string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(list))))
	if err != nil {
		return "", fmt.Errorf("wordlist: choosing random word: %w", err)
	}
	return list[n.Int64()], nil
}
