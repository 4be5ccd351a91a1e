// Package table holds the per-token topic assignments. Each token carries
// a topic id and a table indicator telling whether the occurrence is
// counted as a Pitman-Yor table (seating) event.
package table

import "errors"

var ErrTopicRange = errors.New("table: topic id out of range")

// MaxTopic is the largest topic id a Token can hold.
const MaxTopic = uint32(tableBit - 1)

const tableBit Token = 1 << 31

// Token is the packed assignment of one word occurrence.
type Token uint32

// NewToken returns an assignment to topic t with the indicator cleared.
func NewToken(t uint32) Token {
	if t > MaxTopic {
		panic(ErrTopicRange)
	}
	return Token(t)
}

// get the topic id
func (z Token) Topic() uint32 {
	return uint32(z &^ tableBit)
}

// is the occurrence a table event
func (z Token) TableFlag() bool {
	return z&tableBit != 0
}

// set the topic id, the indicator is kept
func (z *Token) SetTopic(t uint32) {
	if t > MaxTopic {
		panic(ErrTopicRange)
	}
	*z = (*z & tableBit) | Token(t)
}

func (z *Token) SetTableFlag() {
	*z |= tableBit
}

func (z *Token) ClearTableFlag() {
	*z &^= tableBit
}

// Assignments is the corpus-wide token sequence, indexed like
// corpus.Corpus.Words. A slot is only ever written by the worker owning
// the document it belongs to.
type Assignments []Token

// NewAssignments allocates n tokens assigned to topic 0.
func NewAssignments(n uint32) Assignments {
	return make(Assignments, n)
}

// Topics returns a copy of the topic ids.
func (z Assignments) Topics() []uint32 {
	topics := make([]uint32, len(z))
	for i, tok := range z {
		topics[i] = tok.Topic()
	}
	return topics
}
