package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenTopicAndFlag(t *testing.T) {
	z := NewToken(uint32(7))
	assert.Equal(t, uint32(7), z.Topic())
	assert.False(t, z.TableFlag())

	z.SetTableFlag()
	assert.True(t, z.TableFlag())
	assert.Equal(t, uint32(7), z.Topic())

	// changing the topic keeps the indicator
	z.SetTopic(uint32(12))
	assert.Equal(t, uint32(12), z.Topic())
	assert.True(t, z.TableFlag())

	z.ClearTableFlag()
	assert.False(t, z.TableFlag())
	assert.Equal(t, uint32(12), z.Topic())

	z.SetTopic(MaxTopic)
	assert.Equal(t, MaxTopic, z.Topic())
}

func TestTokenTopicRange(t *testing.T) {
	assert.PanicsWithValue(t, ErrTopicRange, func() { NewToken(MaxTopic + 1) })
	z := NewToken(0)
	assert.PanicsWithValue(t, ErrTopicRange, func() { z.SetTopic(MaxTopic + 1) })
}

func TestAssignmentsTopics(t *testing.T) {
	z := NewAssignments(uint32(3))
	z[1].SetTopic(4)
	z[2].SetTopic(2)
	z[2].SetTableFlag()
	assert.Equal(t, []uint32{0, 4, 2}, z.Topics())
}
