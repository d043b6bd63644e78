package roomcode

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/roomchat/internal/dependencies/mocks"
	"github.com/mcoot/roomchat/internal/dependencies/random"
	"github.com/mcoot/roomchat/internal/model"
)

func TestGenerateUsesAlphabetAndLength(t *testing.T) {
	g := New(random.New())

	for i := 0; i < 200; i++ {
		code := g.Generate(func(model.RoomCode) bool { return false })
		assert.Len(t, string(code), Length)
		for _, r := range string(code) {
			assert.True(t, strings.ContainsRune(Alphabet, r), "unexpected character %q in %s", r, code)
		}
	}
}

func TestGenerateRedrawsOnCollision(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueString("TAKEN1", "TAKEN2", "FREE01")
	g := New(rnd)

	live := map[model.RoomCode]bool{"TAKEN1": true, "TAKEN2": true}
	code := g.Generate(func(c model.RoomCode) bool { return live[c] })

	assert.Equal(t, model.RoomCode("FREE01"), code)
	assert.Equal(t, 3, rnd.Calls())
}

func TestGenerateSkipsMalformedDraws(t *testing.T) {
	rnd := mocks.NewMockRandom()
	rnd.QueueString("", "ABC", "ABC123")
	g := New(rnd)

	code := g.Generate(func(model.RoomCode) bool { return false })
	assert.Equal(t, model.RoomCode("ABC123"), code)
}
