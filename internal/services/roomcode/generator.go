package roomcode

import (
	"github.com/mcoot/roomchat/internal/dependencies/random"
	"github.com/mcoot/roomchat/internal/model"
)

const (
	// Length is the number of characters in a room code
	Length = 6
	// Alphabet is the set of characters room codes are drawn from
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generator produces room codes that are free at the instant they are returned
type Generator struct {
	random random.Random
}

// New creates a Generator backed by the given random source
func New(rnd random.Random) *Generator {
	return &Generator{random: rnd}
}

// Generate draws codes until taken reports one as unused. The caller must hold
// whatever lock makes taken consistent with the subsequent registration.
func (g *Generator) Generate(taken func(model.RoomCode) bool) model.RoomCode {
	for {
		code := model.RoomCode(g.random.String(Length, Alphabet))
		if len(code) == Length && !taken(code) {
			return code
		}
	}
}
