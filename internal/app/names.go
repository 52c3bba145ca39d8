package app

import (
	"math/rand"
	"sync"
	"time"
)

var animals = []string{
	"Lion", "Tiger", "Elephant", "Giraffe", "Zebra", "Monkey", "Panda", "Koala",
	"Kangaroo", "Dolphin", "Whale", "Shark", "Eagle", "Owl", "Penguin", "Flamingo",
	"Butterfly", "Bee", "Ladybug", "Spider", "Cat", "Dog", "Rabbit", "Hamster",
	"Horse", "Cow", "Pig", "Sheep", "Goat", "Duck", "Swan", "Turkey",
	"Fox", "Wolf", "Bear", "Deer", "Squirrel", "Raccoon", "Hedgehog", "Turtle",
}

// NameGenerator produces display names for players who did not type one.
type NameGenerator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewNameGenerator() *NameGenerator {
	return NewNameGeneratorWithSeed(time.Now().UnixNano())
}

// NewNameGeneratorWithSeed is used by tests for a stable sequence.
func NewNameGeneratorWithSeed(seed int64) *NameGenerator {
	return &NameGenerator{rng: rand.New(rand.NewSource(seed))}
}

// Anonymous returns a name of the form "Anonymous <Animal>".
func (g *NameGenerator) Anonymous() string {
	g.mu.Lock()
	idx := g.rng.Intn(len(animals))
	g.mu.Unlock()
	return "Anonymous " + animals[idx]
}
