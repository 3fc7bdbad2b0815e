package questions

import (
	"fmt"
	"math/rand"
)

// StaticBank is the built-in question source. Level 5 holds the deepest
// questions; games work their way down to the small talk of level 1. The
// engine treats the bank as a pure oracle: draws never mutate it.
type StaticBank struct {
	byLevel map[int][]string
}

func NewStaticBank() *StaticBank {
	return &StaticBank{byLevel: map[int][]string{
		5: {
			"What is something you have never forgiven yourself for?",
			"When did you last cry in front of another person, and why?",
			"What part of your life would you be most afraid to let the people here see?",
			"What do you think your biggest regret will be when you are old?",
			"Which relationship in your life do you most wish you could repair?",
			"What truth about yourself took you the longest to accept?",
			"What is the loneliest you have ever felt?",
			"If you died tonight, what would you most regret not having told someone?",
		},
		4: {
			"What is the hardest decision you have ever had to make?",
			"What are you most insecure about?",
			"What do you owe an apology for that you have never given?",
			"When was the last time you felt truly proud of yourself?",
			"What family pattern are you trying hardest not to repeat?",
			"What is a belief you held strongly five years ago that you have abandoned?",
			"What compliment do you wish people gave you more often?",
			"What is something you pretend to understand but actually do not?",
		},
		3: {
			"What is your most embarrassing moment from school?",
			"What is the weirdest habit you have when nobody is watching?",
			"Who in this room would survive longest in a zombie apocalypse, and why?",
			"What is the worst date you have ever been on?",
			"What lie do you tell most often?",
			"What is the pettiest hill you are willing to die on?",
			"What fashion choice from your past do you most regret?",
			"What is the strangest thing you have ever eaten?",
		},
		2: {
			"What is your guilty-pleasure song?",
			"If you could instantly master one skill, what would it be?",
			"What is the best meal you have ever had?",
			"Which fictional character do you most identify with?",
			"What is your most useless talent?",
			"If you had to live in another country for a year, where would you go?",
			"What was your first screen name or email address?",
			"What is the last photo in your camera roll you would be willing to explain?",
		},
		1: {
			"Coffee or tea?",
			"What did you have for breakfast today?",
			"What is your favorite season?",
			"Cats or dogs?",
			"What was the last show you binge-watched?",
			"What is your go-to karaoke song?",
			"Beach holiday or mountain holiday?",
			"What is the best snack food ever made?",
		},
	}}
}

// DrawQuestion returns a uniformly random question for the level that is
// not in the exclude set.
func (b *StaticBank) DrawQuestion(level int, exclude map[string]bool) (string, error) {
	pool, ok := b.byLevel[level]
	if !ok {
		return "", fmt.Errorf("no questions for level %d", level)
	}
	candidates := make([]string, 0, len(pool))
	for _, q := range pool {
		if !exclude[q] {
			candidates = append(candidates, q)
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("question pool for level %d is exhausted", level)
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// DrawQuestionBatch returns up to count distinct questions for the level,
// skipping the exclude set. It draws fewer when the pool runs short.
func (b *StaticBank) DrawQuestionBatch(level int, count int, exclude map[string]bool) ([]string, error) {
	if count <= 0 {
		return nil, fmt.Errorf("batch count must be positive, got %d", count)
	}
	pool, ok := b.byLevel[level]
	if !ok {
		return nil, fmt.Errorf("no questions for level %d", level)
	}
	candidates := make([]string, 0, len(pool))
	for _, q := range pool {
		if !exclude[q] {
			candidates = append(candidates, q)
		}
	}
	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})
	if count < len(candidates) {
		candidates = candidates[:count]
	}
	return candidates, nil
}

// Levels reports which levels the bank can serve. Mostly useful for
// startup sanity checks.
func (b *StaticBank) Levels() []int {
	levels := make([]int, 0, len(b.byLevel))
	for level := range b.byLevel {
		levels = append(levels, level)
	}
	return levels
}
