package tabata

import (
	"math/rand/v2"
	"sync"
)

// DefaultExercises is the bodyweight and kettlebell rotation
var DefaultExercises = []string{
	"Push-Ups", "Sit-Ups", "V-Ups", "Squats", "Front Lunges",
	"Back Lunges", "Star Jumps", "Burpees", "Plank",
	"KB Swings", "KB Goblet Squats",
	"KB Deadlifts", "KB Cleans (Alternating)",
	"KB Snatches (Alternating)", "KB Farmer's Carry",
	"KB Overhead Press (Alternating)", "Mountain Climbers",
	"Jump Squats", "Bicycle Crunches",
}

// ExerciseSource supplies the label for each Work phase
type ExerciseSource interface {
	NextLabel() string
}

// RandomExercises draws uniformly from a list.
// A nil Rand uses the global source; set one for reproducible sessions.
type RandomExercises struct {
	mu        sync.Mutex
	exercises []string
	rand      *rand.Rand
}

// NewRandomExercises returns a source over exercises, falling back to DefaultExercises when empty
func NewRandomExercises(exercises []string, r *rand.Rand) *RandomExercises {
	if len(exercises) == 0 {
		exercises = DefaultExercises
	}
	return &RandomExercises{exercises: exercises, rand: r}
}

// NewSeededExercises returns a reproducible random source
func NewSeededExercises(exercises []string, seed uint64) *RandomExercises {
	return NewRandomExercises(exercises, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

func (s *RandomExercises) NextLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rand == nil {
		return s.exercises[rand.IntN(len(s.exercises))]
	}
	return s.exercises[s.rand.IntN(len(s.exercises))]
}

// CyclicExercises walks a list in order and wraps around
type CyclicExercises struct {
	mu        sync.Mutex
	exercises []string
	next      int
}

func NewCyclicExercises(exercises []string) *CyclicExercises {
	if len(exercises) == 0 {
		exercises = DefaultExercises
	}
	return &CyclicExercises{exercises: exercises}
}

func (s *CyclicExercises) NextLabel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	label := s.exercises[s.next]
	s.next = (s.next + 1) % len(s.exercises)
	return label
}

// FixedExercise always returns the same label
type FixedExercise string

func (f FixedExercise) NextLabel() string {
	return string(f)
}
