package geometry

import (
	"github.com/nitromap/nitromap/internal/domain"
)

// Store holds one Layer per level.
type Store struct {
	layers map[domain.Level]*Layer
}

// NewStore returns a Store over layers, keyed by their level.
func NewStore(layers ...*Layer) *Store {
	s := &Store{layers: make(map[domain.Level]*Layer, len(layers))}
	for _, l := range layers {
		s.layers[l.Level] = l
	}
	return s
}

// Layer returns the layer for level.
func (s *Store) Layer(level domain.Level) (*Layer, bool) {
	l, ok := s.layers[level]
	return l, ok
}

// Len returns the number of layers.
func (s *Store) Len() int {
	return len(s.layers)
}
