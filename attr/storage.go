// Package attr reads and writes per-corner attribute channels.
//
// A vector channel holds four floats per corner (RGBA). A coordinate channel
// holds two floats per corner, addressed as lanes A and B. Buffers are flat
// and follow mesh corner order.
package attr

import (
	"fmt"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"github.com/gogpu/vpaint"
)

// ErrChannelNotFound is returned when a channel does not exist in storage.
var ErrChannelNotFound = errors.New("attr: channel not found")

// Arity of each channel kind.
const (
	VectorArity = 4
	CoordArity  = 2
)

// VertexColor returns the name of vector channel n.
func VertexColor(n int) string { return fmt.Sprintf("VertexColor%d", n) }

// UVSet returns the name of coordinate channel n.
func UVSet(n int) string { return fmt.Sprintf("UVSet%d", n) }

// Lane selects one float of a coordinate channel.
type Lane int

const (
	LaneA Lane = iota
	LaneB
)

func (l Lane) String() string {
	if l == LaneB {
		return "B"
	}
	return "A"
}

// Storage is the host's attribute store.
//
// Reads return buffers the caller owns. Each write replaces the whole channel.
type Storage interface {
	CornerCount() int
	ReadVector(name string) ([]float64, error)
	WriteVector(name string, buf []float64) error
	ReadCoord(name string) ([]float64, error)
	WriteCoord(name string, buf []float64) error
}

// ReadLane returns one lane of a coordinate channel.
func ReadLane(s Storage, name string, lane Lane) ([]float64, error) {
	buf, err := s.ReadCoord(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(buf)/CoordArity)
	for i := range out {
		out[i] = buf[i*CoordArity+int(lane)]
	}
	return out, nil
}

// WriteLane replaces one lane of a coordinate channel, leaving the other intact.
func WriteLane(s Storage, name string, lane Lane, values []float64) error {
	buf, err := s.ReadCoord(name)
	if err != nil {
		return err
	}
	if len(values)*CoordArity != len(buf) {
		return errors.Wrapf(vpaint.ErrLengthMismatch, "lane %s of %s: %d values for %d corners",
			lane, name, len(values), len(buf)/CoordArity)
	}
	for i, v := range values {
		buf[i*CoordArity+int(lane)] = v
	}
	return s.WriteCoord(name, buf)
}

// MemoryStorage keeps channels in memory. It is safe for concurrent use.
type MemoryStorage struct {
	mu      sync.RWMutex
	corners int
	vectors map[string][]float64
	coords  map[string][]float64
}

// NewMemoryStorage returns an empty store for cornerCount corners.
func NewMemoryStorage(cornerCount int) *MemoryStorage {
	return &MemoryStorage{
		corners: cornerCount,
		vectors: make(map[string][]float64),
		coords:  make(map[string][]float64),
	}
}

// CornerCount implements Storage.
func (s *MemoryStorage) CornerCount() int { return s.corners }

// AddVector creates a vector channel initialized to fill. An existing channel
// is left unchanged.
func (s *MemoryStorage) AddVector(name string, fill vpaint.RGBA) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.vectors[name]; ok {
		return
	}
	buf := make([]float64, s.corners*VectorArity)
	for i := range s.corners {
		buf[i*4], buf[i*4+1], buf[i*4+2], buf[i*4+3] = fill.R, fill.G, fill.B, fill.A
	}
	s.vectors[name] = buf
}

// AddCoord creates a coordinate channel with both lanes set to a and b.
// An existing channel is left unchanged.
func (s *MemoryStorage) AddCoord(name string, a, b float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.coords[name]; ok {
		return
	}
	buf := make([]float64, s.corners*CoordArity)
	for i := range s.corners {
		buf[i*2], buf[i*2+1] = a, b
	}
	s.coords[name] = buf
}

// HasVector reports whether a vector channel exists.
func (s *MemoryStorage) HasVector(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.vectors[name]
	return ok
}

// HasCoord reports whether a coordinate channel exists.
func (s *MemoryStorage) HasCoord(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.coords[name]
	return ok
}

// VectorChannels returns the sorted vector channel names.
func (s *MemoryStorage) VectorChannels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.vectors)
}

// CoordChannels returns the sorted coordinate channel names.
func (s *MemoryStorage) CoordChannels() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.coords)
}

// ReadVector implements Storage.
func (s *MemoryStorage) ReadVector(name string) ([]float64, error) {
	return s.read(s.vectors, name)
}

// WriteVector implements Storage.
func (s *MemoryStorage) WriteVector(name string, buf []float64) error {
	return s.write(s.vectors, name, buf, VectorArity)
}

// ReadCoord implements Storage.
func (s *MemoryStorage) ReadCoord(name string) ([]float64, error) {
	return s.read(s.coords, name)
}

// WriteCoord implements Storage.
func (s *MemoryStorage) WriteCoord(name string, buf []float64) error {
	return s.write(s.coords, name, buf, CoordArity)
}

func (s *MemoryStorage) read(channels map[string][]float64, name string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	buf, ok := channels[name]
	if !ok {
		return nil, errors.Wrap(ErrChannelNotFound, name)
	}
	return append([]float64(nil), buf...), nil
}

func (s *MemoryStorage) write(channels map[string][]float64, name string, buf []float64, arity int) error {
	if len(buf) != s.corners*arity {
		return errors.Wrapf(vpaint.ErrLengthMismatch, "%s: %d floats for %d corners of arity %d",
			name, len(buf), s.corners, arity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	dst, ok := channels[name]
	if !ok {
		return errors.Wrap(ErrChannelNotFound, name)
	}
	copy(dst, buf)
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
