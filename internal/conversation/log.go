// Package conversation holds the append-only chat log of an editor session.
package conversation

import (
	"errors"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

// ErrDuplicateID is returned when a turn id is already in the log
var ErrDuplicateID = errors.New("duplicate turn id")

// Log is an ordered, append-only sequence of turns. Safe for concurrent use.
type Log struct {
	mu    sync.RWMutex
	turns []types.ConversationTurn
	ids   map[string]struct{}
	now   func() time.Time
}

// NewLog creates an empty log
func NewLog() *Log {
	return &Log{
		ids: make(map[string]struct{}),
		now: time.Now,
	}
}

// Append adds turn at the end. A missing id is filled with a ULID and a zero
// timestamp with the current time. The stored turn is returned.
func (l *Log) Append(turn types.ConversationTurn) (types.ConversationTurn, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if turn.Timestamp.IsZero() {
		turn.Timestamp = l.now()
	}
	if turn.ID == "" {
		turn.ID = ulid.Make().String()
	}
	if _, ok := l.ids[turn.ID]; ok {
		return types.ConversationTurn{}, ErrDuplicateID
	}

	l.ids[turn.ID] = struct{}{}
	l.turns = append(l.turns, turn)
	return turn, nil
}

// All returns a copy of the turns in insertion order
func (l *Log) All() []types.ConversationTurn {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]types.ConversationTurn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Len returns the number of turns
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// Last returns the most recent turn
func (l *Log) Last() (types.ConversationTurn, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.turns) == 0 {
		return types.ConversationTurn{}, false
	}
	return l.turns[len(l.turns)-1], true
}
