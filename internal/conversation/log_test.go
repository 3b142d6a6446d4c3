package conversation

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/webforge/pkg/types"
)

func TestLog_AppendAssignsIDAndTimestamp(t *testing.T) {
	l := NewLog()

	turn, err := l.Append(types.ConversationTurn{Role: types.RoleUser, Content: "hi"})
	require.NoError(t, err)

	assert.NotEmpty(t, turn.ID)
	assert.False(t, turn.Timestamp.IsZero())
	assert.Equal(t, 1, l.Len())
}

func TestLog_PreservesOrder(t *testing.T) {
	l := NewLog()
	for i := 0; i < 5; i++ {
		_, err := l.Append(types.ConversationTurn{Role: types.RoleUser, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
	}

	all := l.All()
	require.Len(t, all, 5)
	for i, turn := range all {
		assert.Equal(t, fmt.Sprintf("m%d", i), turn.Content)
	}

	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, "m4", last.Content)
}

func TestLog_RejectsDuplicateID(t *testing.T) {
	l := NewLog()
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := l.Append(types.ConversationTurn{ID: "welcome", Role: types.RoleAssistant, Timestamp: ts})
	require.NoError(t, err)

	_, err = l.Append(types.ConversationTurn{ID: "welcome", Role: types.RoleUser})
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, l.Len())
}

func TestLog_AllIsACopy(t *testing.T) {
	l := NewLog()
	_, err := l.Append(types.ConversationTurn{Content: "original"})
	require.NoError(t, err)

	snapshot := l.All()
	snapshot[0].Content = "mutated"

	assert.Equal(t, "original", l.All()[0].Content)
}

func TestLog_LastEmpty(t *testing.T) {
	_, ok := NewLog().Last()
	assert.False(t, ok)
}

func TestLog_ConcurrentAppend(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Append(types.ConversationTurn{Role: types.RoleUser})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, l.Len())
}
