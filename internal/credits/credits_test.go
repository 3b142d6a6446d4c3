package credits

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/webforge/internal/store"
	"github.com/shivavenkatesh/webforge/internal/store/sqlite"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

func TestService_DebitTurn(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 2)

	balance, err := svc.DebitTurn(ctx, user.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	balance, err = svc.DebitTurn(ctx, user.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	_, err = svc.DebitTurn(ctx, user.ID, "p1")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	history, err := svc.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, types.UsageAIGeneration, history[0].Type)
	assert.Equal(t, -1, history[0].Amount)
	assert.Equal(t, "p1", history[0].ProjectID)
}

func TestService_RefundTurn(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 1)

	balance, err := svc.DebitTurn(ctx, user.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, balance)

	balance, err = svc.RefundTurn(ctx, user.ID, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, balance)

	history, err := svc.History(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 1, history[0].Amount)
	assert.Equal(t, "p1", history[0].ProjectID)
	assert.Equal(t, -1, history[1].Amount)
}

func TestService_DebitRejectsOverdraft(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 3)

	_, err := svc.Debit(ctx, user.ID, 5, "", types.UsageProjectExport, "export")
	assert.ErrorIs(t, err, ErrInsufficientCredits)

	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, balance)
}

func TestService_InvalidAmounts(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 3)

	_, err := svc.Debit(ctx, user.ID, 0, "", types.UsageOther, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.Grant(ctx, user.ID, -4, types.UsageOther, "")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestService_Grant(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 0)

	balance, err := svc.Grant(ctx, user.ID, 100, types.UsageReferralBonus, "referral")
	require.NoError(t, err)
	assert.Equal(t, 100, balance)

	summary, err := svc.Summary(ctx, user.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, 100, summary.Balance)
	require.Len(t, summary.Usage, 1)
	assert.Equal(t, types.UsageReferralBonus, summary.Usage[0].Type)
}

func TestService_UnknownUser(t *testing.T) {
	svc, _ := createTestService(t, 1)

	_, err := svc.DebitTurn(context.Background(), "nobody", "")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestService_TurnCost(t *testing.T) {
	svc, s := createTestService(t, 0)
	assert.Equal(t, DefaultTurnCost, svc.TurnCost())

	svc = New(s, 5, zerolog.Nop())
	user := createTestUser(t, s, 4)
	_, err := svc.DebitTurn(context.Background(), user.ID, "")
	assert.ErrorIs(t, err, ErrInsufficientCredits)
}

func TestService_ConcurrentTurnsNeverOverdraw(t *testing.T) {
	ctx := context.Background()
	svc, s := createTestService(t, 1)
	user := createTestUser(t, s, 3)

	var ok atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.DebitTurn(ctx, user.ID, ""); err == nil {
				ok.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(3), ok.Load())
	balance, err := svc.Balance(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, balance)
}

func createTestService(t *testing.T, cost int) (*Service, *sqlite.Store) {
	t.Helper()
	s, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s, cost, zerolog.Nop()), s
}

func createTestUser(t *testing.T, s *sqlite.Store, credits int) *types.User {
	t.Helper()
	u := &types.User{Email: "dev@example.com", Name: "Dev", Credits: credits, ReferralCode: "ABCD1234"}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}
