package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivavenkatesh/webforge/internal/accounts"
	"github.com/shivavenkatesh/webforge/internal/assistant"
	"github.com/shivavenkatesh/webforge/internal/autosave/autosavetest"
	"github.com/shivavenkatesh/webforge/internal/credits"
	"github.com/shivavenkatesh/webforge/internal/editor"
	"github.com/shivavenkatesh/webforge/internal/projects"
	"github.com/shivavenkatesh/webforge/internal/ratelimit"
	"github.com/shivavenkatesh/webforge/internal/store/sqlite"
	"github.com/shivavenkatesh/webforge/internal/support"
	"github.com/shivavenkatesh/webforge/pkg/types"
)

type testEnv struct {
	handler http.Handler
	store   *sqlite.Store
	clock   *autosavetest.ManualClock
	svc     Services
}

func newTestEnv(t *testing.T, withLimiter bool, opts ...func(*Services)) *testEnv {
	t.Helper()
	s, err := sqlite.New(sqlite.Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	logger := zerolog.Nop()
	clock := autosavetest.NewManualClock()
	cs := credits.New(s, 1, logger)
	acc := accounts.New(s, s, cs, accounts.DefaultRewards(), logger)
	ps := projects.New(s, 16, acc, logger)

	svc := Services{
		Accounts: acc,
		Credits:  cs,
		Projects: ps,
		Editor:   editor.NewManager(ps, cs, assistant.Default(), editor.Config{Clock: clock}, logger),
		Support:  support.New(s, logger),
		Throttle: ratelimit.NewThrottle(600, 100, time.Minute),
	}
	if withLimiter {
		svc.Limiter = ratelimit.New(s, ratelimit.Config{Window: time.Minute, MaxRequests: 3})
	}
	for _, opt := range opts {
		opt(&svc)
	}

	srv := New(svc, Config{SiteURL: "https://webforge.dev"}, logger)
	return &testEnv{handler: srv.Handler(), store: s, clock: clock, svc: svc}
}

func (e *testEnv) do(t *testing.T, method, path, userID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set(UserHeader, userID)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUp(t *testing.T, email, ref string) *types.User {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/signup", "", types.SignUpRequest{Email: email, Name: "Tester", ReferralCode: ref})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u types.User
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&u))
	return &u
}

func (e *testEnv) createProject(t *testing.T, userID string) *types.Project {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/projects", userID, types.CreateProjectRequest{Name: "Demo", Type: types.TypeReactVite})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var p types.Project
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&p))
	return &p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[map[string]string](t, rec)["status"])
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t, false)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/projects", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/projects", "ghost", nil).Code)
}

func TestSignUpAndProfile(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "me@example.com", "")
	assert.Equal(t, 100, u.Credits)

	rec := env.do(t, http.MethodGet, "/me", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode[map[string]any](t, rec)
	assert.Equal(t, "https://webforge.dev/auth/signup?ref="+u.ReferralCode, me["referral_link"])

	rec = env.do(t, http.MethodPost, "/auth/signup", "", types.SignUpRequest{Email: "me@example.com", Name: "Again"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/auth/signup", "", types.SignUpRequest{Email: "bad", Name: "Bad"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	name := "Renamed"
	rec = env.do(t, http.MethodPatch, "/me", u.ID, types.UpdateProfileRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[map[string]any](t, rec)["name"])
}

func TestReferralFlow(t *testing.T) {
	env := newTestEnv(t, false)
	referrer := env.signUp(t, "ref@example.com", "")
	referee := env.signUp(t, "new@example.com", referrer.ReferralCode)
	assert.Equal(t, 300, referee.Credits)

	env.createProject(t, referee.ID)

	rec := env.do(t, http.MethodGet, "/referrals/stats", referrer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[types.ReferralStats](t, rec)
	assert.Equal(t, 1, stats.TotalReferrals)
	assert.Equal(t, 1, stats.SuccessfulReferrals)
	assert.Equal(t, 100, stats.TotalRewards)

	rec = env.do(t, http.MethodGet, "/credits", referrer.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, decode[types.CreditsResponse](t, rec).Balance)
}

func TestProjectsCRUD(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "p@example.com", "")
	other := env.signUp(t, "o@example.com", "")
	p := env.createProject(t, u.ID)

	rec := env.do(t, http.MethodGet, "/projects", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]types.Project](t, rec)["projects"], 1)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/projects/"+p.ID, other.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/projects/missing", u.ID, nil).Code)

	rec = env.do(t, http.MethodGet, "/projects/"+p.ID+"/files", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "src", decode[map[string][]types.FileNode](t, rec)["files"][0].Name)

	rec = env.do(t, http.MethodPost, "/projects", u.ID, types.CreateProjectRequest{Name: "App", Type: types.TypeReactNative})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/projects/catalog", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "landing-page")

	name := "Renamed"
	rec = env.do(t, http.MethodPatch, "/projects/"+p.ID, u.ID, types.UpdateProjectRequest{Name: &name})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Renamed", decode[types.Project](t, rec).Name)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/projects/"+p.ID, u.ID, nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/projects/"+p.ID, u.ID, nil).Code)
}

func TestEditorFlow(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "e@example.com", "")
	p := env.createProject(t, u.ID)
	base := "/editor/" + p.ID

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, base, u.ID, nil).Code)

	rec := env.do(t, http.MethodPost, base, u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	snap := decode[types.EditorSnapshot](t, rec)
	require.Len(t, snap.Turns, 1)
	assert.Contains(t, snap.Turns[0].Content, "Welcome to Demo!")

	rec = env.do(t, http.MethodPost, base+"/messages", u.ID, map[string]string{"message": "   "})
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPost, base+"/messages", u.ID, map[string]string{"message": "please add a contact form"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	ex := decode[editor.Exchange](t, rec)
	assert.Equal(t, "form", ex.Rule)
	assert.Equal(t, 99, ex.Remaining)

	rec = env.do(t, http.MethodGet, base, u.ID, nil)
	snap = decode[types.EditorSnapshot](t, rec)
	assert.Len(t, snap.Turns, 3)
	assert.True(t, snap.Pending)

	env.clock.Advance(time.Second)
	rec = env.do(t, http.MethodGet, "/projects/"+p.ID, u.ID, nil)
	assert.Contains(t, decode[types.Project](t, rec).Code, "Send Message")

	rec = env.do(t, http.MethodPut, base+"/code", u.ID, map[string]string{"code": "export default () => null"})
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodPost, base+"/save", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = env.do(t, http.MethodGet, "/projects/"+p.ID, u.ID, nil)
	assert.Equal(t, "export default () => null", decode[types.Project](t, rec).Code)

	rec = env.do(t, http.MethodDelete, base, u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, base, u.ID, nil).Code)
}

func TestEditorOutOfCredits(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "broke@example.com", "")
	p := env.createProject(t, u.ID)

	_, err := env.svc.Credits.Debit(context.Background(), u.ID, 100, "", types.UsageOther, "drain")
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/editor/"+p.ID, u.ID, nil).Code)
	rec := env.do(t, http.MethodPost, "/editor/"+p.ID+"/messages", u.ID, map[string]string{"message": "add button"})
	assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	assert.Equal(t, "insufficient credits", decode[map[string]string](t, rec)["error"])
}

func TestTickets(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "t@example.com", "")

	rec := env.do(t, http.MethodPost, "/tickets", u.ID, types.CreateTicketRequest{Subject: "Help", Message: "Editor froze"})
	require.Equal(t, http.StatusCreated, rec.Code)
	ticket := decode[types.SupportTicket](t, rec)
	assert.Equal(t, types.PriorityMedium, ticket.Priority)

	rec = env.do(t, http.MethodPost, "/tickets", u.ID, types.CreateTicketRequest{Subject: "", Message: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPatch, "/tickets/"+ticket.ID, u.ID, map[string]string{"status": "in_progress"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, types.TicketInProgress, decode[types.SupportTicket](t, rec).Status)

	rec = env.do(t, http.MethodGet, "/tickets", u.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string][]types.SupportTicket](t, rec)["tickets"], 1)
}

func TestRateLimitMiddleware(t *testing.T) {
	env := newTestEnv(t, true)

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/projects", "", nil).Code)
	}
	rec := env.do(t, http.MethodGet, "/projects", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code, "health is exempt")
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(zerolog.Nop(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(t, http.MethodOptions, "/projects", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestEditorThrottleSkipsRefusedMessages(t *testing.T) {
	env := newTestEnv(t, false, func(svc *Services) {
		svc.Throttle = ratelimit.NewThrottle(1, 1, time.Minute)
	})
	u := env.signUp(t, "slow@example.com", "")
	p := env.createProject(t, u.ID)
	base := "/editor/" + p.ID

	_, err := env.svc.Credits.Debit(context.Background(), u.ID, 100, "", types.UsageOther, "drain")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, base, u.ID, nil).Code)

	for i := 0; i < 3; i++ {
		rec := env.do(t, http.MethodPost, base+"/messages", u.ID, map[string]string{"message": "add button"})
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	}

	_, err = env.svc.Credits.Grant(context.Background(), u.ID, 5, types.UsageOther, "top up")
	require.NoError(t, err)

	rec := env.do(t, http.MethodPost, base+"/messages", u.ID, map[string]string{"message": "add button"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodPost, base+"/messages", u.ID, map[string]string{"message": "add button"})
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestEditorMessageAfterClose(t *testing.T) {
	env := newTestEnv(t, false)
	u := env.signUp(t, "gone@example.com", "")
	p := env.createProject(t, u.ID)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/editor/"+p.ID, u.ID, nil).Code)
	sess, err := env.svc.Editor.Get(u.ID, p.ID)
	require.NoError(t, err)
	sess.Close()

	rec := env.do(t, http.MethodPost, "/editor/"+p.ID+"/messages", u.ID, map[string]string{"message": "add button"})
	assert.Equal(t, http.StatusGone, rec.Code)

	rec = env.do(t, http.MethodGet, "/credits", u.ID, nil)
	assert.Equal(t, 100, decode[types.CreditsResponse](t, rec).Balance, "refused message is not charged")
}
