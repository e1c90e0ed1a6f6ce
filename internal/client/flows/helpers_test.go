package flows

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openlodge/lodge/internal/client/session"
	"github.com/openlodge/lodge/internal/client/store/drivers/sqlite"
	"github.com/openlodge/lodge/internal/client/ui"
	"github.com/openlodge/lodge/pkg/cryptox"
	"github.com/openlodge/lodge/pkg/lodgeapi"
	"github.com/stretchr/testify/require"
)

type nopUI struct{}

func (nopUI) ResetToRoot()                 {}
func (nopUI) Notify(ui.NotifyKind, string) {}

// flowEnv wires a real session manager over an in-memory store to a fake
// backend, counting every request that actually leaves the client.
type flowEnv struct {
	api      *lodgeapi.Client
	sessions *session.Manager
	requests atomic.Int64
	now      time.Time
}

func newFlowEnv(t *testing.T, handler http.HandlerFunc) *flowEnv {
	t.Helper()

	t.Setenv("LODGE_MASTER_KEY", "flows-test-master-key")
	cryptox.ResetMasterKeyForTesting()
	t.Cleanup(cryptox.ResetMasterKeyForTesting)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	// The session manager checks expiry against the wall clock, so the
	// flow clock is pinned to a real instant rather than a fixed date.
	env := &flowEnv{
		now: time.Now().UTC().Truncate(time.Second),
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.requests.Add(1)
		if handler != nil {
			handler(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	env.api = lodgeapi.NewClient(srv.URL)
	env.sessions = session.NewManager(st, nopUI{}, nopUI{}, logger)
	return env
}

func (e *flowEnv) passwordFlow() *PasswordFlow {
	return &PasswordFlow{
		API:      e.api,
		Sessions: e.sessions,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return e.now },
	}
}

func (e *flowEnv) otpFlow() *OTPFlow {
	return &OTPFlow{
		API:      e.api,
		Sessions: e.sessions,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return e.now },
	}
}

func jsonHandler(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
