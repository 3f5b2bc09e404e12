package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New()
	m.MessageSent()
	m.MessageSent()
	m.AuthFailed("auth/wrong-password")
	m.ObserveRequest("SignIn", "OK")

	require.Equal(t, 2.0, testutil.ToFloat64(m.messagesSent))
	require.Equal(t, 1.0, testutil.ToFloat64(m.authFailures.WithLabelValues("auth/wrong-password")))

	done := m.SubscriptionOpened("chats")
	require.Equal(t, 1.0, testutil.ToFloat64(m.subscriptions.WithLabelValues("chats")))
	done()
	require.Equal(t, 0.0, testutil.ToFloat64(m.subscriptions.WithLabelValues("chats")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.MessageSent()
	m.AuthFailed("x")
	m.SubscriptionOpened("users")()
	m.SetUsersOnline(3)
}

func TestHandler(t *testing.T) {
	m := New()
	m.SetUsersOnline(3)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	require.True(t, strings.Contains(string(body), "parley_users_online 3"))
}
