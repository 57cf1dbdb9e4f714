package tests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/censo/core/census"
)

func Test_adminApi_live(t *testing.T) {
	env := setup(t)
	token := env.adminToken(t)

	ts := httptest.NewServer(env.srv)
	defer ts.Close()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/admin/live"

	t.Run("token required", func(t *testing.T) {
		_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.Error(t, err)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("events are pushed", func(t *testing.T) {
		conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+token, nil)
		require.NoError(t, err)
		defer conn.Close()

		body := marchallObj(t, census.NewSubmission{SchoolINEP: escolaB.INEP, SubmittedBy: "Ana"})
		resp, err := http.Post(ts.URL+"/v1/submissions", "application/json", strings.NewReader(string(body)))
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var e census.Event
		require.NoError(t, conn.ReadJSON(&e))
		assert.Equal(t, census.EventAppended, e.Kind)

		subs := env.deps.CensusSvc.Submissions(context.Background())
		require.Len(t, subs, 1)
		assert.Equal(t, subs[0].ID, e.SubmissionID)
	})
}
