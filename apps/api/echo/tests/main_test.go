package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/trezcool/censo/apps/api/echo"
	"github.com/trezcool/censo/core"
	"github.com/trezcool/censo/core/census"
	"github.com/trezcool/censo/core/session"
	"github.com/trezcool/censo/core/settings"
	emailsvc "github.com/trezcool/censo/services/email"
	inmemdb "github.com/trezcool/censo/storage/database/inmem"
	"github.com/trezcool/censo/tests"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

var (
	escolaA = testutil.EscolaA
	escolaB = testutil.EscolaB
	escolaC = testutil.EscolaC

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
	errNotAuthed    = httpErr{Error: "administrador não autenticado"}

	credsOnce sync.Once
	creds     session.Credentials
)

type testEnv struct {
	srv    *echoapi.Server
	deps   *echoapi.Deps
	kv     *inmemdb.DB
	mailer *emailsvc.ConsoleServiceMock
}

func newTestConfig() *core.Config {
	return &core.Config{
		TestMode:        true,
		AppName:         "Censo Escolar",
		SecretKey:       "test-secret",
		FrontendBaseURL: "http://localhost:5173",
		Server: core.ServerConfig{
			JWTExpirationDelta:        time.Hour,
			JWTRefreshExpirationDelta: 24 * time.Hour,
		},
		Admin: core.AdminConfig{Username: adminUsername, Password: adminPassword},
		Census: core.CensusConfig{
			PollInterval: 10 * time.Millisecond,
			DraftTTL:     time.Hour,
			Timezone:     "America/Sao_Paulo",
		},
	}
}

func setup(t *testing.T) *testEnv {
	ctx := context.Background()
	conf := newTestConfig()

	credsOnce.Do(func() {
		var err error
		creds, err = session.NewCredentials(conf.Admin)
		require.NoError(t, err)
	})

	reg := testutil.NewRegistry(t)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	census.InitValidators(validate, translator)
	settings.InitValidators(validate, translator)

	logger := core.NewNopLogger()
	kv := inmemdb.Open()
	mailer := emailsvc.NewConsoleServiceMock(conf)
	store := census.NewStore(kv, logger, 0)

	deps := &echoapi.Deps{
		Conf:           conf,
		Logger:         logger,
		CensusSvc:      census.NewService(conf, reg, store, mailer, logger),
		SettingsSvc:    settings.NewService(kv, validate, logger),
		Session:        session.NewGuard(ctx, creds, kv, logger),
		Validate:       validate,
		Translator:     translator,
		DisableReqLogs: true,
	}
	return &testEnv{
		srv:    echoapi.NewServer("", deps),
		deps:   deps,
		kv:     kv,
		mailer: mailer,
	}
}

// adminToken opens the admin session and returns a valid token.
func (env *testEnv) adminToken(t *testing.T) string {
	require.NoError(t, env.deps.Session.Login(context.Background(), adminUsername, adminPassword))
	token, err := env.srv.GenerateToken(env.srv.AdminClaims(adminUsername))
	require.NoError(t, err)
	return token
}

func (env *testEnv) do(method, path, token string, body []byte) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(method, path, token, body)
	env.srv.ServeHTTP(rec, req)
	return rec
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func unmarshal(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("json.Unmarshal(%s) failed: %v", rec.Body.String(), err)
	}
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

// checkCodeAndData only compares the body when tt.wantData is set.
func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func runHTTPTests(t *testing.T, env *testEnv, tests []httpTest) {
	for _, tt := range tests {
		if tt.method == "" {
			tt.method = http.MethodGet
		}
		if tt.wantCode == 0 {
			tt.wantCode = http.StatusOK
		}

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			env.srv.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func TestHome(t *testing.T) {
	env := setup(t)
	req, rec := newRequest(http.MethodGet, "/")
	env.srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bem-vindo à API do Censo Escolar!", rec.Body.String())
}
