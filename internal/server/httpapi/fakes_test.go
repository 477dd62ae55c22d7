package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/incidentportal/internal/common"
	"github.com/dmitrijs2005/incidentportal/internal/logging"
	"github.com/dmitrijs2005/incidentportal/internal/server/auth"
	"github.com/dmitrijs2005/incidentportal/internal/server/config"
	"github.com/dmitrijs2005/incidentportal/internal/server/models"
	"github.com/dmitrijs2005/incidentportal/internal/server/ratelimit"
	"github.com/dmitrijs2005/incidentportal/internal/server/services"
	"github.com/dmitrijs2005/incidentportal/internal/server/validation"
)

const testSecret = "test-secret"

type fakeUsers struct {
	calls int

	register func(validation.RegisterInput) (*services.AuthResult, error)
	login    func(validation.LoginInput) (*services.AuthResult, error)
	profile  func(string) (*services.AuthResult, error)
}

func (f *fakeUsers) Register(ctx context.Context, in validation.RegisterInput) (*services.AuthResult, error) {
	f.calls++
	return f.register(in)
}

func (f *fakeUsers) Login(ctx context.Context, in validation.LoginInput) (*services.AuthResult, error) {
	f.calls++
	return f.login(in)
}

func (f *fakeUsers) Profile(ctx context.Context, id string) (*services.AuthResult, error) {
	f.calls++
	return f.profile(id)
}

// fakeIncidents records calls; any method without a stub fails the test.
type fakeIncidents struct {
	t     *testing.T
	calls int

	create func(validation.IncidentInput, *models.ImageUpload) (*models.Incident, error)
	list   func() ([]models.IncidentSummary, error)
	get    func(string) (*models.Incident, error)
	update func(string, validation.IncidentInput) (*models.Incident, error)
	delete func(string) error
}

func (f *fakeIncidents) Create(ctx context.Context, in validation.IncidentInput, img *models.ImageUpload) (*models.Incident, error) {
	f.calls++
	if f.create == nil {
		f.t.Fatal("unexpected Create")
	}
	return f.create(in, img)
}

func (f *fakeIncidents) List(ctx context.Context) ([]models.IncidentSummary, error) {
	f.calls++
	if f.list == nil {
		f.t.Fatal("unexpected List")
	}
	return f.list()
}

func (f *fakeIncidents) Get(ctx context.Context, id string) (*models.Incident, error) {
	f.calls++
	if f.get == nil {
		f.t.Fatal("unexpected Get")
	}
	return f.get(id)
}

func (f *fakeIncidents) Update(ctx context.Context, id string, in validation.IncidentInput) (*models.Incident, error) {
	f.calls++
	if f.update == nil {
		f.t.Fatal("unexpected Update")
	}
	return f.update(id, in)
}

func (f *fakeIncidents) Delete(ctx context.Context, id string) error {
	f.calls++
	if f.delete == nil {
		f.t.Fatal("unexpected Delete")
	}
	return f.delete(id)
}

type fakeImages struct {
	files map[string]string
}

func (f *fakeImages) Save(ctx context.Context, name, contentType string, r io.Reader, size int64) error {
	return nil
}

func (f *fakeImages) Delete(ctx context.Context, name string) error { return nil }

func (f *fakeImages) Serve(w http.ResponseWriter, r *http.Request, name string) error {
	body, ok := f.files[name]
	if !ok {
		return common.ErrorNotFound
	}
	w.Header().Set("Content-Type", "image/png")
	_, err := io.WriteString(w, body)
	return err
}

type testEnv struct {
	handler   http.Handler
	users     *fakeUsers
	incidents *fakeIncidents
	images    *fakeImages
	cfg       *config.Config
}

type envOption func(*config.Config, *Deps)

func withLimiter(max int) envOption {
	return func(_ *config.Config, d *Deps) {
		d.Limiter = ratelimit.NewLimiter(ratelimit.NewMemoryCounter(), max, time.Minute)
	}
}

func withMaxBody(n int64) envOption {
	return func(c *config.Config, _ *Deps) { c.MaxBodySize = n }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.SecretKey = testSecret

	env := &testEnv{
		users:     &fakeUsers{},
		incidents: &fakeIncidents{t: t},
		images:    &fakeImages{files: map[string]string{}},
		cfg:       cfg,
	}

	d := Deps{
		Config:    cfg,
		Log:       logging.Nop(),
		Users:     env.users,
		Incidents: env.incidents,
		Images:    env.images,
	}
	for _, o := range opts {
		o(cfg, &d)
	}

	env.handler = NewRouter(d)
	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func bearer(t *testing.T, validity time.Duration) string {
	t.Helper()
	token, err := auth.GenerateToken(auth.Identity{UserID: "u-1", Email: "ann@example.com", Name: "Ann"}, []byte(testSecret), validity)
	require.NoError(t, err)
	return "Bearer " + token
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(body))
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

type decoded struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) decoded {
	t.Helper()
	var d decoded
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d), rec.Body.String())
	return d
}
