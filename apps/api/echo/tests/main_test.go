package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/session"
	"github.com/trezcool/shule/core/theme"
	"github.com/trezcool/shule/core/user"
	emailsvc "github.com/trezcool/shule/services/email"
	dummydb "github.com/trezcool/shule/storage/database/dummy"
	kvinmem "github.com/trezcool/shule/storage/kv/inmem"
	testutil "github.com/trezcool/shule/tests"
)

var (
	conf       *core.Config
	app        Server
	usrRepo    user.Repository
	sessStore  *session.Store
	themeStore *theme.Store

	errPermissionDenied = httpErr{Error: "permission denied"}
)

func TestMain(m *testing.M) {
	conf = testutil.NewConfig()
	conf.Debug = false // error payloads must match production shape

	// set up DB & repos
	usrRepo = dummydb.NewUserRepository(dummydb.Open())

	// set up services
	logger := testutil.NopLogger{}
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	usrSvc := user.NewService(usrRepo, mailSvc, logger, conf)

	// set up stores
	keeper := kvinmem.New()
	sessStore = session.NewStore(keeper, usrSvc, logger, conf)
	themeStore = theme.NewStore(keeper, nil, nil, logger, conf)

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	ctx := context.Background()
	sessStore.Initialize(ctx)
	themeStore.Initialize(ctx)

	// set up server
	app = NewServer(
		ServerDeps{
			Conf:         conf,
			Logger:       logger,
			UserSvc:      usrSvc,
			SessionStore: sessStore,
			ThemeStore:   themeStore,
			Validate:     validate,
			Translator:   translator,
		},
	)

	os.Exit(m.Run())
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	wantCode int
	wantData []byte
	extra    interface{}
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	return req, rec
}

// login drives the process-wide session store through the real endpoint.
func login(t *testing.T, email, pwd string) {
	t.Helper()
	body := marchallObj(t, map[string]string{"email": email, "password": pwd})
	req, rec := newRequest(http.MethodPost, "/v1/session/login", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("login() failed: code = %v, body = %s", rec.Code, rec.Body.String())
	}
}

func logout(t *testing.T) {
	t.Helper()
	sessStore.Logout(context.Background())
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj(): %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	return false, nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}

func checkRedirectToLogin(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusFound {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, http.StatusFound)
	}
	wantLoc := conf.FrontendBaseURL + conf.FrontendLoginPath
	if loc := rec.Header().Get("Location"); loc != wantLoc {
		t.Errorf("failed! Location = %v; want %v", loc, wantLoc)
	}
}
