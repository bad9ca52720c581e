package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/aigateway"
	"github.com/starford/notegraph/internal/autosave"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/noteservice"
	"github.com/starford/notegraph/internal/prefs"
	"github.com/starford/notegraph/internal/ratelimit"
	"github.com/starford/notegraph/internal/reconcile"
	"github.com/starford/notegraph/internal/testutil"
)

type env struct {
	svc    *noteservice.Service
	router http.Handler
}

type envOptions struct {
	authToken string
	aiKey     string
	aiURL     string
	events    http.Handler
}

func newEnv(t *testing.T, o envOptions) env {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testutil.TestStore(t)
	codec := backup.NewCodec(logger, "test")
	svc := noteservice.NewService(store, codec, logger)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	saver := autosave.NewManager(svc, autosave.Config{ContentDelay: 30 * time.Millisecond, TitleDelay: 20 * time.Millisecond}, logger, nil)
	t.Cleanup(func() { _ = saver.FlushAll(context.Background()) })
	ai := aigateway.New(aigateway.Config{APIKey: o.aiKey, BaseURL: o.aiURL}, ratelimit.New(2, time.Minute), logger)

	router := NewRouter(Deps{
		Service:     svc,
		Autosave:    saver,
		Codec:       codec,
		AI:          ai,
		Settings:    store,
		Logger:      logger,
		AuthEnabled: o.authToken != "",
		Token:       o.authToken,
		Events:      o.events,
	})
	return env{svc: svc, router: router}
}

func (e env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func (e env) createNote(t *testing.T, title, content string) models.Note {
	t.Helper()
	w := e.do(t, http.MethodPost, "/notes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	n := decode[models.Note](t, w)
	w = e.do(t, http.MethodPatch, "/notes/"+n.ID, map[string]any{"title": title, "content": content})
	if w.Code != http.StatusOK {
		t.Fatalf("update status = %d, body = %s", w.Code, w.Body.String())
	}
	return decode[models.Note](t, w)
}

func TestCreateAndGetNote(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPost, "/notes", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d", w.Code)
	}
	created := decode[models.Note](t, w)
	if created.Title != models.DefaultNoteTitle {
		t.Errorf("title = %q", created.Title)
	}

	w = e.do(t, http.MethodGet, "/notes/"+created.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}
	if got := decode[models.Note](t, w); got.ID != created.ID {
		t.Errorf("id = %q", got.ID)
	}
}

func TestCreateNote_UnknownFolder(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPost, "/notes", map[string]string{"folderId": "nope"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestUpdateNote_RenameRewritesLinks(t *testing.T) {
	e := newEnv(t, envOptions{})
	plan := e.createNote(t, "Project Plan", "goals")
	budget := e.createNote(t, "Budget", "see [[Project Plan]]")

	w := e.do(t, http.MethodPatch, "/notes/"+plan.ID, map[string]string{"title": "Roadmap"})
	if w.Code != http.StatusOK {
		t.Fatalf("rename status = %d", w.Code)
	}
	w = e.do(t, http.MethodGet, "/notes/"+budget.ID, nil)
	if got := decode[models.Note](t, w); got.Content != "see [[Roadmap]]" {
		t.Errorf("content = %q", got.Content)
	}

	w = e.do(t, http.MethodGet, "/notes/"+plan.ID+"/backlinks", nil)
	list := decode[NoteListResponse](t, w)
	if list.Total != 1 || list.Notes[0].ID != budget.ID {
		t.Errorf("backlinks = %+v", list)
	}
}

func TestUpdateNote_FolderNullUnfiles(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPost, "/folders", map[string]string{"name": "Work"})
	folder := decode[models.Folder](t, w)
	w = e.do(t, http.MethodPost, "/notes", map[string]string{"folderId": folder.ID})
	n := decode[models.Note](t, w)

	w = e.do(t, http.MethodPatch, "/notes/"+n.ID, map[string]any{"title": "kept"})
	if got := decode[models.Note](t, w); got.FolderID == nil {
		t.Fatal("absent folderId unfiled the note")
	}
	w = e.do(t, http.MethodPatch, "/notes/"+n.ID, map[string]any{"folderId": nil})
	if got := decode[models.Note](t, w); got.FolderID != nil {
		t.Errorf("folderId = %v, want nil", *got.FolderID)
	}
}

func TestUpdateNote_NotFound(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPatch, "/notes/ghost", map[string]string{"content": "x"})
	if w.Code != http.StatusNotFound {
		t.Errorf("update missing = %d, want 404", w.Code)
	}
}

func TestDeleteNote_Idempotent(t *testing.T) {
	e := newEnv(t, envOptions{})
	n := e.createNote(t, "Gone", "")
	for range 2 {
		if w := e.do(t, http.MethodDelete, "/notes/"+n.ID, nil); w.Code != http.StatusNoContent {
			t.Fatalf("delete = %d", w.Code)
		}
	}
	if w := e.do(t, http.MethodGet, "/notes/"+n.ID, nil); w.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", w.Code)
	}
}

func TestListNotes_Filters(t *testing.T) {
	e := newEnv(t, envOptions{})
	a := e.createNote(t, "Alpha", "apples")
	e.createNote(t, "Beta", "bananas")
	if w := e.do(t, http.MethodPost, "/notes/"+a.ID+"/tags", map[string]string{"name": "fruit"}); w.Code != http.StatusOK {
		t.Fatalf("tag status = %d", w.Code)
	}

	w := e.do(t, http.MethodGet, "/notes?tags=fruit", nil)
	list := decode[NoteListResponse](t, w)
	if list.Total != 1 || list.Notes[0].ID != a.ID {
		t.Errorf("tag filter = %+v", list)
	}

	w = e.do(t, http.MethodGet, "/notes?sort=title-desc", nil)
	list = decode[NoteListResponse](t, w)
	if list.Total != 2 || list.Notes[0].Title != "Beta" {
		t.Errorf("sorted = %+v", list)
	}

	if w := e.do(t, http.MethodGet, "/notes?sort=random", nil); w.Code != http.StatusBadRequest {
		t.Errorf("invalid sort = %d, want 400", w.Code)
	}
}

func TestSearch(t *testing.T) {
	e := newEnv(t, envOptions{})
	e.createNote(t, "Groceries", "milk and eggs")
	w := e.do(t, http.MethodGet, "/search?q=EGGS", nil)
	if list := decode[NoteListResponse](t, w); list.Total != 1 {
		t.Errorf("search = %+v", list)
	}
	w = e.do(t, http.MethodGet, "/search?q=eggs&snippets=true", nil)
	if res := decode[SearchResponse](t, w); res.Total != 1 || !strings.Contains(res.Hits[0].Snippet, "eggs") {
		t.Errorf("snippet search = %+v", res)
	}
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
}

func TestGraphAndOrphans(t *testing.T) {
	e := newEnv(t, envOptions{})
	e.createNote(t, "A", "links [[B]] and [[Missing]]")
	e.createNote(t, "B", "")
	lonely := e.createNote(t, "C", "")

	g := decode[GraphResponse](t, e.do(t, http.MethodGet, "/graph", nil))
	if len(g.Nodes) != 3 || len(g.Links) != 1 {
		t.Errorf("graph = %+v", g)
	}
	orphans := decode[NoteListResponse](t, e.do(t, http.MethodGet, "/orphans", nil))
	if orphans.Total != 1 || orphans.Notes[0].ID != lonely.ID {
		t.Errorf("orphans = %+v", orphans)
	}
}

func TestDraftAutosave(t *testing.T) {
	e := newEnv(t, envOptions{})
	n := e.createNote(t, "Draft", "v0")

	for _, c := range []string{"v1", "v2", "v3"} {
		if w := e.do(t, http.MethodPut, "/notes/"+n.ID+"/draft", map[string]string{"content": c}); w.Code != http.StatusAccepted {
			t.Fatalf("draft status = %d", w.Code)
		}
	}
	testutil.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		got, _ := e.svc.Note(n.ID)
		return got.Content == "v3"
	}, "draft not saved")

	e.do(t, http.MethodPut, "/notes/"+n.ID+"/draft", map[string]string{"title": "Renamed"})
	if w := e.do(t, http.MethodPost, "/notes/"+n.ID+"/flush", nil); w.Code != http.StatusNoContent {
		t.Fatalf("flush = %d", w.Code)
	}
	if got, _ := e.svc.Note(n.ID); got.Title != "Renamed" {
		t.Errorf("title after flush = %q", got.Title)
	}

	if w := e.do(t, http.MethodPut, "/notes/"+n.ID+"/draft", map[string]string{}); w.Code != http.StatusBadRequest {
		t.Errorf("empty draft = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPut, "/notes/ghost/draft", map[string]string{"content": "x"}); w.Code != http.StatusNotFound {
		t.Errorf("draft for missing note = %d, want 404", w.Code)
	}
}

func TestFolders(t *testing.T) {
	e := newEnv(t, envOptions{})
	if w := e.do(t, http.MethodPost, "/folders", map[string]string{"name": "x", "color": "#000000"}); w.Code != http.StatusBadRequest {
		t.Errorf("bad color = %d, want 400", w.Code)
	}
	w := e.do(t, http.MethodPost, "/folders", map[string]string{"name": "Work", "icon": "Code"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create folder = %d", w.Code)
	}
	f := decode[models.Folder](t, w)

	w = e.do(t, http.MethodPatch, "/folders/"+f.ID, map[string]string{"name": "Job"})
	if got := decode[models.Folder](t, w); got.Name != "Job" {
		t.Errorf("renamed = %+v", got)
	}
	if w := e.do(t, http.MethodDelete, "/folders/"+f.ID, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete folder = %d", w.Code)
	}
	if got := e.svc.Folders(); len(got) != 0 {
		t.Errorf("folders = %+v", got)
	}
}

func TestTags(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPost, "/tags", map[string]string{"name": "Work"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create tag = %d", w.Code)
	}
	work := decode[models.Tag](t, w)
	if w := e.do(t, http.MethodPost, "/tags", map[string]string{"name": "work"}); w.Code != http.StatusOK {
		t.Errorf("duplicate create = %d, want 200", w.Code)
	}
	home := decode[models.Tag](t, e.do(t, http.MethodPost, "/tags", map[string]string{"name": "Home"}))

	if w := e.do(t, http.MethodPatch, "/tags/"+home.ID, map[string]string{"name": "WORK"}); w.Code != http.StatusConflict {
		t.Errorf("rename conflict = %d, want 409", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/tags/"+home.ID+"/merge", map[string]string{"targetId": "missing"}); w.Code != http.StatusNotFound {
		t.Errorf("merge missing target = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/tags/"+home.ID+"/merge", map[string]string{"targetId": work.ID}); w.Code != http.StatusOK {
		t.Errorf("merge = %d", w.Code)
	}
	if got := e.svc.Tags(); len(got) != 1 || got[0].ID != work.ID {
		t.Errorf("tags after merge = %+v", got)
	}
}

func TestDraftWithoutAutosave(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testutil.TestStore(t)
	svc := noteservice.NewService(store, backup.NewCodec(logger, "test"), logger)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	n, err := svc.CreateNote(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	e := env{svc: svc, router: NewRouter(Deps{Service: svc, Settings: store, Logger: logger})}

	if w := e.do(t, http.MethodPut, "/notes/"+n.ID+"/draft", map[string]string{"content": "x"}); w.Code != http.StatusServiceUnavailable {
		t.Errorf("draft = %d, want 503", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/notes/"+n.ID+"/flush", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("flush = %d, want 503", w.Code)
	}
	if w := e.do(t, http.MethodGet, "/ai/status", nil); w.Code != http.StatusNotFound {
		t.Errorf("ai status without gateway = %d, want 404", w.Code)
	}
}

func TestPatchNoteTags_CreatesTagRecords(t *testing.T) {
	e := newEnv(t, envOptions{})
	n := e.createNote(t, "Tagged", "")
	w := e.do(t, http.MethodPatch, "/notes/"+n.ID, map[string]any{"tags": []string{"ghost"}})
	if w.Code != http.StatusOK {
		t.Fatalf("patch tags = %d, body = %s", w.Code, w.Body.String())
	}
	tags := e.svc.Tags()
	if len(tags) != 1 || tags[0].Name != "ghost" {
		t.Fatalf("tags = %+v", tags)
	}

	if w := e.do(t, http.MethodDelete, "/tags/"+tags[0].ID, nil); w.Code >= 300 {
		t.Fatalf("delete tag = %d", w.Code)
	}
	got, _ := e.svc.Note(n.ID)
	if len(got.Tags) != 0 {
		t.Errorf("note keeps deleted tag: %v", got.Tags)
	}
}

func uploadBackup(t *testing.T, router http.Handler, filename string, content []byte, mode string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.WriteField("mode", mode)
	_ = mw.WriteField("handleDuplicates", string(reconcile.DuplicatesSkip))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/backup/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBackupExportImport(t *testing.T) {
	src := newEnv(t, envOptions{})
	src.createNote(t, "Exported", "body")

	w := src.do(t, http.MethodGet, "/backup/export", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "notes-backup-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	exported := w.Body.Bytes()

	dst := newEnv(t, envOptions{})
	dst.createNote(t, "Local", "")
	w = uploadBackup(t, dst.router, "backup.json", exported, string(reconcile.ModeMerge))
	if w.Code != http.StatusOK {
		t.Fatalf("import = %d, body = %s", w.Code, w.Body.String())
	}
	res := decode[reconcile.Result](t, w)
	if !res.Success || res.Imported.Notes != 1 {
		t.Errorf("result = %+v", res)
	}
	if got := len(dst.svc.Notes()); got != 2 {
		t.Errorf("notes after merge = %d", got)
	}

	stats := decode[map[string]any](t, dst.do(t, http.MethodGet, "/backup/stats", nil))
	if stats["formattedSize"] == "" {
		t.Errorf("stats = %v", stats)
	}
}

func TestBackupImport_Rejects(t *testing.T) {
	e := newEnv(t, envOptions{})
	if w := uploadBackup(t, e.router, "notes.txt", []byte("hello"), "merge"); w.Code != http.StatusBadRequest {
		t.Errorf("non-json upload = %d, want 400", w.Code)
	}
	if w := uploadBackup(t, e.router, "bad.json", []byte(`{"version":"1.0.0"}`), "merge"); w.Code != http.StatusBadRequest {
		t.Errorf("invalid backup = %d, want 400", w.Code)
	}
	valid, _ := json.Marshal(e.svc.ExportBackup())
	w := uploadBackup(t, e.router, "ok.json", valid, "sideways")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid mode = %d, want 400", w.Code)
	}
	if res := decode[reconcile.Result](t, w); res.Success || len(res.Errors) == 0 {
		t.Errorf("result = %+v", res)
	}
}

func TestExportMarkdown(t *testing.T) {
	e := newEnv(t, envOptions{})
	n := e.createNote(t, "Trip: Plan", "<p>Pack</p>")
	w := e.do(t, http.MethodGet, "/notes/"+n.ID+"/markdown", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("markdown = %d", w.Code)
	}
	if !strings.HasPrefix(w.Body.String(), "# Trip: Plan") {
		t.Errorf("body = %q", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, ".md") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestAITransform_NoKey(t *testing.T) {
	e := newEnv(t, envOptions{})
	w := e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "improve", "text": "hello"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
	if got := decode[aigateway.Error](t, w); got.Code != aigateway.CodeNoAPIKey {
		t.Errorf("code = %q", got.Code)
	}
}

func TestAITransform(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  Better text. "}}]}`))
	}))
	defer upstream.Close()
	e := newEnv(t, envOptions{aiKey: "sk-test", aiURL: upstream.URL})

	w := e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "improve", "text": "bad text"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if got := decode[TransformResponse](t, w); got.Text != "Better text." {
		t.Errorf("text = %q", got.Text)
	}

	if w := e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "improve", "text": ""}); w.Code != http.StatusBadRequest {
		t.Errorf("empty text = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "rhyme", "text": "x"}); w.Code != http.StatusBadRequest {
		t.Errorf("unknown op = %d, want 400", w.Code)
	}

	e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "grammar", "text": "second"})
	w = e.do(t, http.MethodPost, "/ai/transform", map[string]string{"operation": "grammar", "text": "third"})
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("over quota = %d, want 429", w.Code)
	}

	status := decode[aigateway.Status](t, e.do(t, http.MethodGet, "/ai/status", nil))
	if !status.Configured || !status.RateLimit.IsLimited {
		t.Errorf("status = %+v", status)
	}
}

func TestAIConnectionTest(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"OK"}}]}`))
	}))
	defer upstream.Close()

	e := newEnv(t, envOptions{aiKey: "sk-test", aiURL: upstream.URL})
	if w := e.do(t, http.MethodPost, "/ai/test", nil); w.Code != http.StatusOK {
		t.Errorf("test connection = %d, body = %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodDelete, "/ai/cache", nil); w.Code != http.StatusNoContent {
		t.Errorf("clear cache = %d", w.Code)
	}

	noKey := newEnv(t, envOptions{})
	if w := noKey.do(t, http.MethodPost, "/ai/test", nil); w.Code != http.StatusServiceUnavailable {
		t.Errorf("test without key = %d, want 503", w.Code)
	}
}

func TestPreferences(t *testing.T) {
	e := newEnv(t, envOptions{})
	got := decode[prefs.Preferences](t, e.do(t, http.MethodGet, "/preferences", nil))
	if got != prefs.Default() {
		t.Errorf("defaults = %+v", got)
	}

	w := e.do(t, http.MethodPut, "/preferences", map[string]any{"theme": "dark", "focusMode": true})
	if w.Code != http.StatusOK {
		t.Fatalf("save = %d", w.Code)
	}
	got = decode[prefs.Preferences](t, e.do(t, http.MethodGet, "/preferences", nil))
	if got.Theme != prefs.ThemeDark || !got.FocusMode || !got.SidebarVisible {
		t.Errorf("saved = %+v", got)
	}

	if w := e.do(t, http.MethodPut, "/preferences", map[string]string{"viewDensity": "tiny"}); w.Code != http.StatusBadRequest {
		t.Errorf("invalid = %d, want 400", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	e := newEnv(t, envOptions{authToken: "secret123"})
	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"valid", "Bearer secret123", http.StatusOK},
		{"missing", "", http.StatusUnauthorized},
		{"wrong", "Bearer wrong", http.StatusUnauthorized},
		{"scheme", "Basic secret123", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/notes", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Errorf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	e := newEnv(t, envOptions{})
	if w := e.do(t, http.MethodGet, "/notes", nil); w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// sseStub writes headers and blocks until the request context ends.
var sseStub = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	e := newEnv(t, envOptions{authToken: "secret", events: sseStub})
	w := e.do(t, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	e := newEnv(t, envOptions{authToken: "tok", events: sseStub})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d", w.Code)
	}
}
