package noteservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/backup"
	"github.com/starford/notegraph/internal/filter"
	"github.com/starford/notegraph/internal/models"
	"github.com/starford/notegraph/internal/reconcile"
	"github.com/starford/notegraph/internal/storage"
	"github.com/starford/notegraph/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) PublishChange(entity, action, id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, entity+"."+action+":"+id)
}

func (r *recorder) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, event)
}

type fixture struct {
	svc    *Service
	store  *storage.DB
	clock  *testutil.Clock
	events *recorder
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixture(t *testing.T, ds models.Dataset) fixture {
	t.Helper()
	store := testutil.TestStore(t)
	testutil.Seed(t, store, ds)
	f := fixture{store: store, clock: testutil.NewClock(), events: &recorder{}}
	f.svc = NewService(store, backup.NewCodec(quietLogger(), "test"), quietLogger(),
		WithPublisher(f.events), WithClock(f.clock.Now))
	if err := f.svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return f
}

// reload builds a fresh service over the same store.
func (f fixture) reload(t *testing.T) *Service {
	t.Helper()
	svc := NewService(f.store, backup.NewCodec(quietLogger(), "test"), quietLogger())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return svc
}

func noteIDs(notes []models.Note) []string {
	out := make([]string, len(notes))
	for i, n := range notes {
		out[i] = n.ID
	}
	return out
}

func TestLoad_OrdersMostRecentFirst(t *testing.T) {
	f := newFixture(t, models.Dataset{Notes: []models.Note{
		testutil.Note("a", "A", "", 100),
		testutil.Note("b", "B", "", 300),
		testutil.Note("c", "C", "", 200),
	}})
	if got := noteIDs(f.svc.Notes()); !slices.Equal(got, []string{"b", "c", "a"}) {
		t.Errorf("order = %v", got)
	}
}

func TestCreateNote(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("old", "Old", "", 100)}})

	n, err := f.svc.CreateNote(ctx, nil)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if n.Title != models.DefaultNoteTitle || n.FolderID != nil {
		t.Errorf("created = %+v", n)
	}
	if n.CreatedAt != f.clock.T.UnixMilli() || n.UpdatedAt != n.CreatedAt {
		t.Errorf("timestamps = %d/%d", n.CreatedAt, n.UpdatedAt)
	}
	if got := noteIDs(f.svc.Notes()); got[0] != n.ID {
		t.Errorf("new note not first: %v", got)
	}
	if !f.events.has("note.created:" + n.ID) {
		t.Errorf("missing created event: %v", f.events.events)
	}
	if _, err := f.reload(t).Note(n.ID); err != nil {
		t.Errorf("note not persisted: %v", err)
	}
}

func TestCreateNote_UnknownFolder(t *testing.T) {
	f := newFixture(t, models.Dataset{})
	_, err := f.svc.CreateNote(context.Background(), models.StringPtr("missing"))
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if len(f.svc.Notes()) != 0 {
		t.Error("note created despite error")
	}
}

func TestUpdateNote_RenamePropagates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{Notes: []models.Note{
		testutil.Note("plan", "Project Plan", "goals", 100),
		testutil.Note("budget", "Budget", "see [[project plan]] and [[Other]]", 100),
		testutil.Note("other", "Other", "no links", 100),
	}})
	f.clock.Advance(time.Minute)

	title := "Roadmap"
	n, err := f.svc.UpdateNote(ctx, "plan", NotePatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if n.Title != "Roadmap" || n.UpdatedAt != f.clock.T.UnixMilli() {
		t.Errorf("updated = %+v", n)
	}

	budget, _ := f.svc.Note("budget")
	if budget.Content != "see [[Roadmap]] and [[Other]]" {
		t.Errorf("budget content = %q", budget.Content)
	}
	other, _ := f.svc.Note("other")
	if other.UpdatedAt != 100 {
		t.Errorf("unlinked note touched: %d", other.UpdatedAt)
	}

	back, err := f.svc.Backlinks("plan")
	if err != nil || !slices.Equal(noteIDs(back), []string{"budget"}) {
		t.Errorf("backlinks after rename = %v, %v", noteIDs(back), err)
	}

	persisted, _ := f.reload(t).Note("budget")
	if persisted.Content != budget.Content {
		t.Errorf("rename not persisted: %q", persisted.Content)
	}
}

func TestUpdateNote_NormalizesTitleAndTags(t *testing.T) {
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("n", "N", "", 100)}})
	empty := ""
	n, err := f.svc.UpdateNote(context.Background(), "n", NotePatch{Title: &empty, Tags: []string{"a", " a ", "b", ""}})
	if err != nil {
		t.Fatal(err)
	}
	if n.Title != models.DefaultNoteTitle {
		t.Errorf("title = %q", n.Title)
	}
	if !slices.Equal(n.Tags, []string{"a", "b"}) {
		t.Errorf("tags = %v", n.Tags)
	}
}

func TestUpdateNote_TagsResolveToRecords(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, taggedDataset())
	n, err := f.svc.UpdateNote(ctx, "b", NotePatch{Tags: []string{"ghost", "DRAFT", "Ghost"}})
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(n.Tags, []string{"ghost", "draft"}) {
		t.Errorf("tags = %v", n.Tags)
	}

	var ghost models.Tag
	for _, tag := range f.reload(t).Tags() {
		if tag.Name == "ghost" {
			ghost = tag
		}
	}
	if ghost.ID == "" {
		t.Fatalf("no tag record created for ghost: %+v", f.svc.Tags())
	}
	if len(f.svc.Tags()) != 3 {
		t.Errorf("tags = %+v", f.svc.Tags())
	}

	if err := f.svc.DeleteTag(ctx, ghost.ID); err != nil {
		t.Fatal(err)
	}
	got, _ := f.svc.Note("b")
	if got.HasTag("ghost") {
		t.Errorf("note still carries deleted tag: %v", got.Tags)
	}
}

func TestUpdateNote_Missing(t *testing.T) {
	f := newFixture(t, models.Dataset{})
	content := "x"
	_, err := f.svc.UpdateNote(context.Background(), "ghost", NotePatch{Content: &content})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestUpdateNote_ClockBehindKeepsMonotonicTimestamps(t *testing.T) {
	future := testutil.NewClock().T.Add(time.Hour).UnixMilli()
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("n", "N", "", future)}})
	content := "edited"
	n, err := f.svc.UpdateNote(context.Background(), "n", NotePatch{Content: &content})
	if err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if n.UpdatedAt < future {
		t.Errorf("updatedAt moved backwards: %d < %d", n.UpdatedAt, future)
	}
}

func TestDeleteNote_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("n", "N", "", 100)}})
	if err := f.svc.DeleteNote(ctx, "n"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteNote(ctx, "n"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if len(f.svc.Notes()) != 0 || len(f.reload(t).Notes()) != 0 {
		t.Error("note still present")
	}
}

func TestToggleFavorite(t *testing.T) {
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("n", "N", "", 100)}})
	n, err := f.svc.ToggleFavorite(context.Background(), "n")
	if err != nil || !n.IsFavorite {
		t.Fatalf("toggle on = %+v, %v", n, err)
	}
	n, _ = f.svc.ToggleFavorite(context.Background(), "n")
	if n.IsFavorite {
		t.Error("toggle off failed")
	}
}

func TestFolders_DeleteUnfilesNotes(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{})

	folder, err := f.svc.CreateFolder(ctx, FolderInput{Name: "  Work ", Color: "#3b82f6", Icon: "Briefcase"})
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if folder.Name != "Work" {
		t.Errorf("name = %q", folder.Name)
	}
	n, _ := f.svc.CreateNote(ctx, &folder.ID)

	if err := f.svc.DeleteFolder(ctx, folder.ID); err != nil {
		t.Fatalf("DeleteFolder: %v", err)
	}
	got, _ := f.svc.Note(n.ID)
	if got.FolderID != nil {
		t.Errorf("note still filed: %v", *got.FolderID)
	}
	if len(f.svc.Folders()) != 0 {
		t.Error("folder not removed")
	}
	persisted, _ := f.reload(t).Note(n.ID)
	if persisted.FolderID != nil {
		t.Error("unfiling not persisted")
	}
}

func TestFolders_DefaultIcon(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{})
	folder, err := f.svc.CreateFolder(ctx, FolderInput{Name: "Plain"})
	if err != nil {
		t.Fatal(err)
	}
	if folder.Icon != models.DefaultFolderIcon {
		t.Errorf("icon = %q", folder.Icon)
	}

	b := f.svc.ExportBackup()
	b.Folders = append(b.Folders, models.Folder{ID: "f-old", Name: "Old", Icon: "Spaceship", CreatedAt: 1})
	if _, err := f.svc.ImportBackup(ctx, b, reconcile.Options{Mode: reconcile.ModeMerge, HandleDuplicates: reconcile.DuplicatesSkip}); err != nil {
		t.Fatal(err)
	}
	old, err := f.reload(t).Folder("f-old")
	if err != nil {
		t.Fatal(err)
	}
	if old.Icon != models.DefaultFolderIcon {
		t.Errorf("imported icon = %q", old.Icon)
	}
}

func TestFolders_Validation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{})
	cases := []FolderInput{
		{Name: ""},
		{Name: "   "},
		{Name: "ok", Color: "#123456"},
		{Name: "ok", Icon: "Spaceship"},
	}
	for _, in := range cases {
		if _, err := f.svc.CreateFolder(ctx, in); !errors.Is(err, apperr.ErrInvalidInput) {
			t.Errorf("CreateFolder(%+v) err = %v", in, err)
		}
	}
	if _, err := f.svc.UpdateFolder(ctx, "missing", FolderPatch{}); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("UpdateFolder missing err = %v", err)
	}
}

func TestCreateTag_CaseInsensitiveUnique(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{})
	first, err := f.svc.CreateTag(ctx, "Work", "")
	if err != nil {
		t.Fatal(err)
	}
	if first.Color != models.Colors[0] {
		t.Errorf("default color = %q", first.Color)
	}
	again, err := f.svc.CreateTag(ctx, " work ", "#ef4444")
	if err != nil {
		t.Fatal(err)
	}
	if again.ID != first.ID || again.Name != "Work" {
		t.Errorf("duplicate created: %+v", again)
	}
	if len(f.svc.Tags()) != 1 {
		t.Errorf("tags = %v", f.svc.Tags())
	}
	if _, err := f.svc.CreateTag(ctx, "  ", ""); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("blank name err = %v", err)
	}
}

func TestAddAndRemoveTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("n", "N", "", 100)}})
	if _, err := f.svc.CreateTag(ctx, "Ideas", ""); err != nil {
		t.Fatal(err)
	}
	n, err := f.svc.AddTagToNote(ctx, "n", "ideas")
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(n.Tags, []string{"Ideas"}) {
		t.Errorf("tags = %v", n.Tags)
	}
	n, _ = f.svc.AddTagToNote(ctx, "n", "Ideas")
	if len(n.Tags) != 1 {
		t.Errorf("tag added twice: %v", n.Tags)
	}
	n, _ = f.svc.RemoveTagFromNote(ctx, "n", "Ideas")
	if len(n.Tags) != 0 {
		t.Errorf("tags after remove = %v", n.Tags)
	}
	if len(f.svc.Tags()) != 1 {
		t.Error("tag record removed with note tag")
	}
}

func taggedDataset() models.Dataset {
	a := testutil.Note("a", "A", "", 100)
	a.Tags = []string{"draft", "work"}
	b := testutil.Note("b", "B", "", 100)
	b.Tags = []string{"draft"}
	return models.Dataset{
		Notes: []models.Note{a, b},
		Tags: []models.Tag{
			{ID: "t-draft", Name: "draft", Color: "#6b7280", CreatedAt: 1},
			{ID: "t-work", Name: "work", Color: "#3b82f6", CreatedAt: 1},
		},
	}
}

func TestRenameTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, taggedDataset())

	if _, err := f.svc.RenameTag(ctx, "t-draft", "WORK"); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("conflict err = %v", err)
	}
	a, _ := f.svc.Note("a")
	if !slices.Equal(a.Tags, []string{"draft", "work"}) {
		t.Errorf("conflict changed notes: %v", a.Tags)
	}

	tag, err := f.svc.RenameTag(ctx, "t-draft", "wip")
	if err != nil {
		t.Fatal(err)
	}
	if tag.Name != "wip" {
		t.Errorf("renamed = %+v", tag)
	}
	a, _ = f.svc.Note("a")
	b, _ := f.svc.Note("b")
	if !slices.Equal(a.Tags, []string{"wip", "work"}) || !slices.Equal(b.Tags, []string{"wip"}) {
		t.Errorf("note tags = %v / %v", a.Tags, b.Tags)
	}
}

func TestMergeTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, taggedDataset())

	if _, err := f.svc.MergeTag(ctx, "t-draft", "missing"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing target err = %v", err)
	}
	if len(f.svc.Tags()) != 2 {
		t.Fatal("failed merge changed tags")
	}
	if _, err := f.svc.MergeTag(ctx, "t-work", "t-work"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Errorf("self merge err = %v", err)
	}

	target, err := f.svc.MergeTag(ctx, "t-draft", "t-work")
	if err != nil {
		t.Fatal(err)
	}
	if target.ID != "t-work" {
		t.Errorf("target = %+v", target)
	}
	a, _ := f.svc.Note("a")
	b, _ := f.svc.Note("b")
	if !slices.Equal(a.Tags, []string{"work"}) || !slices.Equal(b.Tags, []string{"work"}) {
		t.Errorf("note tags = %v / %v", a.Tags, b.Tags)
	}
	tags := f.reload(t).Tags()
	if len(tags) != 1 || tags[0].ID != "t-work" {
		t.Errorf("persisted tags = %+v", tags)
	}
}

func TestDeleteTag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, taggedDataset())
	if err := f.svc.DeleteTag(ctx, "t-draft"); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.DeleteTag(ctx, "t-draft"); err != nil {
		t.Errorf("second delete: %v", err)
	}
	for _, n := range f.reload(t).Notes() {
		if n.HasTag("draft") {
			t.Errorf("note %s still tagged: %v", n.ID, n.Tags)
		}
	}
	if !f.events.has("tag.deleted:t-draft") {
		t.Errorf("events = %v", f.events.events)
	}
}

func TestQueries(t *testing.T) {
	now := testutil.NewClock().T.UnixMilli()
	a := testutil.Note("a", "Alpha", "links to [[Beta]]", now)
	a.Tags = []string{"x"}
	b := testutil.Note("b", "Beta", "nothing", now-1)
	c := testutil.Note("c", "Gamma", "alone", now-2)
	f := newFixture(t, models.Dataset{Notes: []models.Note{a, b, c}})

	out, err := f.svc.OutboundLinks("a")
	if err != nil || !slices.Equal(noteIDs(out), []string{"b"}) {
		t.Errorf("outbound = %v, %v", noteIDs(out), err)
	}
	if got := noteIDs(f.svc.Orphans()); !slices.Equal(got, []string{"c"}) {
		t.Errorf("orphans = %v", got)
	}
	nodes, edges := f.svc.Graph()
	if len(nodes) != 3 || len(edges) != 1 || edges[0].Source != "a" || edges[0].Target != "b" {
		t.Errorf("graph = %v %v", nodes, edges)
	}
	if got := noteIDs(f.svc.Search("ALONE", 0)); !slices.Equal(got, []string{"c"}) {
		t.Errorf("search = %v", got)
	}
	st := filter.DefaultState()
	st.Tags = []string{"x"}
	if got := noteIDs(f.svc.FilteredNotes(st)); !slices.Equal(got, []string{"a"}) {
		t.Errorf("filtered = %v", got)
	}
	if _, err := f.svc.Backlinks("ghost"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("backlinks missing err = %v", err)
	}
	if n, ok := f.svc.FindByTitle("gamma"); !ok || n.ID != "c" {
		t.Errorf("FindByTitle = %+v, %v", n, ok)
	}
}

func TestNote_ReturnsCopy(t *testing.T) {
	n := testutil.Note("n", "N", "", 100)
	n.Tags = []string{"a"}
	f := newFixture(t, models.Dataset{Notes: []models.Note{n}})
	got, _ := f.svc.Note("n")
	got.Tags[0] = "mutated"
	again, _ := f.svc.Note("n")
	if again.Tags[0] != "a" {
		t.Error("caller mutation leaked into service state")
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, taggedDataset())
	b := src.svc.ExportBackup()
	if b.Metadata.NoteCount != 2 || b.Metadata.TagCount != 2 {
		t.Fatalf("metadata = %+v", b.Metadata)
	}

	dst := newFixture(t, models.Dataset{Notes: []models.Note{testutil.Note("keep", "Keep", "", 50)}})
	res, err := dst.svc.ImportBackup(ctx, b, reconcile.Options{Mode: reconcile.ModeReplace, HandleDuplicates: reconcile.DuplicatesSkip})
	if err != nil || !res.Success {
		t.Fatalf("import = %+v, %v", res, err)
	}
	if got := noteIDs(dst.reload(t).Notes()); !slices.Equal(slices.Sorted(slices.Values(got)), []string{"a", "b"}) {
		t.Errorf("replaced notes = %v", got)
	}
	if !dst.events.has("import.completed:") {
		t.Errorf("events = %v", dst.events.events)
	}
}

func TestImport_MergeSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, taggedDataset())
	b := f.svc.ExportBackup()
	b.Notes = append(b.Notes, testutil.Note("new", "New", "", 200))

	res, err := f.svc.ImportBackup(ctx, b, reconcile.Options{Mode: reconcile.ModeMerge, HandleDuplicates: reconcile.DuplicatesSkip})
	if err != nil {
		t.Fatal(err)
	}
	if res.Imported.Notes != 1 || res.Skipped.Notes != 2 {
		t.Errorf("counts = %+v / %+v", res.Imported, res.Skipped)
	}
	if len(f.reload(t).Notes()) != 3 {
		t.Error("merge not persisted")
	}
}

func TestImport_CreatesMissingTags(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{})
	n := testutil.Note("n", "N", "", 100)
	n.Tags = []string{"orphan-tag"}
	b := models.BackupData{Version: backup.Version, Notes: []models.Note{n}, Folders: []models.Folder{}, Tags: []models.Tag{}}

	res, err := f.svc.ImportBackup(ctx, b, reconcile.Options{Mode: reconcile.ModeMerge, HandleDuplicates: reconcile.DuplicatesSkip})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	tags := f.reload(t).Tags()
	if len(tags) != 1 || tags[0].Name != "orphan-tag" {
		t.Errorf("tags = %+v", tags)
	}
}

func TestImport_CanonicalizesTagCase(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.Dataset{Tags: []models.Tag{{ID: "t-work", Name: "work", Color: "#3b82f6", CreatedAt: 1}}})
	n := testutil.Note("n", "N", "", 100)
	n.Tags = []string{"Work", "work", "New"}
	b := models.BackupData{Version: backup.Version, Notes: []models.Note{n}, Folders: []models.Folder{}, Tags: []models.Tag{}}

	res, err := f.svc.ImportBackup(ctx, b, reconcile.Options{Mode: reconcile.ModeMerge, HandleDuplicates: reconcile.DuplicatesSkip})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Warnings) != 1 {
		t.Errorf("warnings = %v", res.Warnings)
	}
	got, _ := f.reload(t).Note("n")
	if !slices.Equal(got.Tags, []string{"work", "New"}) {
		t.Errorf("tags = %v", got.Tags)
	}
	if len(f.svc.Tags()) != 2 {
		t.Errorf("tag records = %+v", f.svc.Tags())
	}
}

func TestImport_InvalidOptionsChangeNothing(t *testing.T) {
	f := newFixture(t, taggedDataset())
	b := f.svc.ExportBackup()
	b.Notes = nil
	_, err := f.svc.ImportBackup(context.Background(), b, reconcile.Options{Mode: "bogus"})
	if !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if len(f.svc.Notes()) != 2 {
		t.Error("failed import changed notes")
	}
}
