package workers

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"wbb_scrooper/httputil"
	"wbb_scrooper/identity"
	"wbb_scrooper/models"
	"wbb_scrooper/storage"
)

type snapshot struct {
	hash, key string
	changed   bool
}

type fakeBioStore struct {
	coaches   []models.Coach
	hashes    map[string]string
	snapshots map[string]snapshot
}

func newFakeBioStore(coaches ...models.Coach) *fakeBioStore {
	return &fakeBioStore{coaches: coaches, hashes: map[string]string{}, snapshots: map[string]snapshot{}}
}

func (s *fakeBioStore) GetCoachesWithURL(limit int) ([]models.Coach, error) {
	if len(s.coaches) > limit {
		return s.coaches[:limit], nil
	}
	return s.coaches, nil
}

func (s *fakeBioStore) GetBioHash(url string) (string, error) {
	return s.hashes[url], nil
}

func (s *fakeBioStore) SaveBioSnapshot(url, hash, s3Key string, changed bool) error {
	s.hashes[url] = hash
	s.snapshots[url] = snapshot{hash: hash, key: s3Key, changed: changed}
	return nil
}

type fakePages map[string]string

func (p fakePages) Get(ctx context.Context, rawURL string) (*httputil.Response, error) {
	body, ok := p[rawURL]
	if !ok {
		return &httputil.Response{URL: rawURL, StatusCode: 404}, httputil.ErrNotFound
	}
	return &httputil.Response{URL: rawURL, StatusCode: 200, Body: []byte(body)}, nil
}

type fakeUploader struct {
	objects map[string]string
}

func (u *fakeUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	u.objects[key] = string(b)
	return nil
}

const bioURL = "https://gojackets.com/sports/womens-basketball/roster/coaches/nell-fortner/1234"

func bioPage(text string) string {
	return `<html><body><nav><p>Tickets</p></nav><div class="sidearm-staff-member-bio"><p>` + text + `</p></div></body></html>`
}

func TestBioKey(t *testing.T) {
	hash := identity.ContentHash("Nell Fortner")
	key := BioKey(hash)
	if key != "bios/"+hash[:2]+"/"+hash+".txt" {
		t.Fatalf("unexpected key %s", key)
	}
}

func TestBioWorkerSnapshotsChanges(t *testing.T) {
	coach := models.Coach{TeamID: 255, Team: "Georgia Tech", Name: "Nell Fortner", URL: bioURL}
	store := newFakeBioStore(coach)
	pages := fakePages{bioURL: bioPage("Fortner is in her seventh season.")}
	up := &fakeUploader{objects: map[string]string{}}
	w := NewBioWorker(store, pages, up)
	w.delay = 0

	ctx := context.Background()
	first := w.Process(ctx, coach)
	if first.Error != nil {
		t.Fatalf("process: %v", first.Error)
	}
	if !first.New || first.Changed {
		t.Fatalf("expected new unchanged bio, got %+v", first)
	}
	if up.objects[first.S3Key] != "Fortner is in her seventh season." {
		t.Fatalf("expected uploaded bio text, got %q", up.objects[first.S3Key])
	}

	same := w.Process(ctx, coach)
	if same.New || same.Changed || same.S3Key != "" {
		t.Fatalf("expected unchanged bio to skip upload, got %+v", same)
	}
	if len(up.objects) != 1 {
		t.Fatalf("expected 1 upload, got %d", len(up.objects))
	}

	pages[bioURL] = bioPage("Fortner is in her eighth season.")
	var logged, sources []string
	w.SetLogger(func(level models.LogLevel, source, message string) {
		logged = append(logged, message)
		sources = append(sources, source)
	})
	if n := w.ProcessBatch(ctx, 10); n != 1 {
		t.Fatalf("expected 1 changed bio, got %d", n)
	}
	snap := store.snapshots[bioURL]
	if !snap.changed || snap.hash != identity.ContentHash("Fortner is in her eighth season.") {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if len(up.objects) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(up.objects))
	}
	if len(logged) != 1 || !strings.Contains(logged[0], "Nell Fortner") {
		t.Fatalf("expected change logged, got %v", logged)
	}
	if sources[0] != "bios:Georgia Tech" {
		t.Fatalf("expected coach source tag, got %s", sources[0])
	}
}

func TestBioWorkerWithoutUploader(t *testing.T) {
	coach := models.Coach{Name: "Kara Lawson", URL: bioURL}
	store := newFakeBioStore(coach)
	w := NewBioWorker(store, fakePages{bioURL: bioPage("Lawson leads Duke.")}, nil)

	res := w.Process(context.Background(), coach)
	if res.Error != nil {
		t.Fatalf("process: %v", res.Error)
	}
	if res.S3Key != "" {
		t.Fatalf("expected no key without uploader, got %s", res.S3Key)
	}
	if store.hashes[bioURL] == "" {
		t.Fatalf("expected hash saved")
	}
}

func TestBioWorkerCountsFailures(t *testing.T) {
	missing := models.Coach{Name: "Gone", URL: "https://example.com/missing"}
	store := newFakeBioStore(missing)
	w := NewBioWorker(store, fakePages{}, nil)
	w.delay = 0

	var levels []models.LogLevel
	w.SetLogger(func(level models.LogLevel, source, message string) {
		levels = append(levels, level)
		if source != bioSource {
			t.Fatalf("expected batch source %s, got %s", bioSource, source)
		}
	})
	if n := w.ProcessBatch(context.Background(), 5); n != 0 {
		t.Fatalf("expected no changes, got %d", n)
	}
	if len(levels) != 1 || levels[0] != models.LogLevelWarn {
		t.Fatalf("expected one warning, got %v", levels)
	}

	res := w.Process(context.Background(), missing)
	if !errors.Is(res.Error, httputil.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", res.Error)
	}
}

type recordingPages struct {
	fakePages
	fetched []string
}

func (p *recordingPages) Get(ctx context.Context, rawURL string) (*httputil.Response, error) {
	p.fetched = append(p.fetched, rawURL)
	return p.fakePages.Get(ctx, rawURL)
}

func TestBioWorkerBatchesCycleThroughCoaches(t *testing.T) {
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "scraper.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	pages := &recordingPages{fakePages: fakePages{}}
	var coaches []models.Coach
	for _, name := range []string{"Dawn Staley", "Kim Mulkey", "Lisa Bluder"} {
		u := "https://example.com/coaches/" + identity.Slug(name)
		coaches = append(coaches, models.Coach{TeamID: 1, Team: "State", Season: "2025-26", Name: name, Title: "Head Coach", URL: u})
		pages.fakePages[u] = bioPage(name + " bio.")
	}
	if _, err := store.SaveCoaches(coaches); err != nil {
		t.Fatalf("save coaches: %v", err)
	}

	w := NewBioWorker(store, pages, nil)
	w.delay = 0
	ctx := context.Background()
	for range 3 {
		w.ProcessBatch(ctx, 2)
		time.Sleep(2 * time.Millisecond)
	}

	want := []string{
		coaches[0].URL, coaches[1].URL, // never checked
		coaches[2].URL, coaches[0].URL, // Lisa unchecked, then the oldest check
		coaches[1].URL, coaches[2].URL,
	}
	if diff := cmp.Diff(want, pages.fetched); diff != "" {
		t.Fatalf("fetch order mismatch (-want +got):\n%s", diff)
	}
}
