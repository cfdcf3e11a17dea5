package workers

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"wbb_scrooper/httputil"
	"wbb_scrooper/identity"
	"wbb_scrooper/models"
	"wbb_scrooper/ncaa"
)

const bioSource = "bios"

// BioEventFunc records a bio worker event in scrape_logs. source is "bios"
// for batch events and "bios:<team>" for a single coach.
type BioEventFunc func(level models.LogLevel, source, message string)

// BioStore is the slice of the SQLite store the bio worker reads and writes.
type BioStore interface {
	GetCoachesWithURL(limit int) ([]models.Coach, error)
	GetBioHash(url string) (string, error)
	SaveBioSnapshot(url, hash, s3Key string, changed bool) error
}

// Getter fetches a page body.
type Getter interface {
	Get(ctx context.Context, rawURL string) (*httputil.Response, error)
}

// S3Uploader interface for uploading to S3-compatible storage
type S3Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

// BioWorker re-reads coach bio pages and snapshots the text whenever it
// changes. Snapshots go to object storage when an uploader is set.
type BioWorker struct {
	store     BioStore
	http      Getter
	uploader  S3Uploader
	delay     time.Duration
	triggerCh chan struct{}
	onEvent   BioEventFunc
}

func NewBioWorker(store BioStore, http Getter, uploader S3Uploader) *BioWorker {
	return &BioWorker{
		store:     store,
		http:      http,
		uploader:  uploader,
		delay:     200 * time.Millisecond,
		triggerCh: make(chan struct{}, 1),
	}
}

func (w *BioWorker) SetLogger(fn BioEventFunc) {
	w.onEvent = fn
}

func (w *BioWorker) event(level models.LogLevel, coach *models.Coach, message string) {
	if w.onEvent == nil {
		return
	}
	source := bioSource
	if coach != nil && coach.Team != "" {
		source += ":" + coach.Team
	}
	w.onEvent(level, source, message)
}

// Trigger causes the worker to run immediately
func (w *BioWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// BioResult is the outcome of checking one bio page.
type BioResult struct {
	URL         string
	ContentHash string
	S3Key       string
	Changed     bool
	New         bool
	Error       error
}

// BioKey is the object key of a bio snapshot: bios/{hash_prefix}/{hash}.txt
func BioKey(hash string) string {
	return fmt.Sprintf("bios/%s/%s.txt", hash[:2], hash)
}

// Process fetches one bio and records its snapshot.
func (w *BioWorker) Process(ctx context.Context, coach models.Coach) BioResult {
	result := BioResult{URL: coach.URL}

	resp, err := w.http.Get(ctx, coach.URL)
	if err != nil {
		result.Error = fmt.Errorf("download: %w", err)
		return result
	}
	text, err := ncaa.ArticleText(resp.Body)
	if err != nil {
		result.Error = err
		return result
	}
	result.ContentHash = identity.ContentHash(text)

	prev, err := w.store.GetBioHash(coach.URL)
	if err != nil {
		result.Error = fmt.Errorf("lookup hash: %w", err)
		return result
	}
	result.New = prev == ""
	result.Changed = prev != "" && prev != result.ContentHash

	if (result.New || result.Changed) && w.uploader != nil {
		result.S3Key = BioKey(result.ContentHash)
		if err := w.uploader.Upload(ctx, result.S3Key, strings.NewReader(text), "text/plain; charset=utf-8"); err != nil {
			result.Error = fmt.Errorf("upload: %w", err)
			return result
		}
	}

	if err := w.store.SaveBioSnapshot(coach.URL, result.ContentHash, result.S3Key, result.Changed); err != nil {
		result.Error = fmt.Errorf("save snapshot: %w", err)
	}
	return result
}

// Run starts the bio worker loop
func (w *BioWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Bio worker stopping")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx, batchSize)
		case <-w.triggerCh:
			log.Println("Bio worker triggered manually")
			w.ProcessBatch(ctx, batchSize)
		}
	}
}

// ProcessBatch checks up to batchSize coach bios and returns how many
// changed since the last check.
func (w *BioWorker) ProcessBatch(ctx context.Context, batchSize int) int {
	coaches, err := w.store.GetCoachesWithURL(batchSize)
	if err != nil {
		log.Printf("Bio worker: query error: %v", err)
		return 0
	}
	if len(coaches) == 0 {
		return 0
	}

	log.Printf("Bio worker: checking %d bios", len(coaches))

	var checked, changed, failed int
	for i, coach := range coaches {
		if i > 0 && w.delay > 0 {
			select {
			case <-ctx.Done():
				return changed
			case <-time.After(w.delay):
			}
		}

		result := w.Process(ctx, coach)
		if result.Error != nil {
			log.Printf("Bio worker: failed %s: %v", coach.URL, result.Error)
			failed++
			continue
		}
		checked++
		if result.Changed {
			changed++
			w.event(models.LogLevelInfo, &coach, fmt.Sprintf("Bio changed: %s (%s)", coach.Name, coach.Team))
		}
	}

	log.Printf("Bio worker: checked %d, changed %d, failed %d", checked, changed, failed)
	if failed > 0 {
		w.event(models.LogLevelWarn, nil, fmt.Sprintf("%d bio pages failed", failed))
	}
	return changed
}
