package export

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// Uploader is the object-store surface Publisher needs.
type Uploader interface {
	UploadFile(ctx context.Context, key, path string) error
	PublicURL(key string) string
}

// Publisher copies finished export files to object storage.
type Publisher struct {
	uploader Uploader
	now      func() time.Time
}

// NewPublisher returns a Publisher. A nil uploader makes Publish a no-op.
func NewPublisher(u Uploader) *Publisher {
	return &Publisher{uploader: u, now: time.Now}
}

func (p *Publisher) Enabled() bool {
	return p != nil && p.uploader != nil
}

// Publish uploads each file under exports/{date}/{run}/ and returns the
// public URLs in input order.
func (p *Publisher) Publish(ctx context.Context, paths []string) ([]string, error) {
	if !p.Enabled() || len(paths) == 0 {
		return nil, nil
	}

	prefix := fmt.Sprintf("exports/%s/%s", p.now().Format("2006-01-02"), uuid.New().String())
	urls := make([]string, 0, len(paths))
	for _, path := range paths {
		key := prefix + "/" + filepath.Base(path)
		if err := p.uploader.UploadFile(ctx, key, path); err != nil {
			return urls, fmt.Errorf("publish %s: %w", path, err)
		}
		urls = append(urls, p.uploader.PublicURL(key))
		log.Printf("Export: published %s", key)
	}
	return urls, nil
}
