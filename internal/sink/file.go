package sink

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/mailsift/mailsift/internal/model"
)

// FileSink writes rendered digests to a directory, one file per digest.
type FileSink struct {
	dir string
}

// NewFileSink creates a sink that writes under dir.
func NewFileSink(dir string) *FileSink {
	return &FileSink{dir: dir}
}

// Deliver writes the digest. A zero-email digest is still written, not
// suppressed.
func (s *FileSink) Deliver(_ context.Context, digest *model.Digest) error {
	if err := os.MkdirAll(s.dir, 0750); err != nil {
		return fmt.Errorf("failed to create digest directory: %w", err)
	}

	name := fmt.Sprintf("digest-%s-%s.txt", digest.GeneratedAt.Format("2006-01-02"), digest.ID)
	path := filepath.Join(s.dir, name)

	if err := os.WriteFile(path, []byte(Render(digest)), 0640); err != nil {
		return fmt.Errorf("failed to write digest: %w", err)
	}

	slog.Info("Digest written", "path", path, "total", digest.Total)
	return nil
}
