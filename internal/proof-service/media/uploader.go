package media

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/accountability-bet-platform/internal/shared/blob"
)

// File é um arquivo de mídia já lido do multipart
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Uploader faz o fan-out dos uploads de mídia de prova para o blob storage.
// Falha individual de arquivo é engolida (logada e tratada como "mídia
// ausente"); quem decide se a submissão inteira falha é o engine, que exige
// pelo menos uma mídia ou uma legenda.
type Uploader struct {
	Log  *zap.Logger
	Blob *blob.Client
	Now  func() time.Time
}

func NewUploader(log *zap.Logger, b *blob.Client) *Uploader {
	return &Uploader{Log: log, Blob: b, Now: time.Now}
}

// Upload envia os arquivos concorrentemente e retorna as URLs públicas dos
// que subiram, na ordem original. Chave do objeto: betID/userID/timestamp-n.ext
func (u *Uploader) Upload(ctx context.Context, betID, userID string, files []File) []string {
	if len(files) == 0 {
		return nil
	}

	ts := u.Now().UnixMilli()
	urls := make([]string, len(files))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			key := fmt.Sprintf("%s/%s/%d-%02d%s", betID, userID, ts, i, safeExt(f.Name))
			if err := u.Blob.Upload(ctx, key, f.Data, f.ContentType); err != nil {
				u.Log.Warn("media upload failed",
					zap.String("betId", betID),
					zap.String("file", f.Name),
					zap.Error(err),
				)
				return nil // best-effort: segue sem este arquivo
			}
			mu.Lock()
			urls[i] = u.Blob.PublicURL(key)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	out := make([]string, 0, len(files))
	for _, url := range urls {
		if url != "" {
			out = append(out, url)
		}
	}
	return out
}

func safeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 8 {
		return ""
	}
	return ext
}
