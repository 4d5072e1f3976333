package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/pomyannik/pomyannik/pkg/pool"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

// DownloadResult describes one saved card image.
type DownloadResult struct {
	CardID int
	Path   string
	Bytes  int64
}

// ImageURL returns the absolute address of a card image.
func (e *Executor) ImageURL(filePath string) (string, error) {
	if strings.TrimSpace(filePath) == "" {
		return "", fmt.Errorf("card has no image")
	}
	return e.ResolveURL(filePath)
}

func ensureDirExists(dir string) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("path %s exists but is not a directory", dir)
		}
		return nil
	}
	if os.IsNotExist(err) {
		log.Info().Msgf("Creating directory: %s", dir)
		return os.MkdirAll(dir, 0o755)
	}
	return err
}

// SanitizePath turns a folder name into a safe directory name.
func SanitizePath(name string) string {
	replacements := []struct {
		old string
		new string
	}{
		{"/", "-"}, {"\\", "-"}, {":", ""}, {" ", "-"}, {"(", ""}, {")", ""}, {"..", ""},
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range replacements {
		name = strings.ReplaceAll(name, r.old, r.new)
	}
	if name == "" {
		name = "folder"
	}
	return name
}

// imageFileName names the local copy of a card image after the card id and the
// server-side file name.
func imageFileName(card Card) string {
	base := path.Base(strings.ReplaceAll(card.FilePath, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "image"
	}
	return fmt.Sprintf("%d_%s", card.ID, base)
}

// DownloadCardImages saves the image of every card into dir using numWorkers
// concurrent downloads. Cards without an image are skipped. Failures of single
// cards do not stop the others; they are joined into the returned error.
func DownloadCardImages(ctx context.Context, exec *Executor, cards []Card, dir string, numWorkers int, progressWriter io.Writer) ([]DownloadResult, error) {
	if err := ensureDirExists(dir); err != nil {
		return nil, fmt.Errorf("failed to prepare %s: %w", dir, err)
	}

	var withImage []Card
	for _, c := range cards {
		if strings.TrimSpace(c.FilePath) != "" {
			withImage = append(withImage, c)
		}
	}
	if len(withImage) == 0 {
		return nil, nil
	}

	if progressWriter == nil {
		progressWriter = io.Discard
	}
	bar := progressbar.NewOptions(len(withImage),
		progressbar.OptionSetDescription("Downloading images"),
		progressbar.OptionSetWriter(progressWriter),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)

	var (
		mu      sync.Mutex
		results []DownloadResult
	)
	errs := pool.Run(ctx, withImage, numWorkers, func(ctx context.Context, card Card) error {
		res, err := downloadCardImage(ctx, exec, card, dir)
		_ = bar.Add(1)
		if err != nil {
			log.Error().Err(err).Int("card_id", card.ID).Msg("Failed to download card image")
			return fmt.Errorf("card %d: %w", card.ID, err)
		}
		mu.Lock()
		results = append(results, res)
		mu.Unlock()
		return nil
	})
	_ = bar.Finish()

	if err := ctx.Err(); err != nil {
		errs = append(errs, err)
	}
	return results, errors.Join(errs...)
}

func downloadCardImage(ctx context.Context, exec *Executor, card Card, dir string) (DownloadResult, error) {
	target := filepath.Join(dir, imageFileName(card))
	file, err := os.Create(target)
	if err != nil {
		return DownloadResult{}, err
	}

	n, err := exec.Fetch(ctx, card.FilePath, file)
	closeErr := file.Close()
	if err != nil {
		_ = os.Remove(target)
		return DownloadResult{}, err
	}
	if closeErr != nil {
		return DownloadResult{}, closeErr
	}
	log.Debug().Int("card_id", card.ID).Str("path", target).Int64("bytes", n).Msg("Saved card image")
	return DownloadResult{CardID: card.ID, Path: target, Bytes: n}, nil
}
