package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/cup-manager/models"
	"github.com/Dosada05/cup-manager/storage"
)

// --- Общие хелперы ---

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func validateEventDates(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return ErrInvalidDateRange
	}
	return nil
}

func validateScores(scores ...*int) error {
	for _, s := range scores {
		if s != nil && *s < 0 {
			return ErrInvalidScore
		}
	}
	return nil
}

func validateWinner(match *models.Match, winnerUserID *int) error {
	if winnerUserID != nil && !match.HasParticipant(*winnerUserID) {
		return ErrWinnerNotParticipant
	}
	return nil
}

// --- URL файлов матча ---

func publicURLOrNil(key *string, uploader storage.FileUploader) *string {
	if key == nil || *key == "" || uploader == nil {
		return nil
	}
	url := uploader.GetPublicURL(*key)
	if url == "" {
		return nil
	}
	return &url
}

func populateMatchFileURLsFunc(match *models.Match, uploader storage.FileUploader) {
	if match == nil {
		return
	}
	match.User1ScreenshotURL = publicURLOrNil(match.User1ScreenshotKey, uploader)
	match.User1TacticsURL = publicURLOrNil(match.User1TacticsKey, uploader)
	match.User2ScreenshotURL = publicURLOrNil(match.User2ScreenshotKey, uploader)
	match.User2TacticsURL = publicURLOrNil(match.User2TacticsKey, uploader)
}

// deleteStoredFilesFunc удаляет объекты параллельно, ошибки только логируются.
func deleteStoredFilesFunc(ctx context.Context, uploader storage.FileUploader, keys []string, logger *slog.Logger) {
	if uploader == nil || len(keys) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(4)
	for _, key := range keys {
		key := key
		g.Go(func() error {
			if err := uploader.Delete(ctx, key); err != nil {
				logger.WarnContext(ctx, "Failed to delete stored file", slog.String("key", key), slog.Any("error", err))
			}
			return nil
		})
	}
	_ = g.Wait()
}
