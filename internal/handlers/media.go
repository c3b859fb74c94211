package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/AnshRaj112/kavyalok-backend/internal/logger"
	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/AnshRaj112/kavyalok-backend/internal/services"
	"github.com/AnshRaj112/kavyalok-backend/pkg/utils"
	"github.com/pkg/errors"
)

// MediaStore uploads and removes Cloudinary assets.
type MediaStore interface {
	Upload(ctx context.Context, kind services.MediaKind, data []byte) (models.Media, error)
	Destroy(ctx context.Context, asset models.Media) error
	DestroyAll(ctx context.Context, assets []models.Media) error
}

// cleanupTimeout bounds asset removal, which runs detached from the request
// deadline so an expired upload context still gets its orphans removed.
const cleanupTimeout = 30 * time.Second

var errMediaDisabled = utils.NewValidationError("media", "Media uploads are not configured")

// pendingFile is a validated upload waiting to be sent.
type pendingFile struct {
	field string
	kind  services.MediaKind
	data  []byte
}

var formatHints = map[services.MediaKind]string{
	services.MediaImage: "Invalid image format. Allowed: jpg, jpeg, png, webp",
	services.MediaAudio: "Invalid audio format. Allowed: mp3, wav",
	services.MediaVideo: "Invalid video format. Allowed: mp4, mkv",
}

// collectFiles reads and sniffs the named multipart fields. Each field must
// hold content of the kind it is mapped to. Nothing is uploaded yet.
func collectFiles(r *http.Request, fields map[string]services.MediaKind, maxBytes int64) ([]pendingFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	var out []pendingFile
	for _, field := range []string{"image", "audio", "video", "avatar"} {
		want, ok := fields[field]
		if !ok {
			continue
		}
		headers := r.MultipartForm.File[field]
		if len(headers) == 0 {
			continue
		}
		data, err := services.ReadUpload(headers[0], maxBytes)
		if err != nil {
			return nil, utils.NewValidationError(field, "Could not read "+field+": file too large or unreadable")
		}
		kind, _, err := services.DetectMediaKind(data)
		if err != nil || kind != want {
			return nil, utils.NewValidationError(field, formatHints[want])
		}
		out = append(out, pendingFile{field: field, kind: kind, data: data})
	}
	return out, nil
}

// uploadAll sends the files one after another. If one fails, the assets
// already uploaded are destroyed before the error is returned.
func uploadAll(ctx context.Context, media MediaStore, files []pendingFile) (map[string]models.Media, error) {
	uploaded := make(map[string]models.Media, len(files))
	if len(files) == 0 {
		return uploaded, nil
	}
	if media == nil {
		return nil, errMediaDisabled
	}
	for _, f := range files {
		asset, err := media.Upload(ctx, f.kind, f.data)
		if err != nil {
			compensate(ctx, media, uploaded)
			return nil, errors.Wrapf(err, "upload %s", f.field)
		}
		uploaded[f.field] = asset
	}
	return uploaded, nil
}

// compensate removes assets whose owning write did not happen.
func compensate(ctx context.Context, media MediaStore, uploaded map[string]models.Media) {
	if media == nil || len(uploaded) == 0 {
		return
	}
	assets := make([]models.Media, 0, len(uploaded))
	for _, a := range uploaded {
		assets = append(assets, a)
	}
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := media.DestroyAll(ctx, assets); err != nil {
		logger.FromContext(ctx).WithError(err).Error("failed to clean up orphaned uploads")
	}
}

// destroyLater removes replaced or orphaned assets without failing the request.
func destroyLater(ctx context.Context, media MediaStore, assets []models.Media) {
	if media == nil || len(assets) == 0 {
		return
	}
	ctx, cancel := cleanupContext(ctx)
	defer cancel()
	if err := media.DestroyAll(ctx, assets); err != nil {
		logger.FromContext(ctx).WithError(err).Warn("failed to destroy media assets")
	}
}

func cleanupContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
}

func mediaPtr(uploaded map[string]models.Media, field string) *models.Media {
	if m, ok := uploaded[field]; ok {
		return &m
	}
	return nil
}
