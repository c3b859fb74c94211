package services

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/AnshRaj112/kavyalok-backend/internal/models"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaAudio MediaKind = "audio"
	MediaVideo MediaKind = "video"
)

var ErrUnsupportedMedia = errors.New("unsupported media type")

var acceptedMIME = map[MediaKind][]string{
	MediaImage: {"image/jpeg", "image/png", "image/webp"},
	MediaAudio: {"audio/mpeg", "audio/wav"},
	MediaVideo: {"video/mp4", "video/x-matroska"},
}

// Folder returns the Cloudinary sub-folder for the kind.
func (k MediaKind) Folder() string {
	switch k {
	case MediaImage:
		return "images"
	case MediaAudio:
		return "audio"
	}
	return "videos"
}

// ResourceType is the Cloudinary resource type. Cloudinary files audio under "video".
func (k MediaKind) ResourceType() string {
	if k == MediaImage {
		return "image"
	}
	return "video"
}

// DetectMediaKind sniffs the content and returns its kind and MIME type.
func DetectMediaKind(data []byte) (MediaKind, string, error) {
	m := mimetype.Detect(data)
	for kind, types := range acceptedMIME {
		for _, t := range types {
			if m.Is(t) {
				return kind, m.String(), nil
			}
		}
	}
	return "", m.String(), errors.Wrap(ErrUnsupportedMedia, m.String())
}

type CloudinaryService struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinaryService(cloudName, apiKey, apiSecret, folder string) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloudinary: %w", err)
	}
	cld.Config.URL.Secure = true

	return &CloudinaryService{
		cld:    cld,
		folder: strings.Trim(folder, "/"),
	}, nil
}

// Upload stores data under <folder>/<kind folder> and returns the asset reference.
func (s *CloudinaryService) Upload(ctx context.Context, kind MediaKind, data []byte) (models.Media, error) {
	uploadResult, err := s.cld.Upload.Upload(ctx, data, uploader.UploadParams{
		Folder:       s.folder + "/" + kind.Folder(),
		ResourceType: kind.ResourceType(),
	})
	if err != nil {
		return models.Media{}, fmt.Errorf("failed to upload to Cloudinary: %w", err)
	}
	if uploadResult.Error.Message != "" {
		return models.Media{}, fmt.Errorf("cloudinary rejected upload: %s", uploadResult.Error.Message)
	}

	return models.Media{URL: uploadResult.SecureURL, PublicID: uploadResult.PublicID}, nil
}

// Destroy removes one asset. The resource type is recovered from the folder
// the asset was uploaded into.
func (s *CloudinaryService) Destroy(ctx context.Context, asset models.Media) error {
	if asset.PublicID == "" {
		return nil
	}
	_, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     asset.PublicID,
		ResourceType: ResourceTypeForPublicID(asset.PublicID),
	})
	if err != nil {
		return errors.Wrapf(err, "destroy %s", asset.PublicID)
	}
	return nil
}

// DestroyAll removes every asset and reports all failures together.
func (s *CloudinaryService) DestroyAll(ctx context.Context, assets []models.Media) error {
	var err error
	for _, a := range assets {
		err = multierr.Append(err, s.Destroy(ctx, a))
	}
	return err
}

func ResourceTypeForPublicID(publicID string) string {
	if strings.Contains(publicID, "/"+MediaVideo.Folder()+"/") || strings.Contains(publicID, "/"+MediaAudio.Folder()+"/") {
		return "video"
	}
	return "image"
}

// ReadUpload reads a multipart file, refusing anything above maxBytes.
func ReadUpload(fileHeader *multipart.FileHeader, maxBytes int64) ([]byte, error) {
	if maxBytes > 0 && fileHeader.Size > maxBytes {
		return nil, errors.Errorf("file %s exceeds %d bytes", fileHeader.Filename, maxBytes)
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return io.ReadAll(file)
}
