package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"seminar/internal/config"
	"seminar/internal/models"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// CloudinaryStore keeps room images in Cloudinary. The public id is
// models.ImageObjectID of the key, so room/<id>/<batch>-<n>.png becomes
// room/<id>/<batch>-<n>.
type CloudinaryStore struct {
	cld    *cloudinary.Cloudinary
	logger *zerolog.Logger
}

func NewCloudinaryStore(cfg config.CloudinaryConfig, logger *zerolog.Logger) (*CloudinaryStore, error) {
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init failed: %w", err)
	}
	cld.Config.URL.Secure = true
	return &CloudinaryStore{cld: cld, logger: logger}, nil
}

func (s *CloudinaryStore) Upload(ctx context.Context, key string, data []byte) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     models.ImageObjectID(key),
		ResourceType: "image",
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload %s: %s", key, result.Error.Message)
	}
	return result.SecureURL, nil
}

// Delete destroys every key and reports all failures together.
func (s *CloudinaryStore) Delete(ctx context.Context, keys []string) error {
	var errs []error
	for _, key := range keys {
		result, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{
			PublicID:     models.ImageObjectID(key),
			ResourceType: "image",
		})
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("destroy %s: %w", key, err))
		case result.Error.Message != "":
			errs = append(errs, fmt.Errorf("destroy %s: %s", key, result.Error.Message))
		default:
			s.logger.Debug().Str("key", key).Str("result", result.Result).Msg("image destroyed")
		}
	}
	return errors.Join(errs...)
}
