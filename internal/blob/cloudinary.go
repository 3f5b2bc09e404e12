package blob

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"go.uber.org/zap"
)

// CloudinaryConfig holds the credentials of a Cloudinary account.
type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Cloudinary stores objects as Cloudinary image assets.
type Cloudinary struct {
	client *cloudinary.Cloudinary
	folder string
	logger *zap.Logger
}

// NewCloudinary constructs a Cloudinary-backed store.
func NewCloudinary(cfg CloudinaryConfig, logger *zap.Logger) (*Cloudinary, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}
	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("initialize cloudinary: %w", err)
	}
	return &Cloudinary{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.Named("cloudinary"),
	}, nil
}

// publicID maps a key to an asset id: the folder plus the key without extension.
func (c *Cloudinary) publicID(key string) string {
	id := strings.TrimSuffix(key, path.Ext(key))
	if c.folder == "" {
		return id
	}
	return c.folder + "/" + id
}

// Put implements Store.
func (c *Cloudinary) Put(ctx context.Context, key, _ string, r io.Reader) (string, error) {
	if key == "" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	overwrite := true
	result, err := c.client.Upload.Upload(ctx, r, uploader.UploadParams{
		PublicID:     c.publicID(key),
		ResourceType: "image",
		Overwrite:    &overwrite,
	})
	if err != nil {
		return "", fmt.Errorf("upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload asset: %s", result.Error.Message)
	}
	c.logger.Info("photo uploaded", zap.String("public_id", result.PublicID))
	return result.SecureURL, nil
}

// Delete implements Store.
func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	result, err := c.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     c.publicID(key),
		ResourceType: "image",
	})
	if err != nil {
		return fmt.Errorf("destroy asset: %w", err)
	}
	c.logger.Info("photo deleted", zap.String("public_id", c.publicID(key)), zap.String("result", result.Result))
	return nil
}
