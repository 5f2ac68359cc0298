package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"time"

	"github.com/Houman6460/fooodis-blog-sub005/internal/models"
	"github.com/Houman6460/fooodis-blog-sub005/internal/repository"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

const maxImageSize = 10 << 20

var allowedImageTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {},
}

type MediaService interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error)
	List(ctx context.Context, limit int) ([]*models.MediaAsset, error)
}

type mediaService struct {
	ma      repository.MediaAssetRepository
	storage ObjectStorage
	clock   func() time.Time
}

func NewMediaService(ma repository.MediaAssetRepository, storage ObjectStorage) MediaService {
	return &mediaService{
		ma:      ma,
		storage: storage,
		clock:   time.Now,
	}
}

func (s *mediaService) Upload(ctx context.Context, file *multipart.FileHeader) (*models.MediaAsset, error) {
	if file == nil {
		return nil, invalid("No file provided")
	}
	if file.Size > maxImageSize {
		return nil, invalid("File exceeds %d MB", maxImageSize>>20)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxImageSize+1))
	if err != nil {
		return nil, fmt.Errorf("error reading file content: %w", err)
	}
	if len(data) > maxImageSize {
		return nil, invalid("File exceeds %d MB", maxImageSize>>20)
	}

	kind, err := filetype.Match(data)
	if err != nil || kind == types.Unknown {
		return nil, invalid("Unsupported file type")
	}
	if _, ok := allowedImageTypes[kind.Extension]; !ok {
		return nil, invalid("File type %s is not allowed", kind.Extension)
	}

	img, err := processImage(data, kind.MIME.Value, kind.Extension)
	if err != nil {
		return nil, err
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := id + "." + img.ext

	url, err := s.storage.Upload(ctx, key, img.data, img.mimeType)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	asset := &models.MediaAsset{
		ID:        id,
		FileName:  key,
		FileType:  img.mimeType,
		FileSize:  int64(len(img.data)),
		FileURL:   url,
		Width:     img.width,
		Height:    img.height,
		CreatedAt: s.clock().UnixMilli(),
	}
	if err := s.ma.Create(ctx, asset); err != nil {
		return nil, fmt.Errorf("error saving media asset: %w", err)
	}
	return asset, nil
}

func (s *mediaService) List(ctx context.Context, limit int) ([]*models.MediaAsset, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	assets, err := s.ma.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list media assets: %w", err)
	}
	return assets, nil
}
