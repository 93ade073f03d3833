package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	gonanoid "github.com/matoous/go-nanoid/v2"

	cfg "github.com/sambecker/postdeck/configs"
	"github.com/sambecker/postdeck/internal/models"
	"github.com/sambecker/postdeck/internal/repository"
	"github.com/sambecker/postdeck/pkg/imaging"
)

// AssetService archives original image bytes to R2 so the data-URI payload
// carried on posts and drafts isn't the only copy.
type AssetService struct {
	config cfg.Config
	ma     repository.MediaAssetRepository
}

func NewAssetService(cfg cfg.Config, ma repository.MediaAssetRepository) *AssetService {
	return &AssetService{config: cfg, ma: ma}
}

func (r *AssetService) r2Client() (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(r.config.R2.AccessKey, r.config.R2.SecretKey, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", r.config.R2.AccountID))
	}), nil
}

// ArchiveImage uploads the payload under a fresh nanoid key and records an
// asset row pointing at it.
func (r *AssetService) ArchiveImage(ctx context.Context, userID int64, payload *imaging.Payload) (*models.MediaAsset, error) {
	if payload == nil {
		return nil, nil
	}

	key, err := gonanoid.New()
	if err != nil {
		return nil, err
	}

	client, err := r.r2Client()
	if err != nil {
		return nil, err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.config.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(payload.Data),
		ContentType: aws.String(payload.MIME),
	}
	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	asset := &models.MediaAsset{
		UserID:   userID,
		FileName: key,
		FileType: payload.MIME,
		FileSize: int64(len(payload.Data)),
		FileURL:  fmt.Sprintf("https://%s.r2.dev/%s", r.config.R2.BucketName, key),
	}
	id, err := r.ma.Create(ctx, asset)
	if err != nil {
		return nil, err
	}
	asset.ID = id

	return asset, nil
}
