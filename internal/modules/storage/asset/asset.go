// Package asset maps image asset references onto URLs and stores uploads.
//
// References follow the "image-<hash>-<width>x<height>-<ext>" convention and
// live in object storage under "<hash>-<width>x<height>.<ext>".
package asset

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/healthlearn/site/internal/config"
	"github.com/healthlearn/site/internal/models"
	"go.uber.org/zap"
)

const refPrefix = "image-"

// ErrStorageDisabled is returned by Upload when no bucket is configured.
var ErrStorageDisabled = errors.New("asset storage is not configured")

// Info is a parsed asset reference.
type Info struct {
	Ref    string
	Hash   string
	Width  int
	Height int
	Ext    string
}

// Key is the object storage key for the asset.
func (i Info) Key() string {
	return fmt.Sprintf("%s-%dx%d.%s", i.Hash, i.Width, i.Height, i.Ext)
}

// ParseRef parses an image asset reference.
func ParseRef(ref string) (Info, bool) {
	ref = strings.TrimSpace(ref)
	if !strings.HasPrefix(ref, refPrefix) {
		return Info{}, false
	}
	parts := strings.Split(strings.TrimPrefix(ref, refPrefix), "-")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Info{}, false
	}
	w, h, ok := parseDimensions(parts[1])
	if !ok {
		return Info{}, false
	}
	return Info{Ref: ref, Hash: parts[0], Width: w, Height: h, Ext: parts[2]}, true
}

func parseDimensions(s string) (int, int, bool) {
	ws, hs, found := strings.Cut(s, "x")
	if !found {
		return 0, 0, false
	}
	w, err := strconv.Atoi(ws)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(hs)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return w, h, true
}

// Image is a resolved image ready for rendering.
type Image struct {
	URL    string `json:"url"`
	Alt    string `json:"alt,omitempty"`
	Width  int    `json:"width,omitempty"`
	Height int    `json:"height,omitempty"`
}

// Resolver turns asset references into URLs.
type Resolver struct {
	publicBase string
	bucket     string
	ttl        time.Duration
	client     *s3.Client
	presign    *s3.PresignClient
	logger     *zap.Logger
}

// NewResolver builds a resolver from the assets config. S3 is optional.
func NewResolver(cfg config.AssetsConfig, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Resolver{
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
		bucket:     strings.TrimSpace(cfg.S3.Bucket),
		ttl:        cfg.S3.PresignTTL,
		logger:     logger,
	}
	if cfg.S3.Enabled() {
		r.client = newS3Client(cfg.S3)
		r.presign = s3.NewPresignClient(r.client)
	}
	return r
}

func newS3Client(cfg config.S3Config) *s3.Client {
	opts := s3.Options{
		Region:       strings.TrimSpace(cfg.Region),
		UsePathStyle: cfg.PathStyle,
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		)
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
		if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
			endpoint = "https://" + endpoint
		}
		opts.BaseEndpoint = aws.String(strings.TrimRight(endpoint, "/"))
	}
	return s3.New(opts)
}

// URL returns a URL for ref, or "" when ref is malformed or no backend can
// serve it.
func (r *Resolver) URL(ctx context.Context, ref string) string {
	info, ok := ParseRef(ref)
	if !ok {
		return ""
	}
	if r.publicBase != "" {
		return r.publicBase + "/" + info.Key()
	}
	if r.presign == nil {
		return ""
	}
	req, err := r.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(info.Key()),
	}, s3.WithPresignExpires(r.ttl))
	if err != nil {
		r.logger.Warn("presign asset failed", zap.String("ref", ref), zap.Error(err))
		return ""
	}
	return req.URL
}

// Resolve maps an image field onto a renderable Image. A field without an
// asset, or whose asset has no URL, resolves to nil.
func (r *Resolver) Resolve(ctx context.Context, img *models.Image) *Image {
	if !img.HasAsset() {
		return nil
	}
	return r.ResolveRef(ctx, img.Asset.Ref, img.Alt)
}

// ResolveRef is Resolve for a bare reference.
func (r *Resolver) ResolveRef(ctx context.Context, ref, alt string) *Image {
	url := r.URL(ctx, ref)
	if url == "" {
		return nil
	}
	info, _ := ParseRef(ref)
	return &Image{URL: url, Alt: alt, Width: info.Width, Height: info.Height}
}

// Upload stores an image and returns its reference info.
func (r *Resolver) Upload(ctx context.Context, data []byte, contentType string) (Info, error) {
	if r.client == nil {
		return Info{}, ErrStorageDisabled
	}
	info, err := Describe(data)
	if err != nil {
		return Info{}, err
	}
	if contentType == "" {
		contentType = "image/" + strings.Replace(info.Ext, "jpg", "jpeg", 1)
	}
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(info.Key()),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Info{}, fmt.Errorf("put object %s: %w", info.Key(), err)
	}
	return info, nil
}

// Describe derives the reference of an image payload from its content hash
// and decoded dimensions.
func Describe(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image: %w", err)
	}
	sum := sha1.Sum(data)
	ext := format
	if ext == "jpeg" {
		ext = "jpg"
	}
	info := Info{
		Hash:   hex.EncodeToString(sum[:]),
		Width:  cfg.Width,
		Height: cfg.Height,
		Ext:    ext,
	}
	info.Ref = fmt.Sprintf("%s%s-%dx%d-%s", refPrefix, info.Hash, info.Width, info.Height, info.Ext)
	return info, nil
}
