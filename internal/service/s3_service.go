package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/config"
)

const defaultS3Region = "us-east-1"

// S3Service stores message images in a bucket with signed PUTs.
type S3Service struct {
	bucket        string
	region        string
	publicBaseURL string
	creds         aws.Credentials
	signer        *v4.Signer
	httpClient    *http.Client
	now           func() time.Time
	// endpoint overrides the virtual-hosted bucket URL (S3-compatible stores, tests).
	endpoint string
}

func NewS3Service(cfg *config.S3Config) (*S3Service, error) {
	if cfg == nil || !cfg.Enabled() {
		return nil, fmt.Errorf("image bucket and credentials must be configured")
	}
	region := cfg.Region
	if region == "" {
		region = defaultS3Region
	}
	return &S3Service{
		bucket:        cfg.Bucket,
		region:        region,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		creds: aws.Credentials{
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
			Source:          "pulse-config",
		},
		signer:     v4.NewSigner(),
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,
	}, nil
}

// Upload PUTs an image under key and returns the URL clients should load it from.
func (s *S3Service) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, s.objectURL(key), bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("build image upload: %w", err)
	}
	sum := sha256.Sum256(data)
	payloadHash := hex.EncodeToString(sum[:])
	req.ContentLength = int64(len(data))
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", strconv.Itoa(len(data)))
	req.Header.Set("X-Amz-Content-Sha256", payloadHash)

	if err := s.signer.SignHTTP(ctx, s.creds, req, payloadHash, "s3", s.region, s.now().UTC()); err != nil {
		return "", fmt.Errorf("sign image upload: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Str("object_key", key).Msg("image upload request failed")
		return "", fmt.Errorf("upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		log.Error().Str("object_key", key).Int("status", resp.StatusCode).Str("response", string(body)).Msg("bucket rejected image upload")
		return "", fmt.Errorf("image upload rejected (%d): %s", resp.StatusCode, body)
	}

	log.Info().Str("object_key", key).Int("bytes", len(data)).Msg("message image stored")
	return s.GetObjectURL(key), nil
}

func (s *S3Service) objectURL(key string) string {
	if s.endpoint != "" {
		return strings.TrimRight(s.endpoint, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// GetObjectURL prefers the CDN base when one is configured.
func (s *S3Service) GetObjectURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return s.objectURL(key)
}
