package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/eventstream/pulse/internal/config"
	"github.com/eventstream/pulse/internal/models"
	"github.com/eventstream/pulse/internal/utils"
)

// MaxImageBytes is the upload limit for message images.
const MaxImageBytes = 5 << 20

var imageExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Uploader stores an object and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Moderator returns the names of moderation labels found in an image.
type Moderator interface {
	Moderate(ctx context.Context, image []byte) ([]string, error)
}

// MediaService validates, moderates and stores message images.
type MediaService struct {
	uploader  Uploader
	moderator Moderator
	messages  *MessageService
}

// NewMediaService creates a MediaService. moderator may be nil to skip moderation.
func NewMediaService(uploader Uploader, moderator Moderator, messages *MessageService) *MediaService {
	return &MediaService{uploader: uploader, moderator: moderator, messages: messages}
}

// Enabled reports whether an uploader is configured.
func (s *MediaService) Enabled() bool {
	return s != nil && s.uploader != nil
}

// DetectImageType sniffs data and returns its content type and file extension.
func DetectImageType(data []byte) (string, string, error) {
	if len(data) == 0 {
		return "", "", invalid("image is empty")
	}
	if len(data) > MaxImageBytes {
		return "", "", invalid("image exceeds %d bytes", MaxImageBytes)
	}
	ct := http.DetectContentType(data)
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = ct[:i]
	}
	ext, ok := imageExtensions[ct]
	if !ok {
		return "", "", invalid("unsupported image type %s", ct)
	}
	return ct, ext, nil
}

// UploadMessageImage stores the image for a message and updates its image_url.
func (s *MediaService) UploadMessageImage(ctx context.Context, messageID int, data []byte) (*models.Message, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("image uploads are not configured: %w", utils.ErrInternal)
	}
	if _, err := s.messages.Get(ctx, messageID); err != nil {
		return nil, err
	}
	ct, ext, err := DetectImageType(data)
	if err != nil {
		return nil, err
	}

	if s.moderator != nil {
		labels, err := s.moderator.Moderate(ctx, data)
		if err != nil {
			log.Error().Err(err).Int("message_id", messageID).Msg("image moderation failed")
			return nil, fmt.Errorf("moderate image: %w", utils.ErrInternal)
		}
		if len(labels) > 0 {
			log.Warn().Int("message_id", messageID).Strs("labels", labels).Msg("image rejected by moderation")
			return nil, invalid("image rejected by moderation (%s)", strings.Join(labels, ", "))
		}
	}

	key := fmt.Sprintf("messages/%d/%s.%s", messageID, uuid.New().String(), ext)
	url, err := s.uploader.Upload(ctx, key, data, ct)
	if err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	return s.messages.SetImageURL(ctx, messageID, url)
}

// rekognitionAPI is the slice of the Rekognition client used for moderation.
type rekognitionAPI interface {
	DetectModerationLabels(ctx context.Context, in *rekognition.DetectModerationLabelsInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectModerationLabelsOutput, error)
}

// RekognitionModerator flags images using AWS Rekognition moderation labels.
type RekognitionModerator struct {
	client        rekognitionAPI
	minConfidence float64
}

// NewRekognitionModerator builds a Rekognition client. Static credentials are
// used when configured, otherwise the default AWS credential chain applies.
func NewRekognitionModerator(ctx context.Context, cfg *config.Config) (*RekognitionModerator, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWS.RekognitionRegion),
	}
	if cfg.AWS.AccessKeyID != "" && cfg.AWS.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWS.AccessKeyID, cfg.AWS.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}
	return &RekognitionModerator{
		client:        rekognition.NewFromConfig(awsCfg),
		minConfidence: cfg.Moderation.MinConfidence,
	}, nil
}

func (m *RekognitionModerator) Moderate(ctx context.Context, image []byte) ([]string, error) {
	out, err := m.client.DetectModerationLabels(ctx, &rekognition.DetectModerationLabelsInput{
		Image:         &types.Image{Bytes: image},
		MinConfidence: aws.Float32(float32(m.minConfidence)),
	})
	if err != nil {
		return nil, err
	}
	var labels []string
	for _, l := range out.ModerationLabels {
		if l.Confidence == nil || float64(*l.Confidence) < m.minConfidence {
			continue
		}
		labels = append(labels, aws.ToString(l.Name))
	}
	return labels, nil
}
