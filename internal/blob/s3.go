package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures the S3 driver. Endpoint and PathStyle are for MinIO
// and other S3-compatible servers; empty keys use the default AWS
// credential chain.
type S3Config struct {
	Bucket          string `koanf:"bucket" yaml:"bucket"`
	Region          string `koanf:"region" yaml:"region"`
	Endpoint        string `koanf:"endpoint" yaml:"endpoint,omitempty"`
	PathStyle       bool   `koanf:"path_style" yaml:"path_style"`
	AccessKeyID     string `koanf:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `koanf:"secret_access_key" yaml:"secret_access_key,omitempty"`
}

// S3 stores blobs as objects in a single bucket.
type S3 struct {
	client *s3.Client
	bucket string
}

// NewS3 creates an S3 store.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.PathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) Driver() Driver { return DriverS3 }

func (s *S3) Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, err
	}
	// The SDK needs a seekable body to compute the payload hash, so small
	// artifacts are buffered.
	data, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("reading blob body: %w", err)
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Info{}, fmt.Errorf("putting %s: %w", key, err)
	}
	return Info{Key: key, Size: int64(len(data)), ContentType: contentType, LastModified: time.Now().UTC()}, nil
}

func (s *S3) Get(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	key, err := cleanKey(key)
	if err != nil {
		return Info{}, nil, err
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return Info{}, nil, ErrNotFound
		}
		return Info{}, nil, fmt.Errorf("getting %s: %w", key, err)
	}
	info := Info{
		Key:          key,
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
	}
	return info, out.Body, nil
}

func (s *S3) Delete(ctx context.Context, key string) (bool, error) {
	key, err := cleanKey(key)
	if err != nil {
		return false, err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(s.bucket), Key: aws.String(key)}); err != nil {
		return false, fmt.Errorf("deleting %s: %w", key, err)
	}
	return true, nil
}

func (s *S3) List(ctx context.Context, prefix string) ([]Info, error) {
	var infos []Info
	p := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			infos = append(infos, Info{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}
