// Package uploadsvc stores user-uploaded files (assignment attachments,
// submission files, course thumbnails).
package uploadsvc

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/pkg/errors"

	"github.com/chendurkumaran/eduresource/core"
)

type s3Storage struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

var _ core.FileStorage = (*s3Storage)(nil)

// NewS3Storage builds a FileStorage backed by S3 or any S3-compatible service
// when conf.Upload.Endpoint points at one (MinIO in development).
func NewS3Storage(ctx context.Context, conf *core.Config) (*s3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(conf.Upload.Region))
	if err != nil {
		return nil, errors.Wrap(err, "loading AWS config")
	}

	var opts []func(*s3.Options)
	if conf.Upload.Endpoint != "" {
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(conf.Upload.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, opts...)
	return &s3Storage{
		client:   client,
		uploader: manager.NewUploader(client),
		bucket:   conf.Upload.Bucket,
	}, nil
}

func (st *s3Storage) Save(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	out, err := st.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(st.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", errors.Wrapf(err, "uploading %s", key)
	}
	if out.Location != "" {
		return out.Location, nil
	}
	return fmt.Sprintf("s3://%s/%s", st.bucket, key), nil
}

func (st *s3Storage) Delete(ctx context.Context, key string) error {
	key = strings.TrimPrefix(key, "/")
	_, err := st.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(st.bucket),
		Key:    aws.String(key),
	})
	return errors.Wrapf(err, "deleting %s", key)
}
