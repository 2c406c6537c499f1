// Package archive writes raw sales uploads to blob storage.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// Archiver stores the verbatim text of an upload and returns the key it was
// written under.
type Archiver interface {
	Archive(ctx context.Context, filename string, body []byte) (string, error)
}

// PutObjectAPI is the subset of the S3 client used by S3Archiver.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archiver writes uploads to an S3 bucket under a timestamp-qualified key.
type S3Archiver struct {
	client PutObjectAPI
	bucket string
	prefix string
	now    func() time.Time
}

// NewS3Archiver builds an archiver from an existing client.
func NewS3Archiver(client PutObjectAPI, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// LoadS3Archiver resolves AWS credentials from the default chain and returns
// an archiver for bucket.
func LoadS3Archiver(ctx context.Context, region, bucket, prefix string) (*S3Archiver, error) {
	awsCfg, err := LoadAWSConfig(ctx, region)
	if err != nil {
		return nil, err
	}
	return NewS3Archiver(s3.NewFromConfig(awsCfg), bucket, prefix), nil
}

// LoadAWSConfig loads the shared AWS configuration with region as the
// fallback region.
func LoadAWSConfig(ctx context.Context, region string) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithDefaultRegion(region))
	if err != nil {
		return aws.Config{}, fmt.Errorf("archive: unable to load AWS SDK config: %w", err)
	}
	return awsCfg, nil
}

// Archive puts body at <prefix><unix-millis>-<filename>.
func (a *S3Archiver) Archive(ctx context.Context, filename string, body []byte) (string, error) {
	key := a.Key(filename)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: put s3://%s/%s: %w", a.bucket, key, err)
	}
	return key, nil
}

// Key returns the object key for filename at the current time. Path
// components in filename are dropped; an empty name is replaced by a uuid.
func (a *S3Archiver) Key(filename string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(filename), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		name = uuid.NewString() + ".csv"
	}
	return a.prefix + strconv.FormatInt(a.now().UnixMilli(), 10) + "-" + name
}

// Nop discards uploads. It is used when no bucket is configured.
type Nop struct{}

func (Nop) Archive(context.Context, string, []byte) (string, error) { return "", nil }
