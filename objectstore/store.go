package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/anyproto/any-sync/app"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrPreconditionFailed reports that a conditional Put lost against a
	// concurrent writer.
	ErrPreconditionFailed = errors.New("precondition failed")
)

func New() Store {
	return &store{}
}

const CName = "objectstore"

type Store interface {
	app.Component

	Put(ctx context.Context, key string, reader io.Reader) error
	// PutIfMatch overwrites the object only when its current ETag still
	// equals etag.
	PutIfMatch(ctx context.Context, key string, reader io.Reader, etag string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	// GetWithETag additionally returns the object ETag for later use as a
	// PutIfMatch precondition.
	GetWithETag(ctx context.Context, key string) (io.ReadCloser, string, error)
}

type store struct {
	bucket *string
	client *s3.Client
}

func (s *store) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configSource).GetObjectStore()
	if conf.Bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	awsConf, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}

	// If creds are provided in the configuration, they are directly forwarded to the client as static credentials.
	if conf.Credentials.AccessKey != "" && conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(conf.Credentials.AccessKey, conf.Credentials.SecretKey, "")
	}
	awsConf.Region = conf.Region
	s.bucket = aws.String(conf.Bucket)
	s.client = s3.NewFromConfig(awsConf)
	return nil
}

func (s *store) Name() string {
	return CName
}

func (s *store) Put(ctx context.Context, key string, reader io.Reader) error {
	input := &s3.PutObjectInput{
		Bucket: s.bucket,
		Key:    &key,
		Body:   reader,
	}
	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		return err
	}
	return nil
}

func (s *store) PutIfMatch(ctx context.Context, key string, reader io.Reader, etag string) error {
	input := &s3.PutObjectInput{
		Bucket:  s.bucket,
		Key:     &key,
		Body:    reader,
		IfMatch: &etag,
	}
	_, err := s.client.PutObject(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "PreconditionFailed" {
			return ErrPreconditionFailed
		}
		return err
	}
	return nil
}

func (s *store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	body, _, err := s.GetWithETag(ctx, key)
	return body, err
}

func (s *store) GetWithETag(ctx context.Context, key string) (io.ReadCloser, string, error) {
	input := &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    &key,
	}
	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		var notFound *types.NoSuchKey
		if ok := errors.As(err, &notFound); ok {
			return nil, "", ErrNotFound
		} else {
			return nil, "", err
		}
	}
	return output.Body, aws.ToString(output.ETag), nil
}
