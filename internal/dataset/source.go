package dataset

import (
	"context"
	"io"
	"os"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	commonaws "benefits-assistant/internal/common/aws"
)

// Source supplies the raw tabular benefits data at cold start.
type Source interface {
	Fetch(ctx context.Context) (io.ReadCloser, error)
}

// S3Source reads the benefits table from an S3 object.
type S3Source struct {
	Client *commonaws.S3Client
	Bucket string
	Key    string
}

func (s *S3Source) Fetch(ctx context.Context) (io.ReadCloser, error) {
	out, err := s.Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: awssdk.String(s.Bucket),
		Key:    awssdk.String(s.Key),
	})
	if err != nil {
		return nil, err
	}
	return out.Body, nil
}

// FileSource reads the benefits table from a local path. Used by the
// dataset-check tool and in development.
type FileSource struct {
	Path string
}

func (f *FileSource) Fetch(ctx context.Context) (io.ReadCloser, error) {
	return os.Open(f.Path)
}
