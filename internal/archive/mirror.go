// Package archive copies successfully uploaded originals to S3.
package archive

import (
	"context"
	"fmt"
	"os"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// appTagging is the URL-encoded S3 object tagging string applied to every
// archived object.
const appTagging = "Application=photo-uploader"

// PutObjectAPI is the subset of the S3 client the mirror needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Item is one file to archive.
type Item struct {
	Path        string
	DisplayName string
	MIMEType    string
	TakenAt     time.Time
	AlbumID     string
}

// Mirror writes originals to bucket under prefix/YYYY/MM/DD/name.
type Mirror struct {
	client PutObjectAPI
	bucket string
	prefix string
}

// NewMirror returns a Mirror. A nil *Mirror is valid and archives nothing.
func NewMirror(client PutObjectAPI, bucket, prefix string) *Mirror {
	return &Mirror{client: client, bucket: bucket, prefix: prefix}
}

// Key returns the object key for item.
func (m *Mirror) Key(item Item) string {
	taken := item.TakenAt
	if taken.IsZero() {
		taken = time.Now()
	}
	return path.Join(m.prefix, taken.UTC().Format("2006/01/02"), item.DisplayName)
}

// Put uploads item and returns its key. A nil Mirror returns "", nil.
func (m *Mirror) Put(ctx context.Context, item Item) (string, error) {
	if m == nil {
		return "", nil
	}

	f, err := os.Open(item.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", item.Path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", item.Path, err)
	}

	key := m.Key(item)
	in := &s3.PutObjectInput{
		Bucket:        aws.String(m.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		Tagging:       aws.String(appTagging),
		Metadata:      map[string]string{"album-id": item.AlbumID},
	}
	if item.MIMEType != "" {
		in.ContentType = aws.String(item.MIMEType)
	}

	start := time.Now()
	if _, err := m.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("failed to archive to s3://%s/%s: %w", m.bucket, key, err)
	}

	log.Info().
		Str("bucket", m.bucket).
		Str("key", key).
		Int64("bytes", info.Size()).
		Dur("duration", time.Since(start)).
		Msg("Original archived to S3")
	return key, nil
}
