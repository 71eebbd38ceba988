package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"

	"github.com/OFFIS-RIT/kgraph/pkg/loader"
	"github.com/OFFIS-RIT/kgraph/pkg/logger"
)

// ObjectAPI is the subset of the S3 client used by the loader.
type ObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Loader loads documents stored below a key prefix of an S3 bucket.
//
// Object contents are cached only while a Load of their prefix is running, so
// overlapping loads of one prefix download each object once and a long lived
// loader holds no bodies between jobs.
type S3Loader struct {
	bucket string
	client ObjectAPI

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewS3LoaderWithClient creates a new S3Loader using an existing client. This
// is useful to share a preconfigured client with the upload side.
func NewS3LoaderWithClient(bucket string, client ObjectAPI) *S3Loader {
	return &S3Loader{
		bucket: bucket,
		client: client,
		cache:  make(map[string][]byte),
	}
}

// NewS3LoaderParams defines the configuration parameters for creating a new
// S3Loader.
//
// Endpoint allows overriding the S3 endpoint (useful for S3-compatible
// storage like MinIO).
type NewS3LoaderParams struct {
	Bucket    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Loader creates a new S3Loader with static credentials.
//
// Example:
//
//	l, err := s3.NewS3Loader(ctx, s3.NewS3LoaderParams{
//		Bucket:    "kgraph",
//		Endpoint:  "http://localhost:9000",
//		Region:    "us-east-1",
//		AccessKey: accessKey,
//		SecretKey: secretKey,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	docs, skipped, err := l.Load(ctx, "uploads/job-1/")
func NewS3Loader(ctx context.Context, params NewS3LoaderParams) (*S3Loader, error) {
	cfg, err := config.LoadDefaultConfig(
		ctx,
		config.WithRegion(params.Region),
		config.WithBaseEndpoint(params.Endpoint),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			params.AccessKey,
			params.SecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return NewS3LoaderWithClient(params.Bucket, client), nil
}

// Load reads every supported object below prefix. Filenames are the key
// without the prefix; documents are ordered by filename. Objects that cannot
// be downloaded are logged and returned as skipped.
func (l *S3Loader) Load(ctx context.Context, prefix string) ([]loader.Document, []loader.SkippedFile, error) {
	keys, err := l.list(ctx, prefix)
	if err != nil {
		return nil, nil, err
	}
	defer l.evict(keys)

	var (
		docs    = make([]loader.Document, 0, len(keys))
		skipped []loader.SkippedFile
	)
	for _, key := range keys {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := strings.TrimPrefix(strings.TrimPrefix(key, prefix), "/")
		if name == "" {
			name = path.Base(key)
		}
		content, err := l.get(ctx, key)
		if err != nil {
			logger.Warn("[Loader] Skipping unreadable object", "key", key, "err", err)
			skipped = append(skipped, loader.SkippedFile{Filename: name, Err: err})
			continue
		}
		docs = append(docs, loader.NewDocument(name, content))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Filename < docs[j].Filename })
	return docs, skipped, nil
}

// evict drops the cached bodies of keys.
func (l *S3Loader) evict(keys []string) {
	l.cacheMu.Lock()
	defer l.cacheMu.Unlock()
	for _, key := range keys {
		delete(l.cache, key)
	}
}

func (l *S3Loader) list(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(l.bucket),
		Prefix: aws.String(prefix),
	}
	for {
		out, err := l.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects with prefix %s: %w", prefix, err)
		}
		for _, obj := range out.Contents {
			if obj.Key != nil && loader.IsSupported(*obj.Key) {
				keys = append(keys, *obj.Key)
			}
		}
		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		input.ContinuationToken = out.NextContinuationToken
	}
	return keys, nil
}

func (l *S3Loader) get(ctx context.Context, key string) ([]byte, error) {
	l.cacheMu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(key, func() (any, error) {
		out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(l.bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get %s: %w", key, err)
		}
		defer out.Body.Close()

		buf := new(bytes.Buffer)
		if _, err := io.Copy(buf, out.Body); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", key, err)
		}
		b := buf.Bytes()

		l.cacheMu.Lock()
		l.cache[key] = b
		l.cacheMu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
