package gelqc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/carbocation/pfx"
	"google.golang.org/api/option"
)

// Opener opens local files and Google Storage or S3 objects by path. Cloud
// clients are built on first use with default credentials, so purely local
// runs never touch the network.
type Opener struct {
	// S3Region overrides the region from the AWS environment.
	S3Region string
	// GCSCredentials is a service account key file. When empty, Application
	// Default Credentials are used.
	GCSCredentials string

	mu  sync.Mutex
	gcs *storage.Client
	s3  *s3.Client
}

// SplitBucketPath splits gs://bucket/key or s3://bucket/key.
func SplitBucketPath(path string) (scheme, bucket, key string, err error) {
	for _, prefix := range []string{"gs://", "s3://"} {
		if !strings.HasPrefix(path, prefix) {
			continue
		}

		pathParts := strings.SplitN(strings.TrimPrefix(path, prefix), "/", 2)
		if len(pathParts) != 2 || pathParts[0] == "" || pathParts[1] == "" {
			return "", "", "", fmt.Errorf("Tried to split your bucket path into 2 parts, but got %d: %v", len(pathParts), pathParts)
		}

		return strings.TrimSuffix(prefix, "://"), pathParts[0], pathParts[1], nil
	}

	return "", "", "", fmt.Errorf("%s is not a gs:// or s3:// path", path)
}

// IsRemote reports whether path names a cloud object.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://")
}

// Open returns a reader for path, which may be local (with ~/ expansion),
// gs:// or s3://.
func (o *Opener) Open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !IsRemote(path) {
		local, err := ExpandHome(path)
		if err != nil {
			return nil, err
		}
		// *PathError already names the file.
		f, err := os.Open(local)
		if err != nil {
			return nil, err
		}
		return f, nil
	}

	scheme, bucket, key, err := SplitBucketPath(path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	if scheme == "gs" {
		client, err := o.gcsClient(ctx)
		if err != nil {
			return nil, err
		}
		rdr, err := client.Bucket(bucket).Object(key).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
		}
		return rdr, nil
	}

	client, err := o.s3Client(ctx)
	if err != nil {
		return nil, err
	}
	out, err := client.GetObject(ctx, &s3.GetObjectInput{Bucket: aws.String(bucket), Key: aws.String(key)})
	if err != nil {
		return nil, pfx.Err(fmt.Errorf("%s: %s", path, err))
	}

	return out.Body, nil
}

// Close releases any cloud clients.
func (o *Opener) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gcs != nil {
		err := o.gcs.Close()
		o.gcs = nil
		return err
	}

	return nil
}

func (o *Opener) gcsClient(ctx context.Context) (*storage.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.gcs == nil {
		var opts []option.ClientOption
		if o.GCSCredentials != "" {
			opts = append(opts, option.WithCredentialsFile(o.GCSCredentials))
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, pfx.Err(err)
		}
		o.gcs = client
	}

	return o.gcs, nil
}

func (o *Opener) s3Client(ctx context.Context) (*s3.Client, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.s3 == nil {
		var loadOpts []func(*config.LoadOptions) error
		if o.S3Region != "" {
			loadOpts = append(loadOpts, config.WithRegion(o.S3Region))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, pfx.Err(err)
		}
		o.s3 = s3.NewFromConfig(awsCfg)
	}

	return o.s3, nil
}
