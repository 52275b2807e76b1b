package share

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bucketServer struct {
	mu      sync.Mutex
	objects map[string]string
	types   map[string]string
}

func (b *bucketServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	body, _ := io.ReadAll(r.Body)
	b.mu.Lock()
	b.objects[r.URL.Path] = string(body)
	b.types[r.URL.Path] = r.Header.Get("Content-Type")
	b.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func TestS3Exporter_UploadsAndLinks(t *testing.T) {
	bucket := &bucketServer{objects: map[string]string{}, types: map[string]string{}}
	srv := httptest.NewServer(bucket)
	defer srv.Close()

	exp, err := NewS3Exporter(context.Background(), Config{
		Region:    "us-east-1",
		Endpoint:  srv.URL,
		Bucket:    "notes",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	}, srv.Client())
	require.NoError(t, err)

	link, err := exp.Export(context.Background(), "notes/2024-01-01/x.md", []byte("# 数学"), "text/markdown")
	require.NoError(t, err)

	assert.Equal(t, "# 数学", bucket.objects["/notes/notes/2024-01-01/x.md"])
	assert.Equal(t, "text/markdown", bucket.types["/notes/notes/2024-01-01/x.md"])
	assert.True(t, strings.HasPrefix(link, srv.URL+"/notes/notes/2024-01-01/x.md?"), link)
	assert.Contains(t, link, "X-Amz-Signature=")
}

func TestNewS3Exporter_Errors(t *testing.T) {
	_, err := NewS3Exporter(context.Background(), Config{}, nil)
	require.Error(t, err)

	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-central-1", lo.Region)
		return aws.Config{}, errors.New("no creds")
	}

	_, err = NewS3Exporter(context.Background(), Config{Bucket: "b", Region: "eu-central-1"}, nil)
	require.ErrorContains(t, err, "no creds")
}

func TestExport_PresignAndUploadErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	exp, err := NewS3Exporter(context.Background(), Config{Endpoint: srv.URL, Bucket: "b", AccessKey: "a", SecretKey: "s"}, srv.Client())
	require.NoError(t, err)

	_, err = exp.Export(context.Background(), "k", []byte("x"), "text/plain")
	require.Error(t, err)

	origPut := presignPutObject
	t.Cleanup(func() { presignPutObject = origPut })
	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return nil, errors.New("presign boom")
	}
	_, err = exp.Export(context.Background(), "k", []byte("x"), "text/plain")
	require.ErrorContains(t, err, "presign put: presign boom")
}
