package connector

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyops/sentinel/pkg/logger"
)

type fakeObject struct {
	content      string
	lastModified time.Time
}

type fakeS3 struct {
	objects  map[string]fakeObject
	failKeys map[string]bool
	listErr  error
}

func (f *fakeS3) ListObjectsV2(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	keys := make([]string, 0, len(f.objects))
	for key := range f.objects {
		if strings.HasPrefix(key, aws.ToString(params.Prefix)) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, key := range keys {
		obj := f.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			LastModified: aws.Time(obj.lastModified),
		})
	}
	return out, nil
}

func (f *fakeS3) GetObject(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	if f.failKeys[key] {
		return nil, errors.New("access denied")
	}
	obj, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(obj.content))}, nil
}

func TestS3DocumentSourceDocuments(t *testing.T) {
	modified := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	client := &fakeS3{
		objects: map[string]fakeObject{
			"policies/privacy_policy.md": {content: "we use explicit consent", lastModified: modified},
			"policies/handbook/":         {content: "", lastModified: modified},
			"scratch/notes.txt":          {content: "off-prefix", lastModified: modified},
		},
	}
	source := NewS3DocumentSourceWithClient(client, "compliance-docs", "policies/", logger.NewMockLogger())

	docs, err := source.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1, "folder markers and off-prefix keys are skipped")

	doc := docs[0]
	assert.Equal(t, "policies/privacy_policy.md", doc.ID)
	assert.Equal(t, "privacy policy", doc.Title)
	assert.Equal(t, "we use explicit consent", doc.Content)
	assert.Equal(t, "s3://compliance-docs/policies/privacy_policy.md", doc.URL)
	assert.Equal(t, modified, doc.LastModified)
}

func TestS3DocumentSourceSkipsUnreadableObjects(t *testing.T) {
	client := &fakeS3{
		objects: map[string]fakeObject{
			"policies/a.md": {content: "readable"},
			"policies/b.md": {content: "unreadable"},
		},
		failKeys: map[string]bool{"policies/b.md": true},
	}
	log := logger.NewMockLogger()
	source := NewS3DocumentSourceWithClient(client, "compliance-docs", "policies/", log)

	docs, err := source.Documents(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "policies/a.md", docs[0].ID)
	assert.True(t, log.HasMessage("WARN", "skipping unreadable object"))
}

func TestS3DocumentSourceListFailure(t *testing.T) {
	client := &fakeS3{listErr: errors.New("bucket not found")}
	source := NewS3DocumentSourceWithClient(client, "compliance-docs", "", logger.NewMockLogger())

	_, err := source.Documents(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket not found")
}
