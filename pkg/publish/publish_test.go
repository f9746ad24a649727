package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/zinefold/pkg/errors"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		in      string
		want    Target
		wantErr bool
	}{
		{"s3://zines", Target{Bucket: "zines"}, false},
		{"s3://zines/issue-4/", Target{Bucket: "zines", Prefix: "issue-4"}, false},
		{"s3://zines/a/b", Target{Bucket: "zines", Prefix: "a/b"}, false},
		{"s3:///nobucket", Target{}, true},
		{"https://zines/x", Target{}, true},
	}
	for _, tt := range tests {
		got, err := ParseTarget(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseTarget(%q) = %+v, %v; want %+v, wantErr %v", tt.in, got, err, tt.want, tt.wantErr)
		}
		if err != nil && !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("ParseTarget(%q) code = %s", tt.in, errors.GetCode(err))
		}
	}
}

func TestTargetKey(t *testing.T) {
	tg := Target{Bucket: "zines", Prefix: "issue-4"}
	if got := tg.Key("/tmp/out/sheet-001-front.png"); got != "issue-4/sheet-001-front.png" {
		t.Errorf("Key() = %q", got)
	}
	if got := (Target{Bucket: "zines"}).URL("out/zine.pdf"); got != "s3://zines/zine.pdf" {
		t.Errorf("URL() = %q", got)
	}
}

type fakeUploader struct {
	keys   []string
	bodies map[string]string
	types  map[string]string
	fail   string
}

func (f *fakeUploader) Upload(ctx context.Context, in *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	key := aws.ToString(in.Key)
	if key == f.fail {
		return nil, fmt.Errorf("access denied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.keys = append(f.keys, key)
	f.bodies[key] = string(data)
	f.types[key] = aws.ToString(in.ContentType)
	return &manager.UploadOutput{}, nil
}

func TestOptionsFromEnv(t *testing.T) {
	t.Setenv("ZINEFOLD_S3_ENDPOINT", "http://localhost:9000")
	t.Setenv("ZINEFOLD_S3_REGION", "eu-central-1")
	t.Setenv("ZINEFOLD_S3_ACCESS_KEY_ID", "minio")
	t.Setenv("ZINEFOLD_S3_SECRET_ACCESS_KEY", "minio123")

	want := Options{Endpoint: "http://localhost:9000", Region: "eu-central-1", AccessKey: "minio", SecretKey: "minio123"}
	if got := OptionsFromEnv(); got != want {
		t.Errorf("OptionsFromEnv() = %+v, want %+v", got, want)
	}

	t.Setenv("ZINEFOLD_S3_SECRET_ACCESS_KEY", "")
	if got := OptionsFromEnv(); got.SecretKey != "" || got.AccessKey != "minio" {
		t.Errorf("OptionsFromEnv() with empty secret = %+v", got)
	}
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "sheet-001-front.png")
	b := filepath.Join(dir, "notes.txt")
	for file, body := range map[string]string{a: "\x89PNG\r\n\x1a\n0000", b: "hello"} {
		if err := os.WriteFile(file, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	up := &fakeUploader{bodies: map[string]string{}, types: map[string]string{}}
	p := newPublisher(Target{Bucket: "zines", Prefix: "n4"}, up, log.New(io.Discard))

	urls, err := p.Publish(context.Background(), []string{a, b})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if want := []string{"s3://zines/n4/sheet-001-front.png", "s3://zines/n4/notes.txt"}; !slices.Equal(urls, want) {
		t.Errorf("Publish() = %v, want %v", urls, want)
	}
	if up.bodies["n4/notes.txt"] != "hello" {
		t.Errorf("uploaded body = %q", up.bodies["n4/notes.txt"])
	}
	if up.types["n4/sheet-001-front.png"] != "image/png" {
		t.Errorf("content type = %q, want image/png", up.types["n4/sheet-001-front.png"])
	}
}

func TestPublishStopsOnFailure(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"1.png", "2.png", "3.png"} {
		file := filepath.Join(dir, name)
		if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		files = append(files, file)
	}

	up := &fakeUploader{bodies: map[string]string{}, types: map[string]string{}, fail: "2.png"}
	urls, err := newPublisher(Target{Bucket: "zines"}, up, log.New(io.Discard)).Publish(context.Background(), files)
	if err == nil {
		t.Fatal("Publish() error = nil, want failure")
	}
	if len(urls) != 1 || len(up.keys) != 1 {
		t.Errorf("published %v before failing, want only 1.png", urls)
	}
}
