package gallery

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nikhilbhutani/bodyshop/internal/cache"
	"github.com/nikhilbhutani/bodyshop/internal/models"
	"github.com/nikhilbhutani/bodyshop/internal/queue"
	"github.com/nikhilbhutani/bodyshop/internal/store"
)

const publicBase = "https://proj.supabase.co/storage/v1/object/public/"

type fakeImages struct {
	uploads map[string][]byte
	types   map[string]string
}

func newFakeImages() *fakeImages {
	return &fakeImages{uploads: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeImages) Upload(_ context.Context, bucket, path string, data io.Reader, contentType string) error {
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.uploads[bucket+"/"+path] = b
	f.types[bucket+"/"+path] = contentType
	return nil
}

func (f *fakeImages) Delete(context.Context, string, string) error { return nil }

func (f *fakeImages) GetPublicURL(bucket, path string) string {
	return publicBase + bucket + "/" + path
}

func (f *fakeImages) ObjectPath(bucket, url string) (string, bool) {
	prefix := publicBase + bucket + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	return strings.TrimPrefix(url, prefix), true
}

type fakeCleanup struct {
	payloads []queue.GalleryImageCleanupPayload
}

func (f *fakeCleanup) EnqueueGalleryImageCleanup(p queue.GalleryImageCleanupPayload) error {
	f.payloads = append(f.payloads, p)
	return nil
}

type fixture struct {
	svc     *Service
	store   *store.Memory
	redis   *miniredis.Miniredis
	images  *fakeImages
	cleanup *fakeCleanup
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	f := &fixture{
		store:   store.NewMemory(),
		redis:   mr,
		images:  newFakeImages(),
		cleanup: &fakeCleanup{},
	}
	f.svc = NewService(f.store, cache.NewCache(client, ""), f.images, "gallery-images", f.cleanup, nil)
	f.svc.now = func() time.Time { return time.Unix(1_700_000_000, 0) }
	return f
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func TestListPublicCachesAndInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, ItemInput{Title: "Bumper", DisplayOrder: intPtr(2)}); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if _, err := f.svc.Create(ctx, ItemInput{Title: "Hidden", IsActive: boolPtr(false)}); err != nil {
		t.Fatalf("Create(): %v", err)
	}

	items, err := f.svc.ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic(): %v", err)
	}
	if len(items) != 1 || items[0].Title != "Bumper" {
		t.Fatalf("ListPublic() = %+v, want only the active item", items)
	}
	if !f.redis.Exists(PublicCacheKey) {
		t.Fatal("public listing not cached")
	}
	if ttl := f.redis.TTL(PublicCacheKey); ttl != PublicCacheTTL {
		t.Errorf("cache TTL = %v, want %v", ttl, PublicCacheTTL)
	}

	// A write bypassing the service is invisible until the cache is dropped.
	f.store.InsertGalleryItem(ctx, models.GalleryItem{Title: "Direct", IsActive: true})
	items, _ = f.svc.ListPublic(ctx)
	if len(items) != 1 {
		t.Errorf("cached listing = %d items, want 1", len(items))
	}

	if _, err := f.svc.Create(ctx, ItemInput{Title: "Door", DisplayOrder: intPtr(1)}); err != nil {
		t.Fatalf("Create(): %v", err)
	}
	if f.redis.Exists(PublicCacheKey) {
		t.Error("cache not invalidated on create")
	}
	items, _ = f.svc.ListPublic(ctx)
	if len(items) != 3 || items[0].Title != "Direct" || items[1].Title != "Door" {
		t.Errorf("fresh listing = %+v", items)
	}
}

func TestListPublicWorksWithoutRedis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.svc.Create(ctx, ItemInput{Title: "A"})
	f.redis.Close()

	items, err := f.svc.ListPublic(ctx)
	if err != nil {
		t.Fatalf("ListPublic() with redis down: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("len = %d, want 1", len(items))
	}
}

func TestCreateAndUpdateRequireTitle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.svc.Create(ctx, ItemInput{Title: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Create() error = %v, want ErrInvalidInput", err)
	}
	item, _ := f.svc.Create(ctx, ItemInput{Title: "A"})
	if !item.IsActive {
		t.Error("new item not active by default")
	}
	if _, err := f.svc.Update(ctx, item.ID, ItemInput{}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("Update() error = %v, want ErrInvalidInput", err)
	}
	if _, err := f.svc.Update(ctx, uuid.New(), ItemInput{Title: "B"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(unknown) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateSchedulesReplacedImageCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	oldBefore := f.images.GetPublicURL("gallery-images", "gallery/before/1-old.jpg")
	after := f.images.GetPublicURL("gallery-images", "gallery/after/1-a.jpg")

	item, _ := f.svc.Create(ctx, ItemInput{Title: "A", BeforeImageURL: oldBefore, AfterImageURL: after})
	_, err := f.svc.Update(ctx, item.ID, ItemInput{
		Title:          "A",
		BeforeImageURL: f.images.GetPublicURL("gallery-images", "gallery/before/2-new.jpg"),
		AfterImageURL:  after,
	})
	if err != nil {
		t.Fatalf("Update(): %v", err)
	}

	if len(f.cleanup.payloads) != 1 {
		t.Fatalf("cleanup tasks = %d, want 1", len(f.cleanup.payloads))
	}
	if p := f.cleanup.payloads[0]; len(p.Paths) != 1 || p.Paths[0] != "gallery/before/1-old.jpg" {
		t.Errorf("cleanup paths = %v", p.Paths)
	}
}

func TestDeleteSchedulesCleanup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	item, _ := f.svc.Create(ctx, ItemInput{
		Title:          "A",
		BeforeImageURL: f.images.GetPublicURL("gallery-images", "gallery/before/1-b.jpg"),
		AfterImageURL:  "https://elsewhere.example/a.jpg",
	})

	if err := f.svc.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete(): %v", err)
	}
	if len(f.cleanup.payloads) != 1 || len(f.cleanup.payloads[0].Paths) != 1 {
		t.Fatalf("cleanup = %+v, want one bucket path", f.cleanup.payloads)
	}
	if f.cleanup.payloads[0].Bucket != "gallery-images" {
		t.Errorf("bucket = %q", f.cleanup.payloads[0].Bucket)
	}
	if err := f.svc.Delete(ctx, item.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}
}

func TestUploadImage(t *testing.T) {
	f := newFixture(t)
	png := []byte("\x89PNG\r\n\x1a\n0000")
	encoded := base64.StdEncoding.EncodeToString(png)

	tests := []struct {
		name     string
		data     string
		fileName string
		wantPath string
		wantType string
	}{
		{"data url", "data:image/png;base64," + encoded, "Front Bumper.png", "gallery/before/1700000000-Front-Bumper.png", "image/png"},
		{"bare base64", encoded, "../../etc/car.jpg", "gallery/before/1700000000-car.jpg", "image/jpeg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.UploadImage(context.Background(), "before", tt.data, tt.fileName)
			if err != nil {
				t.Fatalf("UploadImage(): %v", err)
			}
			if res.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", res.Path, tt.wantPath)
			}
			if res.URL != publicBase+"gallery-images/"+tt.wantPath {
				t.Errorf("URL = %q", res.URL)
			}
			key := "gallery-images/" + tt.wantPath
			if string(f.images.uploads[key]) != string(png) {
				t.Error("uploaded bytes differ")
			}
			if f.images.types[key] != tt.wantType {
				t.Errorf("content type = %q, want %q", f.images.types[key], tt.wantType)
			}
		})
	}
}

func TestUploadImageRejectsBadInput(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	good := base64.StdEncoding.EncodeToString([]byte("\x89PNG\r\n\x1a\n"))

	cases := []struct {
		imageType, data, fileName string
	}{
		{"during", good, "a.png"},
		{"after", "", "a.png"},
		{"after", good, ""},
		{"after", "not base64!!", "a.png"},
		{"after", "data:image/png,abc", "a.png"},
		{"after", base64.StdEncoding.EncodeToString([]byte("plain text")), "notes.txt"},
	}
	for _, c := range cases {
		if _, err := f.svc.UploadImage(ctx, c.imageType, c.data, c.fileName); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("UploadImage(%q, %q, %q) error = %v, want ErrInvalidInput", c.imageType, c.data, c.fileName, err)
		}
	}

	noStorage := NewService(store.NewMemory(), nil, nil, "", nil, nil)
	if _, err := noStorage.UploadImage(ctx, "after", good, "a.png"); !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("without storage error = %v, want ErrStorageUnavailable", err)
	}
}
