package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestUploadSendsObject(t *testing.T) {
	var gotPath, gotAuth, gotType, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := NewSupabaseStorage(srv.URL+"/", "service-key")
	err := s.Upload(context.Background(), "gallery-images", "gallery/before/1700000000-car.jpg", strings.NewReader("jpegdata"), "image/jpeg")
	if err != nil {
		t.Fatalf("Upload(): %v", err)
	}
	if gotPath != "/storage/v1/object/gallery-images/gallery/before/1700000000-car.jpg" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer service-key" || gotType != "image/jpeg" || gotBody != "jpegdata" {
		t.Errorf("auth=%q type=%q body=%q", gotAuth, gotType, gotBody)
	}
}

func TestUploadReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bucket not found", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewSupabaseStorage(srv.URL, "k").Upload(context.Background(), "b", "p", strings.NewReader("x"), "image/png")
	if err == nil || !strings.Contains(err.Error(), "bucket not found") {
		t.Errorf("error = %v, want server message", err)
	}
}

func TestDeleteIgnoresMissingObject(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %s, want DELETE", r.Method)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	if err := NewSupabaseStorage(srv.URL, "k").Delete(context.Background(), "b", "gone.png"); err != nil {
		t.Errorf("Delete(): %v", err)
	}
}

func TestObjectPath(t *testing.T) {
	s := NewSupabaseStorage("https://proj.supabase.co", "k")
	url := s.GetPublicURL("gallery-images", "gallery/after/1-x.png")

	path, ok := s.ObjectPath("gallery-images", url)
	if !ok || path != "gallery/after/1-x.png" {
		t.Errorf("ObjectPath(%q) = %q, %v", url, path, ok)
	}
	if _, ok := s.ObjectPath("gallery-images", "https://cdn.example/x.png"); ok {
		t.Error("foreign URL accepted")
	}
}
