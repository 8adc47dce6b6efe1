package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"
)

func TestFormatBody(t *testing.T) {
	body := FormatBody(Submission{DeviceID: "b8:27:eb:01:02:03", Batch: []byte("0\n5\n")})
	want := "macAddress=b8%3A27%3Aeb%3A01%3A02%3A03&csv=0%0A5%0A"
	if body != want {
		t.Errorf("FormatBody: got %q, want %q", body, want)
	}
}

func TestHTTPSenderSuccess(t *testing.T) {
	var gotMethod, gotType, gotReqID string
	var gotForm url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotType = r.Header.Get("Content-Type")
		gotReqID = r.Header.Get("X-Request-ID")
		r.ParseForm()
		gotForm = r.PostForm
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ignored body")
	}))
	defer server.Close()

	s := NewHTTPSender(server.URL, 5*time.Second)
	err := s.Send(context.Background(), Submission{DeviceID: "b8:27:eb:01:02:03", Batch: []byte("0\n5\n")})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}

	if gotMethod != http.MethodPost {
		t.Errorf("method: got %s, want POST", gotMethod)
	}
	if gotType != "application/x-www-form-urlencoded" {
		t.Errorf("Content-Type: got %q", gotType)
	}
	if gotReqID == "" {
		t.Error("expected X-Request-ID header")
	}
	if got := gotForm.Get("macAddress"); got != "b8:27:eb:01:02:03" {
		t.Errorf("macAddress: got %q", got)
	}
	if got := gotForm.Get("csv"); got != "0\n5\n" {
		t.Errorf("csv: got %q, want %q", got, "0\n5\n")
	}
}

func TestHTTPSenderAccepts2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewHTTPSender(server.URL, 0).Send(context.Background(), Submission{}); err != nil {
		t.Errorf("expected 204 to count as delivered, got %v", err)
	}
}

func TestHTTPSenderNonSuccessStatus(t *testing.T) {
	for _, code := range []int{http.StatusMovedPermanently, http.StatusBadRequest, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(code)
		}))

		err := NewHTTPSender(server.URL, time.Second).Send(context.Background(), Submission{Batch: []byte("1\n")})
		if !errors.Is(err, ErrTransportFailed) {
			t.Errorf("status %d: expected ErrTransportFailed, got %v", code, err)
		}
		server.Close()
	}
}

func TestHTTPSenderTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	err := NewHTTPSender(server.URL, 50*time.Millisecond).Send(context.Background(), Submission{})
	if !errors.Is(err, ErrTransportFailed) {
		t.Errorf("expected ErrTransportFailed on timeout, got %v", err)
	}
}

func TestHTTPSenderConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	addr := server.URL
	server.Close()

	err := NewHTTPSender(addr, time.Second).Send(context.Background(), Submission{})
	if !errors.Is(err, ErrTransportFailed) {
		t.Errorf("expected ErrTransportFailed, got %v", err)
	}
}

func TestHTTPSenderUniqueRequestIDs(t *testing.T) {
	seen := map[string]bool{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.Header.Get("X-Request-ID")] = true
	}))
	defer server.Close()

	s := NewHTTPSender(server.URL, time.Second)
	for i := 0; i < 3; i++ {
		s.Send(context.Background(), Submission{Batch: []byte("1\n")})
	}
	if len(seen) != 3 {
		t.Errorf("expected 3 distinct request IDs, got %d", len(seen))
	}
}

func TestFakeSender(t *testing.T) {
	f := NewFakeSender()
	batch := []byte("1\n")
	if err := f.Send(context.Background(), Submission{DeviceID: "id", Batch: batch}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	batch[0] = '9'
	if string(f.Submissions[0].Batch) != "1\n" {
		t.Error("FakeSender must copy the batch")
	}

	f.SetError(errors.New("down"))
	if err := f.Send(context.Background(), Submission{}); err == nil {
		t.Error("expected error")
	}
	if f.Calls() != 2 {
		t.Errorf("Calls: got %d, want 2", f.Calls())
	}
}
