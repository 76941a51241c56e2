package gmail

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"
)

func TestSaveDraft(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || !strings.HasSuffix(r.URL.Path, "/users/me/drafts") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var body struct {
			Message struct {
				Raw string `json:"raw"`
			} `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode: %v", err)
		}
		got, _ = base64.URLEncoding.DecodeString(body.Message.Raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "r-123", "message": {"id": "m-1"}}`))
	}))
	defer srv.Close()

	c, err := New(context.Background(),
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.SaveDraft(context.Background(), []byte("Subject: hola\r\n\r\ncuerpo"))
	if err != nil {
		t.Fatal(err)
	}
	if id != "r-123" || string(got) != "Subject: hola\r\n\r\ncuerpo" {
		t.Fatalf("id=%s raw=%q", id, got)
	}
}
