package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHuggingFaceClassify(t *testing.T) {
	var gotBody zeroShotRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(zeroShotResponse{
			Sequence: gotBody.Inputs,
			Labels:   []string{"profane", "non-profane"},
			Scores:   []float64{0.9, 0.1},
		})
	}))
	defer srv.Close()

	adapter, err := NewHuggingFaceAdapter(HuggingFaceOptions{BaseURL: srv.URL, Model: "m"})
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	res, err := adapter.Classify(context.Background(), "some text", []string{"profane", "non-profane"})
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if res.Label != "profane" || res.Score != 0.9 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Scores["non-profane"] != 0.1 {
		t.Fatalf("score map missing candidate: %+v", res.Scores)
	}
	if len(gotBody.Parameters.CandidateLabels) != 2 {
		t.Fatalf("candidate labels not sent: %+v", gotBody)
	}
}

func TestHuggingFaceClassifyServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model loading"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	adapter, _ := NewHuggingFaceAdapter(HuggingFaceOptions{BaseURL: srv.URL, Model: "m"})
	if _, err := adapter.Classify(context.Background(), "text", []string{"a", "b"}); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestHuggingFaceClassifyNoLabels(t *testing.T) {
	adapter, _ := NewHuggingFaceAdapter(HuggingFaceOptions{})
	if _, err := adapter.Classify(context.Background(), "text", nil); err == nil {
		t.Fatal("expected error without candidate labels")
	}
}
