package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

func TestParseVendorPayload(t *testing.T) {
	raw := []byte(`{
		"messages": [
			{"role": "assistant", "message": "Tell me about your last job", "time": 1770000000000},
			{"role": "system", "message": "internal routing note", "time": 1770000001000},
			{"role": "user", "message": "I poured concrete for five years", "time": 1770000002000, "confidence": 0.92}
		],
		"recordingUrl": "https://vendor.example.com/rec/abc",
		"durationSeconds": 240,
		"successEvaluation": true
	}`)

	got, err := ParseVendorPayload(raw)
	if err != nil {
		t.Fatalf("ParseVendorPayload() error = %v", err)
	}

	if len(got.Transcript) != 2 {
		t.Fatalf("Transcript = %d entries, expected 2 (system messages dropped)", len(got.Transcript))
	}
	if got.Transcript[0].Speaker != models.SpeakerInterviewer {
		t.Errorf("first speaker = %q, expected interviewer", got.Transcript[0].Speaker)
	}
	if got.Transcript[1].Speaker != models.SpeakerCandidate {
		t.Errorf("second speaker = %q, expected candidate", got.Transcript[1].Speaker)
	}
	for _, e := range got.Transcript {
		if !e.IsFinal {
			t.Error("vendor summary entries must be finalized")
		}
	}
	if got.Transcript[1].Timestamp != time.UnixMilli(1770000002000) {
		t.Errorf("timestamp = %v", got.Transcript[1].Timestamp)
	}
	if got.RecordingURL != "https://vendor.example.com/rec/abc" {
		t.Errorf("RecordingURL = %q", got.RecordingURL)
	}
	if got.DurationSecs != 240 {
		t.Errorf("DurationSecs = %d", got.DurationSecs)
	}
	if got.SuccessSignal == nil || !*got.SuccessSignal {
		t.Errorf("SuccessSignal = %v, expected true", got.SuccessSignal)
	}
}

func TestParseVendorPayloadRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "Invalid JSON", raw: `{"messages": [`},
		{name: "No messages", raw: `{"messages": []}`},
		{name: "Unknown role", raw: `{"messages": [{"role": "narrator", "message": "hi", "time": 1}]}`},
		{name: "Unrecognized success evaluation", raw: `{"messages": [{"role": "user", "message": "hi", "time": 1}], "successEvaluation": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVendorPayload([]byte(tt.raw))
			if !errors.Is(err, ErrExternalFetch) {
				t.Errorf("error = %v, expected ErrExternalFetch", err)
			}
		})
	}
}

func TestParseVendorPayloadSuccessSignalVariants(t *testing.T) {
	base := `{"messages": [{"role": "user", "message": "hello", "time": 1}]`

	cases := []struct {
		name     string
		suffix   string
		wantNil  bool
		wantBool bool
	}{
		{name: "Absent", suffix: `}`, wantNil: true},
		{name: "Null", suffix: `, "successEvaluation": null}`, wantNil: true},
		{name: "Bool true", suffix: `, "successEvaluation": true}`, wantBool: true},
		{name: "Bool false", suffix: `, "successEvaluation": false}`, wantBool: false},
		{name: "String true", suffix: `, "successEvaluation": "true"}`, wantBool: true},
		{name: "String false mixed case", suffix: `, "successEvaluation": " False "}`, wantBool: false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseVendorPayload([]byte(base + tt.suffix))
			if err != nil {
				t.Fatalf("ParseVendorPayload() error = %v", err)
			}
			if tt.wantNil {
				if got.SuccessSignal != nil {
					t.Errorf("SuccessSignal = %v, expected nil", *got.SuccessSignal)
				}
				return
			}
			if got.SuccessSignal == nil || *got.SuccessSignal != tt.wantBool {
				t.Errorf("SuccessSignal = %v, expected %v", got.SuccessSignal, tt.wantBool)
			}
		})
	}
}

func TestFetchCallData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/call/good-call":
			w.Write([]byte(`{"messages": [{"role": "user", "message": "I weld pipe", "time": 1}], "durationSeconds": 180}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error": "not found"}`))
		}
	}))
	defer server.Close()

	vendor := NewVendorService(VendorConfig{BaseURL: server.URL, APIKey: "test-key"})

	got, err := vendor.FetchCallData(context.Background(), "good-call")
	if err != nil {
		t.Fatalf("FetchCallData() error = %v", err)
	}
	if len(got.Transcript) != 1 || got.DurationSecs != 180 {
		t.Errorf("unexpected call data: %+v", got)
	}

	if _, err := vendor.FetchCallData(context.Background(), "missing-call"); !errors.Is(err, ErrExternalFetch) {
		t.Errorf("error = %v, expected ErrExternalFetch for 404", err)
	}
}

func TestFetchCallDataRequiresConfiguration(t *testing.T) {
	vendor := NewVendorService(VendorConfig{})
	if _, err := vendor.FetchCallData(context.Background(), "any"); !errors.Is(err, ErrConfiguration) {
		t.Errorf("error = %v, expected ErrConfiguration", err)
	}
}
