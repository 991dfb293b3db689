package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

// VendorService fetches authoritative call data from the voice transport
// provider. The webhook path re-derives the session transcript from this
// summary rather than trusting previously streamed entries.
type VendorService struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewVendorService(cfg VendorConfig) *VendorService {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &VendorService{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// CallData is the validated internal view of the vendor's terminal call
// summary.
type CallData struct {
	Transcript    []models.TranscriptEntry
	RecordingURL  string
	DurationSecs  int
	SuccessSignal *bool // nil when the vendor reported no evaluation
}

// vendorCallPayload mirrors the vendor's loosely typed summary JSON. Fields
// the vendor ships as "any" are decoded as json.RawMessage and validated
// explicitly so malformed shapes fail fast instead of leaking zero values
// into scoring.
type vendorCallPayload struct {
	Messages []struct {
		Role      string  `json:"role"`
		Text      string  `json:"message"`
		Timestamp int64   `json:"time"` // unix milliseconds
		Conf      float64 `json:"confidence,omitempty"`
	} `json:"messages"`
	RecordingURL      string          `json:"recordingUrl,omitempty"`
	DurationSeconds   int             `json:"durationSeconds,omitempty"`
	SuccessEvaluation json.RawMessage `json:"successEvaluation,omitempty"`
}

// FetchCallData retrieves and validates the call summary for a vendor session.
// Any transport failure, non-2xx status or malformed payload is reported as
// ErrExternalFetch; no partial data is returned.
func (v *VendorService) FetchCallData(ctx context.Context, vendorSessionID string) (*CallData, error) {
	if v.baseURL == "" || v.apiKey == "" {
		return nil, fmt.Errorf("%w: vendor base URL and API key are required", ErrConfiguration)
	}

	url := fmt.Sprintf("%s/call/%s", v.baseURL, vendorSessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalFetch, err)
	}
	req.Header.Set("Authorization", "Bearer "+v.apiKey)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: vendor API returned %d - %s", ErrExternalFetch, resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalFetch, err)
	}

	callData, err := ParseVendorPayload(body)
	if err != nil {
		return nil, err
	}

	slog.Info("Vendor call data fetched", "vendor_session_id", vendorSessionID,
		"message_count", len(callData.Transcript), "has_success_signal", callData.SuccessSignal != nil)
	return callData, nil
}

// ParseVendorPayload converts the untyped vendor summary into the internal
// transcript shape. Entries from the summary are always finalized: the vendor
// only reports stable recognition results in its terminal payload.
func ParseVendorPayload(raw []byte) (*CallData, error) {
	var payload vendorCallPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: malformed call summary: %v", ErrExternalFetch, err)
	}
	if len(payload.Messages) == 0 {
		return nil, fmt.Errorf("%w: call summary has no messages", ErrExternalFetch)
	}

	callData := &CallData{
		RecordingURL: payload.RecordingURL,
		DurationSecs: payload.DurationSeconds,
	}

	for i, msg := range payload.Messages {
		speaker, err := mapVendorRole(msg.Role)
		if err != nil {
			return nil, err
		}
		// System/tool messages carry no scoring signal.
		if speaker == "" {
			continue
		}
		callData.Transcript = append(callData.Transcript, models.TranscriptEntry{
			TurnOrder:  i,
			Speaker:    speaker,
			Text:       msg.Text,
			Timestamp:  time.UnixMilli(msg.Timestamp),
			Confidence: msg.Conf,
			IsFinal:    true,
		})
	}

	signal, err := parseSuccessSignal(payload.SuccessEvaluation)
	if err != nil {
		return nil, err
	}
	callData.SuccessSignal = signal
	return callData, nil
}

// mapVendorRole translates the vendor's role tags into internal speaker roles.
// Unknown roles are a malformed payload, not something to guess about.
func mapVendorRole(role string) (string, error) {
	switch strings.ToLower(role) {
	case "user", "human", "candidate":
		return models.SpeakerCandidate, nil
	case "assistant", "bot", "agent", "interviewer":
		return models.SpeakerInterviewer, nil
	case "system", "tool":
		return "", nil
	default:
		return "", fmt.Errorf("%w: unknown message role %q", ErrExternalFetch, role)
	}
}

// parseSuccessSignal accepts the vendor's success evaluation as a JSON bool
// or the strings "true"/"false", absent meaning no signal.
func parseSuccessSignal(raw json.RawMessage) (*bool, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var asBool bool
	if err := json.Unmarshal(raw, &asBool); err == nil {
		return &asBool, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		switch strings.ToLower(strings.TrimSpace(asString)) {
		case "true":
			value := true
			return &value, nil
		case "false":
			value := false
			return &value, nil
		}
	}
	return nil, fmt.Errorf("%w: unrecognized success evaluation %s", ErrExternalFetch, string(raw))
}
