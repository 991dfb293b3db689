package services

import (
	"testing"
	"time"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

func entry(turn int, speaker, text string, isFinal bool) models.TranscriptEntry {
	return models.TranscriptEntry{
		TurnOrder: turn,
		Speaker:   speaker,
		Text:      text,
		Timestamp: time.Date(2026, 1, 15, 10, 0, turn, 0, time.UTC),
		IsFinal:   isFinal,
	}
}

func TestNormalizeTranscriptFiltersNonFinal(t *testing.T) {
	entries := []models.TranscriptEntry{
		entry(0, models.SpeakerInterviewer, "Tell me about your experience", true),
		entry(1, models.SpeakerCandidate, "I have worked in", false), // interim result
		entry(1, models.SpeakerCandidate, "I have worked in plumbing for six years", true),
		entry(2, models.SpeakerInterviewer, "What about safety", true),
		entry(3, models.SpeakerCandidate, "We always use PPE on site", true),
	}

	got := NormalizeTranscript(entries)

	if got.ResponseCount != 2 {
		t.Fatalf("ResponseCount = %d, expected 2 (interim entries must not count)", got.ResponseCount)
	}
	if len(got.InterviewerUtterances) != 2 {
		t.Errorf("InterviewerUtterances = %d, expected 2", len(got.InterviewerUtterances))
	}
	if got.TotalWords != 14 {
		t.Errorf("TotalWords = %d, expected 14", got.TotalWords)
	}
	if got.AvgWordsPerTurn != 7 {
		t.Errorf("AvgWordsPerTurn = %v, expected 7", got.AvgWordsPerTurn)
	}
}

func TestNormalizeTranscriptOrdersByTurn(t *testing.T) {
	entries := []models.TranscriptEntry{
		entry(2, models.SpeakerCandidate, "second answer", true),
		entry(0, models.SpeakerCandidate, "first answer", true),
	}

	got := NormalizeTranscript(entries)
	if got.CandidateUtterances[0] != "first answer" {
		t.Errorf("utterances not ordered by turn: %v", got.CandidateUtterances)
	}
}

func TestNormalizeTranscriptEmpty(t *testing.T) {
	tests := []struct {
		name    string
		entries []models.TranscriptEntry
	}{
		{name: "No entries", entries: nil},
		{name: "Only interim entries", entries: []models.TranscriptEntry{
			entry(0, models.SpeakerCandidate, "partial", false),
		}},
		{name: "Only interviewer entries", entries: []models.TranscriptEntry{
			entry(0, models.SpeakerInterviewer, "hello, anyone there?", true),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeTranscript(tt.entries)
			if got.HasCandidateResponses() {
				t.Errorf("HasCandidateResponses() = true, expected false")
			}
			if got.AvgWordsPerTurn != 0 || got.AvgCharsPerTurn != 0 {
				t.Errorf("averages should be zero for empty transcripts, got %v / %v",
					got.AvgWordsPerTurn, got.AvgCharsPerTurn)
			}
		})
	}
}

func TestNormalizeTranscriptConfidence(t *testing.T) {
	e1 := entry(0, models.SpeakerCandidate, "answer one", true)
	e1.Confidence = 0.5
	e2 := entry(1, models.SpeakerCandidate, "answer two", true)
	e2.Confidence = 1.0
	e3 := entry(2, models.SpeakerCandidate, "answer three", true) // unreported

	got := NormalizeTranscript([]models.TranscriptEntry{e1, e2, e3})
	if got.AvgConfidence != 0.75 {
		t.Errorf("AvgConfidence = %v, expected 0.75 (unreported entries excluded)", got.AvgConfidence)
	}
}

func TestPairResponses(t *testing.T) {
	entries := []models.TranscriptEntry{
		entry(0, models.SpeakerInterviewer, "How long have you been welding?", true),
		entry(1, models.SpeakerCandidate, "About ten years now", true),
		entry(2, models.SpeakerInterviewer, "What processes?", true),
		entry(3, models.SpeakerCandidate, "interim", false),
		entry(4, models.SpeakerCandidate, "Mostly MIG and TIG", true),
		entry(5, models.SpeakerCandidate, "unprompted follow-up", true), // no pending question
	}

	pairs := PairResponses(entries)
	if len(pairs) != 2 {
		t.Fatalf("PairResponses() produced %d pairs, expected 2", len(pairs))
	}
	if pairs[0].Question != "How long have you been welding?" || pairs[0].Answer != "About ten years now" {
		t.Errorf("first pair = %+v", pairs[0])
	}
	if pairs[1].Answer != "Mostly MIG and TIG" {
		t.Errorf("second pair should skip the interim entry, got %+v", pairs[1])
	}
	if pairs[0].WordCount != 4 {
		t.Errorf("WordCount = %d, expected 4", pairs[0].WordCount)
	}
}
