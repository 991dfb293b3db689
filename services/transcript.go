package services

import (
	"sort"
	"strings"

	"github.com/tradescreenhq/tradescreen/backend/models"
)

// NormalizedTranscript is the scorer's view of a session transcript: finalized
// utterances only, partitioned by speaker, with derived statistics.
type NormalizedTranscript struct {
	CandidateUtterances   []string
	InterviewerUtterances []string

	ResponseCount   int     // Finalized candidate turns
	TotalWords      int     // Across all candidate turns
	AvgWordsPerTurn float64 // 0 when there are no candidate turns
	AvgCharsPerTurn float64
	AvgConfidence   float64 // Mean transport-reported confidence over candidate turns, 0 when unreported
}

// HasCandidateResponses distinguishes "candidate never spoke" from "candidate
// spoke poorly". Callers must not score a transcript without responses.
func (t *NormalizedTranscript) HasCandidateResponses() bool {
	return t.ResponseCount > 0
}

// CandidateText returns all candidate utterances joined for keyword matching.
func (t *NormalizedTranscript) CandidateText() string {
	return strings.Join(t.CandidateUtterances, " ")
}

// NormalizeTranscript extracts scoring-eligible utterances from raw transcript
// entries. Entries that are not finalized are discarded: interim recognition
// results are unstable and would double-count once the final text arrives.
// Entries with missing text are treated as empty strings, not errors.
func NormalizeTranscript(entries []models.TranscriptEntry) NormalizedTranscript {
	ordered := make([]models.TranscriptEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.IsFinal {
			ordered = append(ordered, entry)
		}
	}
	// Statistics depend on turn order being meaningful; entries arriving from
	// the webhook path may carry only timestamps.
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TurnOrder != ordered[j].TurnOrder {
			return ordered[i].TurnOrder < ordered[j].TurnOrder
		}
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	var result NormalizedTranscript
	var totalChars int
	var confidenceSum float64
	var confidenceCount int

	for _, entry := range ordered {
		text := strings.TrimSpace(entry.Text)
		switch entry.Speaker {
		case models.SpeakerCandidate:
			result.CandidateUtterances = append(result.CandidateUtterances, text)
			result.TotalWords += countWords(text)
			totalChars += len(text)
			if entry.Confidence > 0 {
				confidenceSum += entry.Confidence
				confidenceCount++
			}
		case models.SpeakerInterviewer:
			result.InterviewerUtterances = append(result.InterviewerUtterances, text)
		}
	}

	result.ResponseCount = len(result.CandidateUtterances)
	if result.ResponseCount > 0 {
		result.AvgWordsPerTurn = float64(result.TotalWords) / float64(result.ResponseCount)
		result.AvgCharsPerTurn = float64(totalChars) / float64(result.ResponseCount)
	}
	if confidenceCount > 0 {
		result.AvgConfidence = confidenceSum / float64(confidenceCount)
	}
	return result
}

// PairResponses walks the finalized transcript in order and pairs each
// interviewer prompt with the candidate answer that followed it.
func PairResponses(entries []models.TranscriptEntry) []models.QuestionResponse {
	var pairs []models.QuestionResponse
	var pending *models.TranscriptEntry

	for i := range entries {
		entry := entries[i]
		if !entry.IsFinal {
			continue
		}
		switch entry.Speaker {
		case models.SpeakerInterviewer:
			pending = &entry
		case models.SpeakerCandidate:
			if pending == nil {
				continue
			}
			pairs = append(pairs, models.QuestionResponse{
				Question:  strings.TrimSpace(pending.Text),
				Answer:    strings.TrimSpace(entry.Text),
				WordCount: countWords(entry.Text),
				AskedAt:   pending.Timestamp,
			})
			pending = nil
		}
	}
	return pairs
}

func countWords(text string) int {
	return len(strings.Fields(text))
}
