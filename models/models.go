package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - Candidate from candidate.go
// - ScreeningSession, TranscriptEntry from session.go
// - Assessment and its sub-score groups from assessment.go
// - Notification from notification.go

// Database schema overview:
// 1. users - HR staff accounts for the dashboard API (JWT authentication)
// 2. candidates - One row per applicant; email is the natural key
// 3. screening_sessions - Records each voice interview attempt for a candidate
// 4. transcript_entries - Ordered, turn-by-turn utterances captured during a call
// 5. assessments - The scored outcome of a session; the unique index on session_id
//    enforces the one-assessment-per-session invariant at the storage layer
// 6. notifications - Threshold-crossing events raised by the evaluator
