package analytics

const (
	defaultSignupTitle = "New user"
	defaultSignupRole  = "USER"
	resultTitle        = "Result uploaded"
	defaultRecordTitle = "Doctor note"
)

// NormalizeSignups maps profile rows onto feed events.
func NormalizeSignups(rows []SignupRow) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, TimelineEvent{
			ID:     string(KindSignup) + "-" + r.ID.String(),
			Kind:   KindSignup,
			Title:  orDefault(r.FullName, defaultSignupTitle),
			Date:   r.CreatedAt,
			Detail: orDefault(r.Role, defaultSignupRole),
		})
	}
	return out
}

// NormalizeResults maps result uploads onto feed events.
func NormalizeResults(rows []ResultRow) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, TimelineEvent{
			ID:    string(KindResult) + "-" + r.ID.String(),
			Kind:  KindResult,
			Title: resultTitle,
			Date:  r.CreatedAt,
		})
	}
	return out
}

// NormalizeRecords maps medical-record notes onto feed events.
func NormalizeRecords(rows []RecordRow) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(rows))
	for _, r := range rows {
		out = append(out, TimelineEvent{
			ID:    string(KindRecord) + "-" + r.ID.String(),
			Kind:  KindRecord,
			Title: orDefault(r.Diagnosis, defaultRecordTitle),
			Date:  r.CreatedAt,
		})
	}
	return out
}

// Normalize converts all three sources and concatenates them as
// signups, results, records. Order within each source is preserved.
func Normalize(signups []SignupRow, results []ResultRow, records []RecordRow) []TimelineEvent {
	out := make([]TimelineEvent, 0, len(signups)+len(results)+len(records))
	out = append(out, NormalizeSignups(signups)...)
	out = append(out, NormalizeResults(results)...)
	out = append(out, NormalizeRecords(records)...)
	return out
}

// orDefault substitutes def only for a missing value; a present empty string
// is kept.
func orDefault(s *string, def string) string {
	if s == nil {
		return def
	}
	return *s
}
