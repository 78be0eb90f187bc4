package session

import "github.com/google/uuid"

// Summary is the aggregate handed to the stats/achievement collaborator at
// finalization. It is derived once from the finalized session, never stored
// redundantly on the session itself.
type Summary struct {
	SessionID        uuid.UUID `json:"sessionId"`
	UserID           int       `json:"userId"`
	DurationMinutes  int       `json:"durationMinutes"`
	SetsCompleted    int       `json:"setsCompleted"`
	TotalWeightMoved float64   `json:"totalWeightMoved"`
}

// Summarize computes the finalization aggregates. The session must already
// have its end time set; elapsed time is measured at that instant.
func Summarize(s *Session) Summary {
	sum := Summary{SessionID: s.ID, UserID: s.UserID}
	if s.EndTime != nil {
		sum.DurationMinutes = ElapsedSeconds(s, *s.EndTime) / 60
	}
	for i := range s.Exercises {
		for _, set := range s.Exercises[i].Sets {
			if set.Completed && set.Reps != nil && set.Weight != nil {
				sum.SetsCompleted++
				sum.TotalWeightMoved += float64(*set.Reps) * *set.Weight
			}
		}
	}
	return sum
}
