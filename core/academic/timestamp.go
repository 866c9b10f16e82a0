package academic

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
)

// timestampLayouts are the date forms of the upstream API. Offset-less forms are local times.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTimestamp parses s in any of the upstream date forms. A blank s gives the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errors.Errorf("parsing time %q: unknown format", s)
}

// Timestamp is a time decoded from any of the upstream date forms.
// JSON null and "" give the zero time.
type Timestamp struct {
	time.Time
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		ts.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errors.Wrap(err, "decoding time")
	}
	t, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	ts.Time = t
	return nil
}

// Null is ts as an optional time: the zero time is unset.
func (ts Timestamp) Null() null.Time {
	if ts.IsZero() {
		return null.Time{}
	}
	return null.TimeFrom(ts.Time)
}

func (s *Semester) UnmarshalJSON(data []byte) error {
	type plain Semester
	aux := struct {
		*plain
		StartDate Timestamp `json:"startDate"`
		EndDate   Timestamp `json:"endDate"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.StartDate, s.EndDate = aux.StartDate.Time, aux.EndDate.Time
	return nil
}

func (c *Class) UnmarshalJSON(data []byte) error {
	type plain Class
	aux := struct {
		*plain
		CreatedAt Timestamp `json:"createdAt"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	c.CreatedAt = aux.CreatedAt.Time
	return nil
}

func (a *ClassAssessment) UnmarshalJSON(data []byte) error {
	type plain ClassAssessment
	aux := struct {
		*plain
		StartAt Timestamp `json:"startAt"`
		EndAt   Timestamp `json:"endAt"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.StartAt, a.EndAt = aux.StartAt.Null(), aux.EndAt.Null()
	return nil
}

func (g *GradingGroup) UnmarshalJSON(data []byte) error {
	type plain GradingGroup
	aux := struct {
		*plain
		GradeSheetSubmittedAt Timestamp `json:"gradeSheetSubmittedAt"`
		CreatedAt             Timestamp `json:"createdAt"`
	}{plain: (*plain)(g)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	g.GradeSheetSubmittedAt, g.CreatedAt = aux.GradeSheetSubmittedAt.Null(), aux.CreatedAt.Time
	return nil
}

func (s *Submission) UnmarshalJSON(data []byte) error {
	type plain Submission
	aux := struct {
		*plain
		SubmittedAt Timestamp `json:"submittedAt"`
	}{plain: (*plain)(s)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.SubmittedAt = aux.SubmittedAt.Null()
	return nil
}

func (a *Account) UnmarshalJSON(data []byte) error {
	type plain Account
	aux := struct {
		*plain
		DateOfBirth Timestamp `json:"dateOfBirth"`
	}{plain: (*plain)(a)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	a.DateOfBirth = aux.DateOfBirth.Null()
	return nil
}

func (r *AssignRequest) UnmarshalJSON(data []byte) error {
	type plain AssignRequest
	aux := struct {
		*plain
		CreatedAt Timestamp `json:"createdAt"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.CreatedAt = aux.CreatedAt.Time
	return nil
}
