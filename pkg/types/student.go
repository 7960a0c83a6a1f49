package types

import (
	"encoding/json"
	"strings"
)

// Student is a tutored student. ID is assigned by the store on creation.
// Links holds the serialized lesson link list exactly as stored; use
// internal/ledger to decode it.
type Student struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	Age             string `json:"age"`
	Grade           string `json:"grade"`
	Occupation      string `json:"occupation"`
	DaysAndTimes    string `json:"days_and_times"`
	ESLLevel        string `json:"esl_level"`
	TeacherComments string `json:"teacher_comments"`
	Links           string `json:"links"`
}

// MarshalJSON writes Links under both links and google_docs_links. Browser
// clients that predate the links field read and rewrite the list through
// the older key.
func (s Student) MarshalJSON() ([]byte, error) {
	type student Student
	return json.Marshal(struct {
		student
		GoogleDocsLinks string `json:"google_docs_links"`
	}{student(s), s.Links})
}

// Validate reports ErrInvalidName when the student has no name.
func (s *Student) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

// StudentPatch is a partial update. Nil fields are left unchanged.
type StudentPatch struct {
	Name            *string
	Age             *string
	Grade           *string
	Occupation      *string
	DaysAndTimes    *string
	ESLLevel        *string
	TeacherComments *string
	Links           *string
}

// Empty reports whether the patch changes nothing.
func (p StudentPatch) Empty() bool {
	return p.Name == nil && p.Age == nil && p.Grade == nil &&
		p.Occupation == nil && p.DaysAndTimes == nil && p.ESLLevel == nil &&
		p.TeacherComments == nil && p.Links == nil
}

// Apply copies the set fields of the patch onto s.
func (p StudentPatch) Apply(s *Student) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&s.Name, p.Name)
	set(&s.Age, p.Age)
	set(&s.Grade, p.Grade)
	set(&s.Occupation, p.Occupation)
	set(&s.DaysAndTimes, p.DaysAndTimes)
	set(&s.ESLLevel, p.ESLLevel)
	set(&s.TeacherComments, p.TeacherComments)
	set(&s.Links, p.Links)
}
