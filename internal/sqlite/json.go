// JSON record structures for the JSONL export format.
package sqlite

// studentJSON represents a student in students.jsonl.
type studentJSON struct {
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

// vocabularyJSON represents a vocabulary entry in vocabulary.jsonl.
type vocabularyJSON struct {
	ID          int64   `json:"id"`
	StudentID   int64   `json:"student_id"`
	Word        string  `json:"word"`
	Translation *string `json:"translation"`
	LessonDate  string  `json:"lesson_date"`
}
