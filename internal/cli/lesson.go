package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/tutor/internal/lesson"
	"github.com/mesh-intelligence/tutor/pkg/types"
)

type lessonFlags struct {
	studentID int64
	name      string
	start     int
	count     int
}

func newLessonCmd() *cobra.Command {
	var f lessonFlags
	cmd := &cobra.Command{
		Use:   "lesson",
		Short: "Generate a vocabulary lesson page for a student",
		Example: `  tutor lesson --student 3 --start 101 --count 20
  tutor lesson --student 3 --name "Ana" --start 1 --count 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLesson(cmd, f)
		},
	}
	cmd.Flags().Int64Var(&f.studentID, "student", 0, "student ID")
	cmd.Flags().StringVar(&f.name, "name", "", "student name shown on the page (default: stored name)")
	cmd.Flags().IntVar(&f.start, "start", 1, "rank of the first word")
	cmd.Flags().IntVar(&f.count, "count", 10, "number of words")
	_ = cmd.MarkFlagRequired("student")
	return cmd
}

func runLesson(cmd *cobra.Command, f lessonFlags) error {
	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.close()

	ctx := cmd.Context()
	name := f.name
	if name == "" {
		s, err := a.backend.Students().Get(ctx, f.studentID)
		if err != nil {
			return lessonError(err)
		}
		name = s.Name
	}

	res, err := a.generator.Generate(ctx, lesson.Request{
		StudentID:   f.studentID,
		StudentName: name,
		StartRank:   f.start,
		NumWords:    f.count,
	})
	if err != nil {
		return lessonError(err)
	}

	out := cmd.OutOrStdout()
	if flags.jsonMode {
		return writeJSONOut(out, map[string]any{"name": res.Name, "url": res.URL, "words": res.Words})
	}
	fmt.Fprintf(out, "%s: %s\n", res.Name, res.URL)
	return nil
}

// lessonError maps generation failures to exit codes.
func lessonError(err error) error {
	switch {
	case errors.Is(err, types.ErrStorageFailure), errors.Is(err, types.ErrStoreDetached):
		return sysError("lesson: %w", err)
	default:
		return userError("lesson: %w", err)
	}
}
