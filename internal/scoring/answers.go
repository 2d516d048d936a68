package scoring

import (
	"fmt"
	"strings"
)

type Dimension int

const (
	Feelings Dimension = iota
	Understanding
	Interaction
	Energy
	Drive
	Stability
)

const NumDimensions = 6

const (
	MinAnswer = 0
	MaxAnswer = 4
)

var dimensionNames = [NumDimensions]string{"feelings", "understanding", "interaction", "energy", "drive", "stability"}

func (d Dimension) String() string {
	if d < 0 || int(d) >= NumDimensions {
		return fmt.Sprintf("dimension(%d)", int(d))
	}
	return dimensionNames[d]
}

// Dimensions lists every FUIEDS dimension in canonical order.
func Dimensions() []Dimension {
	return []Dimension{Feelings, Understanding, Interaction, Energy, Drive, Stability}
}

// RawAnswers is one day's unvalidated self-ratings. A nil field is a missing answer.
type RawAnswers struct {
	Feelings      *int
	Understanding *int
	Interaction   *int
	Energy        *int
	Drive         *int
	Stability     *int
}

func (r RawAnswers) byDimension() [NumDimensions]*int {
	return [NumDimensions]*int{r.Feelings, r.Understanding, r.Interaction, r.Energy, r.Drive, r.Stability}
}

// Answers are validated ratings, each in [MinAnswer, MaxAnswer], indexed by Dimension.
type Answers [NumDimensions]int

func (a Answers) Get(d Dimension) int { return a[d] }

// FieldError describes one rejected answer.
type FieldError struct {
	Dimension Dimension
	Reason    string
}

// ValidationError lists every rejected answer in a submission.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s_answer %s", f.Dimension, f.Reason))
	}
	return "invalid answers: " + strings.Join(parts, "; ")
}

// Validate checks presence and range of all six answers.
func (r RawAnswers) Validate() (Answers, error) {
	var (
		out  Answers
		errs []FieldError
	)
	for i, p := range r.byDimension() {
		d := Dimension(i)
		switch {
		case p == nil:
			errs = append(errs, FieldError{Dimension: d, Reason: "is required"})
		case *p < MinAnswer || *p > MaxAnswer:
			errs = append(errs, FieldError{Dimension: d, Reason: fmt.Sprintf("must be between %d and %d, got %d", MinAnswer, MaxAnswer, *p)})
		default:
			out[d] = *p
		}
	}
	if len(errs) > 0 {
		return Answers{}, &ValidationError{Fields: errs}
	}
	return out, nil
}

// NewRawAnswers is a convenience for callers holding plain ints.
func NewRawAnswers(f, u, i, e, d, s int) RawAnswers {
	return RawAnswers{Feelings: &f, Understanding: &u, Interaction: &i, Energy: &e, Drive: &d, Stability: &s}
}
