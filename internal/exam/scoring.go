// Package exam implements the scoring engine, the result ledger and the
// class-level progression machine behind exam submissions.
package exam

import "github.com/adomako/registrar/internal/model"

// Outcome is the result of scoring one submission. It is a pure value:
// per-question correctness lives here, never on the shared question rows,
// so concurrent gradings of the same exam cannot interfere.
type Outcome struct {
	Score   int
	Grade   float64
	Status  model.ResultStatus
	Remark  model.Remark
	Answers []model.AnswerReview
}

// Score grades an ordered answer list against the exam's questions.
// Answers are matched positionally against the stable exam-defined
// question order; each must name the chosen option (A-D) and is compared
// exactly against the question's correct option. An answer count that
// does not match the question count fails with ErrIncompleteSubmission.
func Score(ex model.Exam, questions []model.Question, answers []model.Option) (Outcome, error) {
	if len(answers) != len(questions) {
		return Outcome{}, model.ErrIncompleteSubmission
	}

	var out Outcome
	for i, q := range questions {
		correct := answers[i] == q.CorrectOption
		if correct {
			out.Score++
		}
		out.Answers = append(out.Answers, model.AnswerReview{
			Position:      i + 1,
			Question:      q.Text,
			CorrectOption: q.CorrectOption,
			ChosenOption:  answers[i],
			Correct:       correct,
		})
	}

	// An exam without questions grades to zero rather than NaN.
	if len(questions) > 0 {
		out.Grade = float64(out.Score) / float64(len(questions)) * 100
	}
	out.Status = statusFor(out.Grade, ex.PassMark, ex.TotalMark)
	out.Remark = remarkFor(out.Grade)
	return out, nil
}

// statusFor classifies a grade against the exam's configured pass and
// total marks. With the default 50/100 marks this is the plain
// grade-at-least-50 rule.
func statusFor(grade float64, passMark, totalMark int) model.ResultStatus {
	passPct := 50.0
	if totalMark > 0 {
		passPct = float64(passMark) / float64(totalMark) * 100
	}
	if grade >= passPct {
		return model.StatusPass
	}
	return model.StatusFail
}

// remarkFor maps a grade to its qualitative tier, highest tier first.
func remarkFor(grade float64) model.Remark {
	switch {
	case grade >= 80:
		return model.RemarkExcellent
	case grade >= 70:
		return model.RemarkVeryGood
	case grade >= 60:
		return model.RemarkGood
	case grade >= 50:
		return model.RemarkFair
	default:
		return model.RemarkPoor
	}
}
