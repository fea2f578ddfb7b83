package service

import (
	"math"
	"time"

	"github.com/lshigami/Classtrail/internal/dto"
	"github.com/lshigami/Classtrail/internal/model"
)

const (
	approvedPoints = 100.0
	MaxScore       = 100.0
)

// LessonXP is the experience granted for one lesson submission.
func LessonXP(completed bool, score float64, xpReward int) int {
	if !completed {
		return 0
	}
	return int(math.Round(score / MaxScore * float64(xpReward)))
}

// ComputeAggregateScore weighs each criterion as 100 when approved and 0 otherwise,
// normalised by the weights present. Rounded to two decimals.
func ComputeAggregateScore(evaluations []model.Evaluation) float64 {
	var weighted, weights float64
	for _, e := range evaluations {
		w := e.Criterion.Weight
		if e.Approved {
			weighted += approvedPoints * w
		}
		weights += w
	}
	if len(evaluations) == 0 || weights == 0 {
		return 0
	}
	return round2(weighted / weights)
}

// IsApproved requires every criterion to approve; an answer without evaluations is not approved.
func IsApproved(evaluations []model.Evaluation) bool {
	if len(evaluations) == 0 {
		return false
	}
	for _, e := range evaluations {
		if !e.Approved {
			return false
		}
	}
	return true
}

// ElapsedMinutes rounds the attempt duration to whole minutes, 0 when a timestamp is missing.
func ElapsedMinutes(startedAt, finishedAt *time.Time) int64 {
	if startedAt == nil || finishedAt == nil {
		return 0
	}
	return int64(math.Round(finishedAt.Sub(*startedAt).Minutes()))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func percent[T ~int | ~int64](part, total T) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// latestAnswers keeps the most recent answer for each question.
func latestAnswers(answers []model.Answer) map[uint]model.Answer {
	latest := make(map[uint]model.Answer, len(answers))
	for _, a := range answers {
		if cur, ok := latest[a.QuestionID]; !ok || !a.SubmittedAt.Before(cur.SubmittedAt) {
			latest[a.QuestionID] = a
		}
	}
	return latest
}

// gradingSheet is the per-attempt tally used by statistics and auto-completion.
type gradingSheet struct {
	Total    int
	Answered int
	Approved int
}

func (g gradingSheet) Missing() int     { return g.Total - g.Answered }
func (g gradingSheet) NeedsReview() int { return g.Answered - g.Approved }
func (g gradingSheet) Complete() bool   { return g.Total > 0 && g.Answered == g.Total && g.Approved == g.Total }

// buildGradingSheet counts questions whose latest answer is evaluated and approved.
func buildGradingSheet(questions []model.Question, answers []model.Answer) gradingSheet {
	sheet := gradingSheet{Total: len(questions)}
	latest := latestAnswers(answers)
	for _, q := range questions {
		a, ok := latest[q.ID]
		if !ok || len(a.Evaluations) == 0 {
			continue
		}
		sheet.Answered++
		if IsApproved(a.Evaluations) {
			sheet.Approved++
		}
	}
	return sheet
}

func (g gradingSheet) Stats() dto.AttemptStats {
	return dto.AttemptStats{
		TotalQuestions:    g.Total,
		AnalyzedQuestions: g.Answered,
		ApprovedQuestions: g.Approved,
		CompletionPercent: percent(g.Answered, g.Total),
		ApprovalPercent:   percent(g.Approved, g.Answered),
	}
}
