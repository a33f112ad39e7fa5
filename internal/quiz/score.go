package quiz

import "document-quiz/internal/models"

var gradeMessages = map[models.Grade]string{
	models.GradeA: "Excellent!",
	models.GradeB: "Very Good!",
	models.GradeC: "Good!",
	models.GradeD: "Pass!",
	models.GradeF: "Need Improvement!",
}

// Score awards pointsPerQuestion for every selection equal to the item's
// answer. An empty quiz scores 0 out of 0 at 0%.
func Score(quiz models.Quiz, sheet models.AnswerSheet, pointsPerQuestion int) models.ScoreResult {
	res := models.ScoreResult{Items: make([]models.ItemResult, len(quiz))}
	for i, item := range quiz {
		selected, answered := sheet.Selected(i)
		right := answered && selected == item.Answer
		ir := models.ItemResult{
			Index:    i,
			Question: item.Question,
			Selected: selected,
			Correct:  item.Answer,
			Answered: answered,
			IsRight:  right,
		}
		if right {
			ir.Awarded = pointsPerQuestion
			res.Earned += pointsPerQuestion
		}
		res.Items[i] = ir
	}
	res.Total = pointsPerQuestion * len(quiz)
	if res.Total > 0 {
		res.Percentage = float64(res.Earned) * 100 / float64(res.Total)
	}
	res.Grade, res.Message = GradeFor(res.Percentage)
	return res
}

// GradeFor maps a percentage to its letter and message.
func GradeFor(percentage float64) (models.Grade, string) {
	var g models.Grade
	switch {
	case percentage >= 90:
		g = models.GradeA
	case percentage >= 80:
		g = models.GradeB
	case percentage >= 70:
		g = models.GradeC
	case percentage >= 60:
		g = models.GradeD
	default:
		g = models.GradeF
	}
	return g, gradeMessages[g]
}
