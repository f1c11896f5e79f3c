package core

// Evaluate converts raw per-category scores into a single verdict. Each
// category is an independent trigger: the verdict is flagged when any score
// is greater than or equal to the threshold. Among triggering categories the
// one with the highest score is reported; exact ties resolve to the earlier
// entry of Categories (Sexual > Dangerous > Violent) so output is
// reproducible. The threshold is validated as part of configuration and is
// assumed to be within [0.0, 1.0] here.
func Evaluate(scores CategoryScores, threshold float64) Verdict {
	verdict := Verdict{}
	for _, category := range Categories {
		score := scores.Score(category)
		if score < threshold {
			continue
		}
		// Strict comparison keeps the first category on equal scores.
		if !verdict.Flagged || score > verdict.Score {
			verdict = Verdict{Flagged: true, Category: category, Score: score}
		}
	}
	return verdict
}
