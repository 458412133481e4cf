// Package scoring compares detected answers with an answer key.
//
// Score is a pure function: the same answers and key always give the same
// Result. For every question in the key one point is awarded when the
// detected token is exactly the stored answer string. A question the key
// lists as "a,b" therefore needs the detected token "a,b", not "a" and not
// "b,a". Questions missing from the key are neither credited nor penalized.
package scoring

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/ironsheep/omr-grader-mcp/internal/answerkey"
)

// TotalField is the reserved result field holding the sum of all subjects.
const TotalField = answerkey.ReservedColumn

// SubjectScore is the score of one subject.
type SubjectScore struct {
	Subject   string `json:"subject"`
	Score     int    `json:"score"`
	Questions int    `json:"questions"`
}

// QuestionResult records one comparison for auditing.
type QuestionResult struct {
	Subject  string `json:"subject"`
	Question int    `json:"question"`
	Expected string `json:"expected"`
	Detected string `json:"detected"`
	Correct  bool   `json:"correct"`
}

// Result is an evaluation result. Total always equals the sum of the
// subject scores.
type Result struct {
	Subjects []SubjectScore
	Total    int
	Details  []QuestionResult
}

// Score grades detected answers against key. A nil key scores nothing.
func Score(answers map[int]string, key *answerkey.Key) Result {
	res := Result{Subjects: []SubjectScore{}, Details: []QuestionResult{}}
	if key == nil {
		return res
	}

	for _, subject := range key.Subjects() {
		ss := SubjectScore{Subject: subject}
		for _, q := range key.Questions(subject) {
			expected, _ := key.Expected(subject, q)
			detected, answered := answers[q]
			correct := answered && detected == expected

			if correct {
				ss.Score++
			}
			ss.Questions++
			res.Details = append(res.Details, QuestionResult{
				Subject:  subject,
				Question: q,
				Expected: expected,
				Detected: detected,
				Correct:  correct,
			})
		}
		res.Subjects = append(res.Subjects, ss)
		res.Total += ss.Score
	}
	return res
}

// Map returns the flat form: subject -> score plus "Total".
func (r Result) Map() map[string]int {
	m := make(map[string]int, len(r.Subjects)+1)
	for _, s := range r.Subjects {
		m[s.Subject] = s.Score
	}
	m[TotalField] = r.Total
	return m
}

// MarshalJSON encodes the flat form with subjects in key order and "Total"
// last: {"Math":1,"Physics":3,"Total":4}.
func (r Result) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for _, s := range r.Subjects {
		name, err := json.Marshal(s.Subject)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.WriteString(strconv.Itoa(s.Score))
		buf.WriteByte(',')
	}
	buf.WriteString(strconv.Quote(TotalField))
	buf.WriteByte(':')
	buf.WriteString(strconv.Itoa(r.Total))
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
