package answerkey

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
)

// Key is a parsed answer key: subject -> question -> expected answer.
// A Key is immutable.
type Key struct {
	subjects []string
	answers  map[string]map[int]string
}

// NewKey builds a Key from a copy of answers. Subjects are ordered as listed;
// subjects present only in answers follow in sorted order.
func NewKey(subjects []string, answers map[string]map[int]string) *Key {
	k := &Key{answers: make(map[string]map[int]string, len(answers))}

	add := func(s string) {
		if _, ok := k.answers[s]; ok {
			return
		}
		m := make(map[int]string, len(answers[s]))
		for q, a := range answers[s] {
			m[q] = a
		}
		k.answers[s] = m
		k.subjects = append(k.subjects, s)
	}

	for _, s := range subjects {
		add(s)
	}
	rest := make([]string, 0)
	for s := range answers {
		if _, ok := k.answers[s]; !ok {
			rest = append(rest, s)
		}
	}
	sort.Strings(rest)
	for _, s := range rest {
		add(s)
	}
	return k
}

// Subjects returns the subjects in key order.
func (k *Key) Subjects() []string {
	return append([]string(nil), k.subjects...)
}

// Questions returns the question numbers of a subject, ascending.
func (k *Key) Questions(subject string) []int {
	qs := make([]int, 0, len(k.answers[subject]))
	for q := range k.answers[subject] {
		qs = append(qs, q)
	}
	sort.Ints(qs)
	return qs
}

// Expected returns the stored answer for a question.
func (k *Key) Expected(subject string, question int) (string, bool) {
	a, ok := k.answers[subject][question]
	return a, ok
}

// Len returns the number of question entries across all subjects.
func (k *Key) Len() int {
	n := 0
	for _, m := range k.answers {
		n += len(m)
	}
	return n
}

// Map returns a copy of the key as nested maps.
func (k *Key) Map() map[string]map[int]string {
	out := make(map[string]map[int]string, len(k.answers))
	for s, m := range k.answers {
		c := make(map[int]string, len(m))
		for q, a := range m {
			c[q] = a
		}
		out[s] = c
	}
	return out
}

// MarshalJSON encodes the key as {"Subject": {"1": "a", ...}, ...} with
// subjects in key order and questions ascending.
func (k *Key) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range k.subjects {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(s)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteString(":{")
		for j, q := range k.Questions(s) {
			if j > 0 {
				buf.WriteByte(',')
			}
			ans, err := json.Marshal(k.answers[s][q])
			if err != nil {
				return nil, err
			}
			buf.WriteString(strconv.Quote(strconv.Itoa(q)))
			buf.WriteByte(':')
			buf.Write(ans)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
