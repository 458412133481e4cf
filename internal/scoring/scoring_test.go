package scoring

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/omr-grader-mcp/internal/answerkey"
)

func TestScore_Example(t *testing.T) {
	key := answerkey.NewKey([]string{"Math"}, map[string]map[int]string{"Math": {1: "a", 2: "c"}})

	res := Score(map[int]string{1: "a", 2: "b"}, key)

	assert.Equal(t, map[string]int{"Math": 1, "Total": 1}, res.Map())

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Math": 1, "Total": 1}`, string(data))
}

func TestScore_ExactStringMatch(t *testing.T) {
	key := answerkey.NewKey(nil, map[string]map[int]string{"Math": {1: "a,b", 2: "a,b", 3: "a,b"}})

	res := Score(map[int]string{1: "a,b", 2: "a", 3: "b,a"}, key)

	assert.Equal(t, 1, res.Total)
	require.Len(t, res.Details, 3)
	assert.True(t, res.Details[0].Correct)
	assert.False(t, res.Details[1].Correct)
	assert.False(t, res.Details[2].Correct)
}

func TestScore_IgnoresQuestionsOutsideKey(t *testing.T) {
	key := answerkey.NewKey(nil, map[string]map[int]string{"Bio": {5: "d"}})

	res := Score(map[int]string{1: "a", 2: "b", 5: "d", 99: "c"}, key)
	assert.Equal(t, map[string]int{"Bio": 1, "Total": 1}, res.Map())
	assert.Len(t, res.Details, 1)
}

func TestScore_MissingAnswersScoreZero(t *testing.T) {
	key := answerkey.NewKey(nil, map[string]map[int]string{"Bio": {1: "a"}, "Chem": {2: "b"}})

	res := Score(nil, key)
	assert.Equal(t, map[string]int{"Bio": 0, "Chem": 0, "Total": 0}, res.Map())
	assert.Equal(t, "", res.Details[0].Detected)
}

func TestScore_NilKey(t *testing.T) {
	res := Score(map[int]string{1: "a"}, nil)
	assert.Equal(t, 0, res.Total)

	data, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Equal(t, `{"Total":0}`, string(data))
}

func TestScore_TotalIsSum(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	opts := []string{"a", "b", "c", "d", "a,b"}

	for i := 0; i < 200; i++ {
		answers := map[string]map[int]string{}
		for s := 0; s < 1+rng.Intn(4); s++ {
			m := map[int]string{}
			for q := 0; q < rng.Intn(20); q++ {
				m[1+rng.Intn(40)] = opts[rng.Intn(len(opts))]
			}
			answers[string(rune('A'+s))] = m
		}
		detected := map[int]string{}
		for q := 0; q < rng.Intn(40); q++ {
			detected[1+rng.Intn(40)] = opts[rng.Intn(len(opts))]
		}

		res := Score(detected, answerkey.NewKey(nil, answers))

		sum := 0
		for _, s := range res.Subjects {
			sum += s.Score
		}
		require.Equal(t, sum, res.Total)
	}
}

func TestScore_Idempotent(t *testing.T) {
	key := answerkey.NewKey([]string{"Physics", "Math"}, map[string]map[int]string{
		"Math":    {1: "a", 2: "b", 3: "c"},
		"Physics": {4: "d", 5: "a,b"},
	})
	detected := map[int]string{1: "a", 3: "d", 4: "d", 5: "a,b"}

	first := Score(detected, key)
	second := Score(detected, key)
	assert.Equal(t, first, second)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))
	assert.Equal(t, `{"Physics":2,"Math":1,"Total":3}`, string(a))
}
