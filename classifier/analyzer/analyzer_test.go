package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicrafter/metacrafter/classifier/model"
)

func records(rows []map[string]any) model.Source {
	recs := make([]model.Record, 0, len(rows))
	for _, row := range rows {
		order := make([]string, 0, len(row))
		for k := range row {
			order = append(order, k)
		}
		recs = append(recs, model.NewRecord(order, row))
	}
	return model.NewSliceSource(recs)
}

func TestAnalyze_TypeInference(t *testing.T) {
	src := records([]map[string]any{
		{"age": "30"}, {"age": "41"}, {"age": "52"},
	})
	stats := Analyze(src, Options{})
	require.Len(t, stats, 1)
	assert.Equal(t, TypeInt, stats[0].FType)
}

func TestAnalyze_TypeWidensOnContradiction(t *testing.T) {
	src := records([]map[string]any{
		{"mixed": "30"}, {"mixed": "abc"},
	})
	stats := Analyze(src, Options{})
	require.Len(t, stats, 1)
	assert.Equal(t, TypeStr, stats[0].FType)
}

func TestAnalyze_DictionaryDetection(t *testing.T) {
	src := records([]map[string]any{
		{"status": "active"}, {"status": "active"}, {"status": "inactive"},
		{"status": "active"}, {"status": "active"}, {"status": "active"},
		{"status": "active"}, {"status": "active"}, {"status": "active"},
		{"status": "active"},
	})
	stats := Analyze(src, Options{DictShare: 25.0})
	require.Len(t, stats, 1)
	assert.True(t, stats[0].IsDictionary)
	assert.ElementsMatch(t, []string{"active", "inactive"}, stats[0].Dictionary)
}

func TestAnalyze_EmptyValuesExcludedFromNonEmpty(t *testing.T) {
	src := records([]map[string]any{
		{"v": ""}, {"v": "N/A"}, {"v": "x"},
	})
	stats := Analyze(src, Options{EmptyValues: DefaultEmptyTokens()})
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].SampleSize)
	assert.Equal(t, 1, stats[0].NonEmptyCount)
}

func TestAnalyze_LimitCapsSampledRows(t *testing.T) {
	rows := make([]map[string]any, 0, 10)
	for i := 0; i < 10; i++ {
		rows = append(rows, map[string]any{"f": "x"})
	}
	src := records(rows)
	stats := Analyze(src, Options{Limit: 3})
	require.Len(t, stats, 1)
	assert.Equal(t, 3, stats[0].SampleSize)
}

func TestAnalyze_FieldOrderFollowsFirstRecord(t *testing.T) {
	recs := []model.Record{
		model.NewRecord([]string{"b", "a"}, map[string]any{"b": "1", "a": "2"}),
		model.NewRecord([]string{"c"}, map[string]any{"c": "3"}),
	}
	src := model.NewSliceSource(recs)
	stats := Analyze(src, Options{})
	require.Len(t, stats, 3)
	assert.Equal(t, "b", stats[0].Field)
	assert.Equal(t, "a", stats[1].Field)
	assert.Equal(t, "c", stats[2].Field)
}
