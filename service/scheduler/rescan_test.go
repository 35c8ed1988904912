package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apicrafter/metacrafter/classifier/analyzer"
	"github.com/apicrafter/metacrafter/classifier/catalog"
	"github.com/apicrafter/metacrafter/classifier/engine"
)

func emptyCatalogFn() *catalog.Catalog {
	cat, _ := catalog.Load(nil)
	return cat
}

func TestRescanService_OpenUnknownSourceKind(t *testing.T) {
	s, err := NewRescanService(RescanConfig{SourceKind: "bogus"}, emptyCatalogFn, engine.Options{}, analyzer.Options{})
	require.NoError(t, err)

	_, _, err = s.open(context.Background())
	require.Error(t, err)
}

func TestRescanService_OpenKafkaDoesNotDialEagerly(t *testing.T) {
	s, err := NewRescanService(RescanConfig{
		SourceKind:   "kafka",
		KafkaBrokers: []string{"127.0.0.1:9"}, // unreachable; construction must still succeed
		KafkaTopic:   "fields",
		KafkaGroupID: "metacrafter-test",
		MaxMessages:  10,
	}, emptyCatalogFn, engine.Options{}, analyzer.Options{})
	require.NoError(t, err)

	src, closeFn, err := s.open(context.Background())
	require.NoError(t, err)
	require.NotNil(t, src)
	closeFn()
}

func TestRescanService_RescanOnceLogsOpenErrorWithoutPanicking(t *testing.T) {
	s, err := NewRescanService(RescanConfig{SourceKind: "bogus"}, emptyCatalogFn, engine.Options{}, analyzer.Options{})
	require.NoError(t, err)

	assert.NotPanics(t, func() {
		s.rescanOnce(context.Background())
	})
}
