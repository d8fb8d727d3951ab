package search

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryBody(t *testing.T) {
	t.Parallel()

	body := QueryBody("laptop", 20, 10)

	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])
	mm := body["query"].(map[string]any)["multi_match"].(map[string]any)
	assert.Equal(t, "laptop", mm["query"])
	assert.Equal(t, "AUTO", mm["fuzziness"])
	assert.Contains(t, mm["fields"], "name^2")
}

func TestDecodeHits(t *testing.T) {
	t.Parallel()

	payload := `{"hits":{"total":{"value":7},"hits":[
		{"_source":{"id":3,"name":"Laptop"}},
		{"_source":{"id":1,"name":"Laptop bag"}}
	]}}`

	total, ids, err := DecodeHits(strings.NewReader(payload))
	require.NoError(t, err)
	assert.EqualValues(t, 7, total)
	assert.Equal(t, []uint{3, 1}, ids)
}

func TestDecodeHits_BadJSON(t *testing.T) {
	t.Parallel()

	_, _, err := DecodeHits(strings.NewReader("{"))
	assert.Error(t, err)
}

// Runs only against a real cluster, e.g. ES_URL=http://localhost:9200.
func TestIndex_Integration(t *testing.T) {
	url := os.Getenv("ES_URL")
	if url == "" {
		t.Skip("ES_URL not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	ix, err := NewClient(ctx, Config{
		URL:      url,
		Username: os.Getenv("ES_USER"),
		Password: os.Getenv("ES_PASSWORD"),
		Index:    "sale_test_products",
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	doc := ProductDoc{ID: 99, Name: "Mechanical keyboard", Description: "brown switches", Price: "99.90", Quantity: 3}
	require.NoError(t, ix.Upsert(ctx, doc))

	require.Eventually(t, func() bool {
		_, ids, err := ix.Search(ctx, "keybord", 0, 10)
		return err == nil && len(ids) > 0 && ids[0] == 99
	}, 10*time.Second, 200*time.Millisecond)

	require.NoError(t, ix.Delete(ctx, 99))
	require.NoError(t, ix.Delete(ctx, 99))
}
