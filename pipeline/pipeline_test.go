package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/reorder/core"
)

type appendNode struct {
	name string
	id   int64
	err  error
	seen *[]string
}

func (n *appendNode) Name() string { return n.name }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	*n.seen = append(*n.seen, n.name)
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipeline_Run(t *testing.T) {
	var seen []string
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "a", id: 1, seen: &seen},
		&appendNode{name: "b", id: 2, seen: &seen},
	}}

	items, err := p.Run(context.Background(), core.NewRecommendContext(1), nil)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(1), items[0].ID)
	assert.Equal(t, int64(2), items[1].ID)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestPipeline_StopsOnError(t *testing.T) {
	var seen []string
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{
		&appendNode{name: "a", id: 1, seen: &seen},
		&appendNode{name: "broken", err: boom, seen: &seen},
		&appendNode{name: "c", id: 3, seen: &seen},
	}}

	items, err := p.Run(context.Background(), core.NewRecommendContext(1), nil)
	require.Error(t, err)
	assert.Nil(t, items)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node broken")
	assert.Equal(t, []string{"a", "broken"}, seen)
}

func TestPipeline_Empty(t *testing.T) {
	in := []*core.Item{core.NewItem(9)}
	out, err := (&Pipeline{}).Run(context.Background(), core.NewRecommendContext(1), in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}
