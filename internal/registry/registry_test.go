package registry

import (
	"context"
	"testing"

	"github.com/karlmdavis/justdavis-finances-sub001/internal/ctxlog"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/flow"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/node"
	"github.com/karlmdavis/justdavis-finances-sub001/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noop(context.Context, *flow.Context) (*flow.Result, error) {
	return flow.Succeeded(), nil
}

func TestRegister(t *testing.T) {
	ctx := context.Background()
	r := New()

	require.NoError(t, r.RegisterFunc(ctx, "bank_sync", noop, nil, nil))
	require.NoError(t, r.RegisterFunc(ctx, "amazon_match", noop, []string{"bank_sync"}, nil))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"bank_sync", "amazon_match"}, r.Names())

	n, ok := r.Node("amazon_match")
	require.True(t, ok)
	assert.Equal(t, []string{"bank_sync"}, n.Dependencies())

	_, ok = r.Node("missing")
	assert.False(t, ok)
}

func TestRegisterEmptyName(t *testing.T) {
	err := New().RegisterFunc(context.Background(), "", noop, nil, nil)
	assert.ErrorIs(t, err, ErrEmptyName)
}

func TestRegisterOverwriteWarns(t *testing.T) {
	buf := &testutil.SafeBuffer{}
	ctx := ctxlog.WithLogger(context.Background(), testutil.NewTestLogger(buf))
	r := New()

	require.NoError(t, r.RegisterFunc(ctx, "a", noop, nil, nil))
	require.NoError(t, r.RegisterFunc(ctx, "b", noop, nil, nil))
	require.NoError(t, r.RegisterFunc(ctx, "a", noop, []string{"b"}, nil))

	assert.Equal(t, []string{"a", "b"}, r.Names(), "overwrite keeps the original position")
	n, _ := r.Node("a")
	assert.Equal(t, []string{"b"}, n.Dependencies())
	assert.Contains(t, buf.String(), "Overwriting previously registered node.")
}

func TestValidateDependencies(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.RegisterFunc(ctx, "a", noop, []string{"ghost", "b"}, nil))
	require.NoError(t, r.RegisterFunc(ctx, "b", noop, nil, nil))
	require.NoError(t, r.RegisterFunc(ctx, "c", noop, []string{"phantom"}, nil))

	assert.Equal(t, []string{
		`node "a" depends on unknown node "ghost"`,
		`node "c" depends on unknown node "phantom"`,
	}, r.ValidateDependencies())
}

func TestDetectCycles(t *testing.T) {
	ctx := context.Background()

	acyclic := New()
	require.NoError(t, acyclic.RegisterFunc(ctx, "a", noop, nil, nil))
	require.NoError(t, acyclic.RegisterFunc(ctx, "b", noop, []string{"a"}, nil))
	assert.Empty(t, acyclic.DetectCycles())
	assert.NoError(t, acyclic.Validate(ctx))

	cyclic := New()
	require.NoError(t, cyclic.RegisterFunc(ctx, "a", noop, []string{"c"}, nil))
	require.NoError(t, cyclic.RegisterFunc(ctx, "b", noop, []string{"a"}, nil))
	require.NoError(t, cyclic.RegisterFunc(ctx, "c", noop, []string{"b"}, nil))
	assert.Equal(t, [][]string{{"a", "c", "b"}}, cyclic.DetectCycles())

	err := cyclic.Validate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dependency cycle detected: a -> c -> b -> a")
}

func TestNodesIsSnapshot(t *testing.T) {
	ctx := context.Background()
	r := New()
	require.NoError(t, r.Register(ctx, node.NewFunc("a", noop, nil, nil)))
	snapshot := r.Nodes()
	require.NoError(t, r.RegisterFunc(ctx, "b", noop, nil, nil))
	assert.Len(t, snapshot, 1)
	assert.Len(t, r.Nodes(), 2)
}
