package toolprovider

import (
	"context"
	"testing"

	"github.com/lashdev/lash/internal/store"
	"github.com/lashdev/lash/pkg/types"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Provider {
	return NewStatic(types.ToolDefinition{Name: name, Returns: "str"}, func(ctx context.Context, args []byte) types.ToolResult {
		return types.OK(name)
	})
}

func TestCompositeDispatch(t *testing.T) {
	c := NewComposite(echoTool("a"), echoTool("b"))
	require.Len(t, c.Definitions(), 2)

	res := c.Execute(context.Background(), "b", nil)
	require.True(t, res.Success)

	res = c.Execute(context.Background(), "missing", nil)
	require.False(t, res.Success)
}

func TestCompositeNeverPanicsOnUnknown(t *testing.T) {
	c := NewComposite()
	require.NotPanics(t, func() {
		c.Execute(context.Background(), "anything", nil)
	})
}

func TestFilteredHidesNames(t *testing.T) {
	base := NewComposite(echoTool("a"), echoTool("b"))
	f := NewFiltered(base, "a")
	require.Len(t, f.Definitions(), 1)
	require.Equal(t, "a", f.Definitions()[0].Name)

	res := f.Execute(context.Background(), "a", nil)
	require.True(t, res.Success)

	res = f.Execute(context.Background(), "b", nil)
	require.False(t, res.Success)
}

func TestArcToolForwards(t *testing.T) {
	base := echoTool("shared")
	arc1 := NewArcTool(base)
	arc2 := NewArcTool(base)

	c1 := NewComposite(arc1)
	c2 := NewComposite(arc2)

	require.Equal(t, c1.Definitions(), c2.Definitions())
	res := c2.Execute(context.Background(), "shared", nil)
	require.True(t, res.Success)
}

func TestViewMessageTool(t *testing.T) {
	st := store.New()
	hash, err := st.Archive("original content")
	require.NoError(t, err)

	vm := NewViewMessage(st)
	res := vm.Execute(context.Background(), "view_message", []byte(`{"hash":"`+hash+`"}`))
	require.True(t, res.Success)

	res = vm.Execute(context.Background(), "view_message", []byte(`{"hash":"deadbeefdead"}`))
	require.False(t, res.Success)
}
