package tui

import (
	"testing"

	"github.com/rivo/tview"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestModuleGraphIsComplete(t *testing.T) {
	require.NoError(t, fx.ValidateApp(Module(Params{InstanceName: "test"})))
}

func TestEditingWidgetsKeepKeys(t *testing.T) {
	require.True(t, editing(tview.NewInputField()))
	require.True(t, editing(tview.NewDropDown()))
	require.True(t, editing(tview.NewButton("ok")))
	require.False(t, editing(tview.NewTable()))
	require.False(t, editing(tview.NewTextView()))
	require.False(t, editing(nil))
}
