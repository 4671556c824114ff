package extract

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libraryDescriptors() []ComponentDescriptor {
	return []ComponentDescriptor{
		{Name: "Button", SourcePath: "Button/Button.d.ts", ImportPath: "@acme/ui/Button"},
		{Name: "Chip", SourcePath: "Chip/Chip.d.ts", ImportPath: "@acme/ui/Chip"},
		{Name: "Widget", SourcePath: "Widget/Widget.d.ts", ImportPath: "@acme/ui/Widget"},
		{Name: "Broken", SourcePath: "Broken/Broken.d.ts", ImportPath: "@acme/ui/Broken"},
		{Name: "Missing", SourcePath: "Missing/Missing.d.ts", ImportPath: "@acme/ui/Missing"},
		{Name: "Card", SourcePath: "Card/Card.tsx", ImportPath: "@acme/ui/Card"},
	}
}

func resultNames(results []ComponentResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		names = append(names, r.ComponentName)
	}
	return names
}

func TestExtractSource_Button(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	src := []byte(`interface ButtonProps {
  label: string;
  /** @default false */
  disabled?: boolean;
  onClick?: () => void
}`)

	res, diags, err := ext.ExtractSource(ComponentDescriptor{Name: "Button", SourcePath: "Button.d.ts", ImportPath: "@acme/ui/Button"}, src)
	require.NoError(t, err)
	assert.Empty(t, diags)

	assert.Equal(t, "Button", res.ComponentName)
	assert.Equal(t, "@acme/ui/Button", res.ImportPath)
	require.Equal(t, []string{"label", "disabled", "onClick"}, memberNames(res.Props))
	assert.Equal(t, []string{"string", "boolean", "() => void"},
		[]string{res.Props[0].Type, res.Props[1].Type, res.Props[2].Type})
	assert.Equal(t, []bool{true, false, false},
		[]bool{res.Props[0].Required, res.Props[1].Required, res.Props[2].Required})
	assert.Nil(t, res.Props[0].Default)
	assert.Equal(t, strPtr("false"), res.Props[1].Default)
	assert.Nil(t, res.Props[2].Default)

	assert.Equal(t, []string{"onClick"}, eventNames(res.Events))
	assert.Empty(t, res.Slots)
}

func TestComponentResult_Prop(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	src := []byte("interface ChipProps {\n  /** @default 'filled' */\n  variant?: 'filled' | 'outlined';\n}\n")

	res, _, err := ext.ExtractSource(ComponentDescriptor{Name: "Chip", SourcePath: "Chip.d.ts"}, src)
	require.NoError(t, err)

	variant, ok := res.Prop("variant")
	require.True(t, ok)
	assert.Equal(t, `"filled" | "outlined"`, variant.Type)
	assert.Equal(t, strPtr("'filled'"), variant.Default)

	_, ok = res.Prop("Variant")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestExtractSource_NoMatchingInterface(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	src := []byte("export interface WidgetOptions { enabled: boolean }\n")

	res, diags, err := ext.ExtractSource(ComponentDescriptor{Name: "Widget", SourcePath: "Widget.d.ts"}, src)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Empty(t, res.Props)
	assert.Empty(t, res.Events)
	assert.Empty(t, res.Slots)

	require.Len(t, diags, 1)
	assert.Equal(t, DiagNoMatchingInterface, diags[0].Kind)
	assert.Equal(t, "Widget", diags[0].ComponentName)
	assert.Equal(t, "no declaration matches Widget in Widget.d.ts", diags[0].Detail)
}

func TestExtractSource_ParseFailure(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	src := []byte("export interface BrokenProps {\n  label: string;\n  value: = ;\n")

	res, _, err := ext.ExtractSource(ComponentDescriptor{Name: "Broken", SourcePath: "Broken.d.ts"}, src)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrParseFailure)

	var ce *ComponentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, FailureParse, ce.Kind)
	assert.Equal(t, "Broken", ce.Component)
	assert.Contains(t, err.Error(), "syntax error at")
}

func TestExtractSource_AllowPartialParse(t *testing.T) {
	ext := newTestExtractor(t, Options{AllowPartialParse: true})
	src := []byte("export interface BrokenProps {\n  label: string;\n  value: = ;\n")

	res, _, err := ext.ExtractSource(ComponentDescriptor{Name: "Broken", SourcePath: "Broken.d.ts"}, src)
	require.NoError(t, err)
	assert.NotNil(t, res)
}

func TestExtractSource_UnsupportedExtension(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	_, _, err := ext.ExtractSource(ComponentDescriptor{Name: "Card", SourcePath: "Card.vue"}, []byte("<template></template>"))
	assert.ErrorIs(t, err, ErrParseFailure)
}

func TestExtractSource_JavaScriptHasNoInterfaces(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	res, diags, err := ext.ExtractSource(ComponentDescriptor{Name: "Box", SourcePath: "Box.js"},
		[]byte("export default function Box(props) { return null; }\n"))
	require.NoError(t, err)
	assert.Empty(t, res.Props)
	require.Len(t, diags, 1)
	assert.Equal(t, DiagNoMatchingInterface, diags[0].Kind)
	assert.Equal(t, "no declaration matches Box in Box.js (not a .d.ts file)", diags[0].Detail)
}

func TestExtractComponent_SourceUnavailable(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	desc := ComponentDescriptor{Name: "Ghost", SourcePath: filepath.Join(t.TempDir(), "Ghost.d.ts")}

	res, _, err := ext.ExtractComponent(context.Background(), desc)
	assert.Nil(t, res)
	assert.ErrorIs(t, err, ErrSourceUnavailable)

	var ce *ComponentError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, FailureSourceUnavailable, ce.Failure().Kind)
	assert.Equal(t, desc.SourcePath, ce.Failure().SourcePath)
}

func TestExtractComponent_TSX(t *testing.T) {
	ext := newTestExtractor(t, Options{})
	desc := ComponentDescriptor{Name: "Card", SourcePath: filepath.Join(libRoot(t), "Card", "Card.tsx")}

	res, _, err := ext.ExtractComponent(context.Background(), desc)
	require.NoError(t, err)
	require.Equal(t, []string{"title", "elevation", "onSelect"}, memberNames(res.Props))
	assert.Equal(t, "Card heading.", res.Props[0].Description)
	assert.Equal(t, strPtr("1"), res.Props[1].Default)
	assert.Equal(t, "(id: string) => void", res.Props[2].Type)
	assert.Equal(t, []string{"onSelect"}, eventNames(res.Events))
}

func TestRun_Library(t *testing.T) {
	ext := newTestExtractor(t, Options{Workers: 2})

	run, err := ext.Run(context.Background(), libRoot(t), libraryDescriptors())
	require.NoError(t, err)

	assert.Equal(t, []string{"Button", "Chip", "Widget", "Card"}, resultNames(run.Results))

	require.Len(t, run.Failures, 2)
	assert.Equal(t, "Broken", run.Failures[0].ComponentName)
	assert.Equal(t, FailureParse, run.Failures[0].Kind)
	assert.Equal(t, "Missing", run.Failures[1].ComponentName)
	assert.Equal(t, FailureSourceUnavailable, run.Failures[1].Kind)
	assert.Equal(t, filepath.Join(libRoot(t), "Missing", "Missing.d.ts"), run.Failures[1].SourcePath)

	require.Len(t, run.Diagnostics, 1)
	assert.Equal(t, "Widget", run.Diagnostics[0].ComponentName)
	assert.Equal(t, DiagNoMatchingInterface, run.Diagnostics[0].Kind)

	button := run.Results[0]
	require.Equal(t,
		[]string{"label", "disabled", "variant", "onClick", "onFocusVisible", "once"},
		memberNames(button.Props))
	assert.Equal(t, "The text shown inside the button.", button.Props[0].Description)
	assert.Equal(t, `"text" | "outlined" | "contained"`, button.Props[2].Type)
	assert.Equal(t, strPtr("'contained'"), button.Props[2].Default)
	assert.Equal(t, "(event: React.FocusEvent<HTMLButtonElement>) => void", button.Props[4].Type)
	assert.Equal(t, []string{"onClick", "onFocusVisible"}, eventNames(button.Events))

	chip := run.Results[1]
	assert.Equal(t, []string{"label", "size", "onDelete", "ref"}, memberNames(chip.Props),
		"ChipPropsWithRef is declared last and wins")
	assert.Equal(t, "Chip text.", chip.Props[0].Description)
}

func TestRun_Index(t *testing.T) {
	ext := newTestExtractor(t, Options{
		IndexDescription: "ACME props",
		IndexVersion:     "5.x",
	})

	run, err := ext.Run(context.Background(), libRoot(t), libraryDescriptors())
	require.NoError(t, err)

	idx := run.Index
	assert.Equal(t, "ACME props", idx.Description)
	assert.Equal(t, "5.x", idx.Version)
	assert.Equal(t, "run-1", idx.RunID)
	assert.True(t, idx.ExtractionDate.Equal(fixedNow))
	assert.Equal(t, time.UTC, idx.ExtractionDate.Location())
	assert.Equal(t, len(run.Results), idx.TotalComponents)

	require.Len(t, idx.Components, 4)
	assert.Equal(t, ComponentSummary{
		File:          "button.json",
		ComponentName: "Button",
		ImportPath:    "@acme/ui/Button",
		PropsCount:    6,
		EventsCount:   2,
	}, idx.Components[0])
	assert.Equal(t, "widget.json", idx.Components[2].File)
	assert.Zero(t, idx.Components[2].PropsCount)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	descs := libraryDescriptors()
	for i := 0; i < 5; i++ {
		descs = append(descs, libraryDescriptors()...)
	}

	seq, err := newTestExtractor(t, Options{Workers: 1}).Run(context.Background(), libRoot(t), descs)
	require.NoError(t, err)
	par, err := newTestExtractor(t, Options{Workers: 8}).Run(context.Background(), libRoot(t), descs)
	require.NoError(t, err)

	assert.Equal(t, seq.Results, par.Results)
	assert.Equal(t, seq.Failures, par.Failures)
	assert.Equal(t, seq.Diagnostics, par.Diagnostics)
	assert.Equal(t, seq.Index, par.Index)
}

func TestRun_Empty(t *testing.T) {
	run, err := newTestExtractor(t, Options{}).Run(context.Background(), t.TempDir(), nil)
	require.NoError(t, err)
	assert.Empty(t, run.Results)
	assert.Empty(t, run.Failures)
	assert.Zero(t, run.Index.TotalComponents)
	assert.NotNil(t, run.Index.Components)
}

func TestRun_RootUnavailable(t *testing.T) {
	ext := newTestExtractor(t, Options{})

	_, err := ext.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), libraryDescriptors())
	assert.ErrorIs(t, err, ErrLibraryRootUnavailable)

	file := filepath.Join(t.TempDir(), "file.d.ts")
	require.NoError(t, os.WriteFile(file, []byte("export {}"), 0644))
	_, err = ext.Run(context.Background(), file, libraryDescriptors())
	assert.ErrorIs(t, err, ErrLibraryRootUnavailable)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestExtractor(t, Options{Workers: 2}).Run(ctx, libRoot(t), libraryDescriptors())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestComponentResult_JSON(t *testing.T) {
	res := newComponentResult(ComponentDescriptor{Name: "Button", ImportPath: "@acme/ui/Button"}, []MemberRecord{
		{Name: "label", Type: "string", Description: "label property", Required: true},
		{Name: "variant", Type: `"a" | "b"`, Description: "variant property", Default: strPtr("")},
	})

	data, err := json.Marshal(res)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Button", raw["component_name"])
	assert.Equal(t, []any{}, raw["events"])
	assert.Equal(t, []any{}, raw["slots"])

	props := raw["props"].([]any)
	require.Len(t, props, 2)
	assert.NotContains(t, props[0].(map[string]any), "default", "absent default is omitted")
	assert.Equal(t, "", props[1].(map[string]any)["default"], "empty default is kept")

	var back ComponentResult
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, *res, back)
}
