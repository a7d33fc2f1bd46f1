package presenter

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/skillstack/pkg/matrix"
	"github.com/jingkaihe/skillstack/pkg/resolver"
)

func newBuffered() (*TerminalPresenter, *bytes.Buffer, *bytes.Buffer) {
	var output, errorOutput bytes.Buffer
	return NewWithOptions(&output, &errorOutput, ColorNever), &output, &errorOutput
}

func TestNew(t *testing.T) {
	p := New()
	require.NotNil(t, p)
	assert.Equal(t, os.Stdout, p.output)
	assert.Equal(t, os.Stderr, p.errorOutput)
	assert.False(t, p.IsQuiet())
}

func TestDetectColorMode(t *testing.T) {
	tests := []struct {
		name     string
		noColor  string
		color    string
		expected ColorMode
	}{
		{"NO_COLOR set", "1", "always", ColorNever},
		{"always", "", "always", ColorAlways},
		{"force", "", "force", ColorAlways},
		{"never", "", "never", ColorNever},
		{"off", "", "off", ColorNever},
		{"auto", "", "auto", ColorAuto},
		{"unset", "", "", ColorAuto},
		{"unknown value", "", "rainbow", ColorAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("NO_COLOR", tt.noColor)
			t.Setenv("SKILLSTACK_COLOR", tt.color)
			assert.Equal(t, tt.expected, detectColorMode())
		})
	}
}

func TestError(t *testing.T) {
	p, _, errOut := newBuffered()

	p.Error(errors.New("boom"), "loading matrix")
	assert.Equal(t, "[ERROR] loading matrix: boom\n", errOut.String())

	errOut.Reset()
	p.Error(errors.New("boom"), "")
	assert.Equal(t, "[ERROR] boom\n", errOut.String())

	errOut.Reset()
	p.Error(nil, "context")
	assert.Empty(t, errOut.String())
}

func TestMessages(t *testing.T) {
	p, out, _ := newBuffered()

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Skills")
	p.Separator()

	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "✓ done", lines[0])
	assert.Equal(t, "⚠ careful", lines[1])
	assert.Equal(t, "plain", lines[2])
	assert.Equal(t, "Skills", lines[3])
	assert.Equal(t, "------", lines[4])
	assert.Equal(t, strings.Repeat("-", 60), lines[5])
}

func TestQuietMode(t *testing.T) {
	p, out, errOut := newBuffered()
	p.SetQuiet(true)
	assert.True(t, p.IsQuiet())

	p.Success("done")
	p.Warning("careful")
	p.Info("plain")
	p.Section("Skills")
	p.Separator()
	assert.Empty(t, out.String())

	p.Error(errors.New("still shown"), "")
	assert.Contains(t, errOut.String(), "still shown")
}

func TestPrompt(t *testing.T) {
	p, out, _ := newBuffered()
	p.input = strings.NewReader("  yes \n")

	answer := p.Prompt("Delete selection frontend?", "y", "N")
	assert.Equal(t, "yes", answer)
	assert.Equal(t, "Delete selection frontend? [y/N]: ", out.String())

	p.input = strings.NewReader("")
	assert.Empty(t, p.Prompt("Anything"))
}

func TestReport(t *testing.T) {
	t.Run("invalid selection", func(t *testing.T) {
		p, out, errOut := newBuffered()
		p.Report(&resolver.ValidationResult{
			Valid: false,
			Errors: []resolver.Issue{
				{Type: resolver.IssueConflict, Message: "React conflicts with Vue: Pick one"},
			},
			Warnings: []resolver.Issue{
				{Type: resolver.IssueMissingRecommendation, Message: "React recommends Zustand"},
				{Type: resolver.IssueUnusedSetup, Message: "Setup is unused"},
			},
		})

		assert.Equal(t, "✗ [conflict] React conflicts with Vue: Pick one\n", errOut.String())
		assert.Contains(t, out.String(), "⚠ [missing_recommendation] React recommends Zustand")
		assert.Contains(t, out.String(), "1 error, 2 warnings")
	})

	t.Run("valid with warnings", func(t *testing.T) {
		p, out, _ := newBuffered()
		p.Report(&resolver.ValidationResult{
			Valid:    true,
			Warnings: []resolver.Issue{{Type: resolver.IssueMissingSetup, Message: "x"}},
		})
		assert.Contains(t, out.String(), "Selection is valid with 1 warning")
	})

	t.Run("clean", func(t *testing.T) {
		p, out, _ := newBuffered()
		p.Report(&resolver.ValidationResult{Valid: true})
		assert.Equal(t, "✓ Selection is valid\n", out.String())
	})

	t.Run("quiet keeps errors", func(t *testing.T) {
		p, out, errOut := newBuffered()
		p.SetQuiet(true)
		p.Report(&resolver.ValidationResult{
			Errors:   []resolver.Issue{{Type: resolver.IssueCategoryExclusive, Message: "too many"}},
			Warnings: []resolver.Issue{{Type: resolver.IssueUnusedSetup, Message: "unused"}},
		})
		assert.Empty(t, out.String())
		assert.Contains(t, errOut.String(), "too many")
	})
}

func TestDiagnostics(t *testing.T) {
	p, out, errOut := newBuffered()
	p.Diagnostics([]matrix.Diagnostic{
		{Severity: matrix.SeverityError, Subject: "s1", Message: "skill has no category"},
		{Severity: matrix.SeverityWarning, Subject: "s2", Message: `alias points at unknown skill "x"`},
	})
	assert.Equal(t, "✗ s1: skill has no category\n", errOut.String())
	assert.Contains(t, out.String(), `⚠ s2: alias points at unknown skill "x"`)

	out.Reset()
	p.Diagnostics(nil)
	assert.Contains(t, out.String(), "Matrix is consistent")
}

func TestGlobalFunctions(t *testing.T) {
	original := defaultPresenter
	defer func() { defaultPresenter = original }()

	p, out, errOut := newBuffered()
	defaultPresenter = p

	Error(errors.New("test error"), "ctx")
	assert.Contains(t, errOut.String(), "[ERROR] ctx: test error")

	Success("ok")
	Warning("warn")
	Info("info")
	Section("Title")
	Report(&resolver.ValidationResult{Valid: true})
	assert.Contains(t, out.String(), "✓ ok")
	assert.Contains(t, out.String(), "⚠ warn")
	assert.Contains(t, out.String(), "Title")
	assert.Contains(t, out.String(), "Selection is valid")

	SetQuiet(true)
	assert.True(t, IsQuiet())
	out.Reset()
	Info("hidden")
	assert.Empty(t, out.String())
}
