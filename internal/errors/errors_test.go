package errors

import (
	stderrors "errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderError_Error(t *testing.T) {
	err := New(StageSynth, "App.tsx", "unresolvable import \"sharp\"")
	assert.Equal(t, `synthesize: App.tsx: error: unresolvable import "sharp"`, err.Error())

	noFile := New(StageSandbox, "", "frame load timed out")
	assert.Equal(t, "sandbox: error: frame load timed out", noFile.Error())
}

func TestRenderError_Unwrap(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := Wrap(StageTransport, "", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Equal(t, "connection reset", err.Message)
}

func TestRenderError_WithSeverity(t *testing.T) {
	err := New(StageDetect, "styles.css", "ambiguous framework").WithSeverity(ErrorSeverityWarning)
	assert.Equal(t, ErrorSeverityWarning, err.Severity)
	assert.Contains(t, err.Error(), "warning")
}

func TestErrorCollector_Basics(t *testing.T) {
	ec := NewErrorCollector()
	assert.False(t, ec.HasErrors())
	assert.Empty(t, ec.GetErrors())

	ec.Add(*New(StageScan, "App.tsx", "bad import line"))
	ec.AddError(StageSandbox, "", stderrors.New("timeout"))
	ec.AddError(StageSandbox, "", nil) // nil must be ignored

	require.Len(t, ec.GetErrors(), 2)
	assert.True(t, ec.HasErrors())

	ec.Clear()
	assert.False(t, ec.HasErrors())
	assert.Empty(t, ec.GetErrors())
}

func TestErrorCollector_WarningsAreNotErrors(t *testing.T) {
	ec := NewErrorCollector()
	ec.Add(*New(StageDetect, "App.tsx", "weak signal").WithSeverity(ErrorSeverityWarning))

	assert.Len(t, ec.GetErrors(), 1)
	assert.False(t, ec.HasErrors(), "warnings alone must not flip HasErrors")
}

func TestErrorCollector_Filters(t *testing.T) {
	ec := NewErrorCollector()
	ec.Add(*New(StageScan, "a.tsx", "one"))
	ec.Add(*New(StageSynth, "a.tsx", "two"))
	ec.Add(*New(StageSynth, "b.vue", "three"))

	assert.Len(t, ec.GetErrorsByFile("a.tsx"), 2)
	assert.Len(t, ec.GetErrorsByStage(StageSynth), 2)
	assert.Empty(t, ec.GetErrorsByFile("missing.ts"))
}

func TestErrorCollector_CopyIsolation(t *testing.T) {
	ec := NewErrorCollector()
	ec.Add(*New(StageScan, "a.tsx", "one"))

	got := ec.GetErrors()
	got[0].Message = "mutated"

	assert.Equal(t, "one", ec.GetErrors()[0].Message)
}

func TestErrorCollector_ConcurrentAdd(t *testing.T) {
	ec := NewErrorCollector()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			ec.Add(*New(StageDocument, fmt.Sprintf("f%d.tsx", n), "x"))
		}(i)
	}
	wg.Wait()

	assert.Len(t, ec.GetErrors(), 20)
}
