package diag

import (
	"bytes"
	"sync"
	"testing"

	"github.com/praetorian-inc/cobprep/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	var buf bytes.Buffer
	c := NewCollector(NewWriterLogger(&buf, Warning, false))

	tok := types.NewToken("COPY", types.Position{Resource: "main.cbl", Line: 3, Column: 8}, types.Word)
	c.Log(At(Info, DirectiveUnknown, tok, "ignored"))
	c.Log(At(Warning, CopybookNotFound, tok, "copybook %s not found", "X"))

	require.Len(t, c.Diagnostics(), 2)
	assert.Equal(t, 1, c.Count(Warning))
	assert.Equal(t, 2, c.Count(Info))
	assert.Equal(t, "[warn] main.cbl:3:8: copybook X not found (copybook-not-found)\n", buf.String())

	c.Reset()
	assert.Empty(t, c.Diagnostics())
}

func TestCollector_Concurrent(t *testing.T) {
	c := NewCollector(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Log(Diagnostic{Severity: Error})
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, c.Count(Error))
}

func TestParseSeverity(t *testing.T) {
	s, err := ParseSeverity("WARN")
	require.NoError(t, err)
	assert.Equal(t, Warning, s)

	_, err = ParseSeverity("loud")
	assert.Error(t, err)
}

func TestOrNoop(t *testing.T) {
	assert.IsType(t, NoopLogger{}, OrNoop(nil))

	c := NewCollector(nil)
	assert.Same(t, c, OrNoop(c))
}
