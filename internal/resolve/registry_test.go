package resolve

import (
	"go/token"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterPath(t *testing.T) {
	a := RegisterPath("testRenderer", "example.com/ui.Renderer")
	assert.Equal(t, "example.com/ui", a.PkgPath)
	assert.Equal(t, "Renderer", a.TypeName)
	assert.False(t, a.BuiltIn)
	assert.Equal(t, "example.com/ui.Renderer", a.Target())

	got, ok := Lookup("testRenderer")
	require.True(t, ok)
	assert.Equal(t, a, got)
}

func TestRegisterPathUniverse(t *testing.T) {
	a := RegisterPath("testErr", "error")
	assert.Empty(t, a.PkgPath)
	assert.Equal(t, "error", a.TypeName)
	assert.Equal(t, "error", a.Target())
}

func TestBuiltinAliases(t *testing.T) {
	for _, name := range []string{"Stringer", "Ordered", "Comparable", "Error", "Any"} {
		a, ok := Lookup(name)
		require.True(t, ok, "missing builtin %s", name)
		assert.True(t, a.BuiltIn)
	}

	_, ok := Lookup("NoSuchAlias")
	assert.False(t, ok)
}

func TestAllSorted(t *testing.T) {
	all := All()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Name, all[i].Name)
	}
}

func TestNewScopeSet(t *testing.T) {
	s := NewScopeSet(nil)
	_, ok := s[DefaultScope]
	assert.True(t, ok)

	s = NewScopeSet([]ScopeDef{{Name: "request", Requires: "io.Closer"}})
	assert.Len(t, s, 2)
	assert.Equal(t, "io.Closer", s["request"].Requires)
}

func TestDiagnosticSort(t *testing.T) {
	diags := []Diagnostic{
		errorf(KindSyntax, token.Position{Filename: "b.go", Line: 3}, "third"),
		errorf(KindSyntax, token.Position{Filename: "a.go", Line: 9}, "second"),
		errorf(KindSyntax, token.Position{Filename: "a.go", Line: 2}, "first"),
	}
	Sort(diags)
	assert.Equal(t, "first", diags[0].Message)
	assert.Equal(t, "second", diags[1].Message)
	assert.Equal(t, "third", diags[2].Message)
}

func TestHasErrors(t *testing.T) {
	assert.False(t, HasErrors(nil))
	assert.False(t, HasErrors([]Diagnostic{{Severity: SeverityWarning}}))
	assert.True(t, HasErrors([]Diagnostic{{Severity: SeverityWarning}, {Severity: SeverityError}}))
}

func TestKindJSON(t *testing.T) {
	b, err := KindNotSatisfied.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"capability-not-satisfied"`, string(b))

	b, err = SeverityError.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"error"`, string(b))
}
