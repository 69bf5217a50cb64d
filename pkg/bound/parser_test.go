package bound

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SingleBound(t *testing.T) {
	list, err := Parse("fmt.Stringer", "test.go")
	require.NoError(t, err, "unexpected error")

	require.Len(t, list.Bounds, 1)
	assert.Equal(t, []string{"fmt", "Stringer"}, list.Bounds[0].Path)
	assert.Equal(t, "fmt.Stringer", list.Bounds[0].Name())
	assert.Nil(t, list.Scope, "no scope qualifier expected")
}

func TestParse_Conjunction(t *testing.T) {
	list, err := Parse("Reader + Writer + fmt.Stringer", "test.go")
	require.NoError(t, err, "unexpected error")

	require.Len(t, list.Bounds, 3)
	assert.Equal(t, "Reader", list.Bounds[0].Name())
	assert.Equal(t, "Writer", list.Bounds[1].Name())
	assert.Equal(t, "fmt.Stringer", list.Bounds[2].Name())
}

func TestParse_ParameterizedBound(t *testing.T) {
	list, err := Parse("Matcher[int, map[string]bool]", "test.go")
	require.NoError(t, err, "unexpected error")

	require.Len(t, list.Bounds, 1)
	b := list.Bounds[0]
	require.Len(t, b.Args, 2, "expected two type arguments")
	assert.Equal(t, "int", b.Args[0].Text)
	assert.Equal(t, "map[string]bool", b.Args[1].Text)
	assert.Equal(t, "Matcher[int, map[string]bool]", b.String())
}

func TestParse_NestedParameterizedArg(t *testing.T) {
	list, err := Parse("Comparer[Pair[int, string]]", "test.go")
	require.NoError(t, err, "unexpected error")

	require.Len(t, list.Bounds[0].Args, 1, "nested brackets are one argument")
	assert.Equal(t, "Pair[int, string]", list.Bounds[0].Args[0].Text)
}

func TestParse_ScopeQualifier(t *testing.T) {
	list, err := Parse("Reader + Closer ; session", "test.go")
	require.NoError(t, err, "unexpected error")

	require.NotNil(t, list.Scope, "scope qualifier expected")
	assert.Equal(t, "session", list.Scope.Name)
	assert.Equal(t, "Reader + Closer; session", list.String())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty list", "", "empty bound list"},
		{"whitespace only", "   ", "empty bound list"},
		{"dangling separator", "Reader +", "dangling '+'"},
		{"separator before scope", "Reader + ; static", "dangling '+'"},
		{"leading separator", "+ Reader", "expected capability name"},
		{"trailing dot", "fmt.", "must not end in '.'"},
		{"empty args", "Matcher[]", "empty type argument list"},
		{"dangling comma in args", "Matcher[int,]", "dangling ','"},
		{"leading comma in args", "Matcher[,int]", "missing type argument"},
		{"scope without name", "Reader ;", "expected scope name"},
		{"scope on its own", "; static", "expected capability name"},
		{"second scope", "Reader ; a ; b", "unexpected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input, "test.go")
			require.Error(t, err, "expected parse error")
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParse_ErrorCarriesPosition(t *testing.T) {
	_, err := Parse("Reader +", "caps.txt")
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr, "expected *ParseError")
	assert.Equal(t, "caps.txt", perr.Position().File)
	assert.Equal(t, 1, perr.Position().Line)
	assert.Equal(t, 8, perr.Position().Column)
}
