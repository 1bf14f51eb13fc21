package list

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"GET":    ActionGet,
		"post":   ActionCreate,
		" Put ":  ActionUpdate,
		"DELETE": ActionDelete,
		"delete": ActionDelete,
	}
	for in, want := range cases {
		got, err := ParseAction(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got)
		require.True(t, got.Valid())
	}
}

func TestParseActionRejectsUnknown(t *testing.T) {
	for _, in := range []string{"", "PATCH", "HEAD", "get-all"} {
		_, err := ParseAction(in)
		require.ErrorIs(t, err, ErrInvalidArgument, in)
	}
	require.False(t, Action("PATCH").Valid())
}

func TestActionMutates(t *testing.T) {
	require.False(t, ActionGet.Mutates())
	require.True(t, ActionCreate.Mutates())
	require.True(t, ActionUpdate.Mutates())
	require.True(t, ActionDelete.Mutates())
}

func TestParseIDKind(t *testing.T) {
	k, err := ParseIDKind("")
	require.NoError(t, err)
	require.Equal(t, IDObjectID, k)

	k, err = ParseIDKind("String")
	require.NoError(t, err)
	require.Equal(t, IDString, k)

	_, err = ParseIDKind("uuid")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUpdateResultFound(t *testing.T) {
	require.False(t, UpdateResult{}.Found())
	require.True(t, UpdateResult{MatchedCount: 1}.Found())
}

func TestNoConsistencyAcceptsEverything(t *testing.T) {
	check := NoConsistency.For(ActionCreate, "permissions")
	require.NoError(t, check(map[string]any{"anything": 1}))
	require.NoError(t, check(nil))
}
