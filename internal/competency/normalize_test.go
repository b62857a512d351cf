package competency

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tankyu/diary/internal/catalog"
)

func testCatalog(n int) []catalog.Competency {
	out := make([]catalog.Competency, n)
	for i := range out {
		out[i] = catalog.Competency{
			ID:           uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("c%d", i+1))),
			Name:         fmt.Sprintf("c%d", i+1),
			DisplayOrder: i + 1,
			Active:       true,
		}
	}
	return out
}

func requireWellFormed(t *testing.T, got []Assignment) {
	t.Helper()
	require.Len(t, got, 3)
	seen := map[uuid.UUID]bool{}
	strong := 0
	for i, a := range got {
		require.False(t, seen[a.Competency.ID], "duplicate competency %q", a.Competency.Name)
		seen[a.Competency.ID] = true
		if a.Role == RoleStrong {
			strong++
			assert.Equal(t, StrongPoints, a.Points)
			assert.Equal(t, 0, i, "strong assignment must come first")
		} else {
			assert.Equal(t, RoleSub, a.Role)
			assert.Equal(t, SubPoints, a.Points)
		}
	}
	require.Equal(t, 1, strong)
}

func TestNormalize_SingleMatchBackfillsInDisplayOrder(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{{Name: "c3", Role: RoleStrong, Score: StrongScore}}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c3", "c1", "c2"}, Names(got))
}

func TestNormalize_StrongFoundAfterSubs(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "c5", Role: RoleSub},
		{Name: "c6", Role: RoleSub},
		{Name: "c2", Role: RoleStrong},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c2", "c5", "c6"}, Names(got))
}

func TestNormalize_StrongAlreadyListedAsSub(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "c4", Role: RoleSub},
		{Name: "c6", Role: RoleSub},
		{Name: "c4", Role: RoleStrong},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c4", "c6", "c1"}, Names(got))
}

func TestNormalize_NoStrongUsesFirstResolved(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "unknown", Role: RoleSub},
		{Name: "c7", Role: RoleSub},
		{Name: "c2", Role: RoleSub},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c7", "c2", "c1"}, Names(got))
}

func TestNormalize_PromotedPrimaryLeavesRoomForLaterCandidate(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "c5", Role: RoleSub},
		{Name: "c6", Role: RoleSub},
		{Name: "c7", Role: RoleSub},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c5", "c6", "c7"}, Names(got))
}

func TestNormalize_StrongListedAsSubKeepsLaterCandidates(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "c4", Role: RoleSub},
		{Name: "c6", Role: RoleSub},
		{Name: "c7", Role: RoleSub},
		{Name: "c4", Role: RoleStrong},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c4", "c6", "c7"}, Names(got))
}

func TestNormalize_UnknownNamesDropped(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "nope", Role: RoleStrong},
		{Name: "c5", Role: RoleSub},
	}, comps, nil)
	require.NoError(t, err)
	requireWellFormed(t, got)
	assert.Equal(t, []string{"c5", "c1", "c2"}, Names(got))
}

func TestNormalize_DuplicatesSkipped(t *testing.T) {
	comps := testCatalog(7)
	got, err := Normalize([]Candidate{
		{Name: "c2", Role: RoleStrong},
		{Name: "c2", Role: RoleSub},
		{Name: "c3", Role: RoleSub},
		{Name: "c3", Role: RoleSub},
		{Name: "c4", Role: RoleSub},
	}, comps, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c3", "c4"}, Names(got))
}

func TestNormalize_TooManyCandidatesTruncated(t *testing.T) {
	comps := testCatalog(7)
	var cands []Candidate
	for _, c := range comps {
		cands = append(cands, Candidate{Name: c.Name, Role: RoleSub})
	}
	got, err := Normalize(cands, comps, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2", "c3"}, Names(got))
}

func TestNormalize_FallbackIDs(t *testing.T) {
	comps := testCatalog(7)

	t.Run("primary from fallback", func(t *testing.T) {
		got, err := Normalize(nil, comps, []uuid.UUID{uuid.New(), comps[5].ID, comps[3].ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"c6", "c4", "c1"}, Names(got))
	})

	t.Run("subs filled from fallback before catalog", func(t *testing.T) {
		got, err := Normalize([]Candidate{{Name: "c2", Role: RoleStrong}}, comps, []uuid.UUID{comps[1].ID, comps[6].ID})
		require.NoError(t, err)
		assert.Equal(t, []string{"c2", "c7", "c1"}, Names(got))
	})

	t.Run("no candidates no fallback", func(t *testing.T) {
		got, err := Normalize(nil, comps, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"c1", "c2", "c3"}, Names(got))
	})
}

func TestNormalize_EmptyCatalog(t *testing.T) {
	_, err := Normalize([]Candidate{{Name: "c1", Role: RoleStrong}}, nil, nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("got %v, want ErrEmptyCatalog", err)
	}
}

func TestNormalize_CatalogTooSmall(t *testing.T) {
	_, err := Normalize(nil, testCatalog(2), nil)
	if !errors.Is(err, ErrEmptyCatalog) {
		t.Fatalf("got %v, want ErrEmptyCatalog", err)
	}
}

func TestNormalize_AlwaysWellFormed(t *testing.T) {
	comps := testCatalog(7)
	names := []string{"c1", "c2", "c3", "c4", "c5", "c6", "c7", "x", "y"}
	roles := []Role{RoleStrong, RoleSub, ""}
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 500; i++ {
		var cands []Candidate
		for j := r.IntN(6); j > 0; j-- {
			cands = append(cands, Candidate{Name: names[r.IntN(len(names))], Role: roles[r.IntN(len(roles))]})
		}
		var fallback []uuid.UUID
		for j := r.IntN(3); j > 0; j-- {
			fallback = append(fallback, comps[r.IntN(len(comps))].ID)
		}
		got, err := Normalize(cands, comps, fallback)
		require.NoError(t, err)
		requireWellFormed(t, got)
	}
}

func TestRolePoints(t *testing.T) {
	if RoleStrong.Points() != 2 || RoleSub.Points() != 1 {
		t.Errorf("points = %d/%d, want 2/1", RoleStrong.Points(), RoleSub.Points())
	}
}
