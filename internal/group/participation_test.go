package group

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"routinehub/internal/model"
)

func member(id, progress int) model.Member {
	return model.Member{
		UserID:       id,
		Nickname:     fmt.Sprintf("user%d", id),
		ProfileImage: fmt.Sprintf("https://cdn.example.com/%d.png", id),
		Progress:     progress,
	}
}

func TestDeriveParticipation_NotJoined(t *testing.T) {
	roster := model.Roster{
		ListID:  1,
		Joined:  false,
		Members: []model.Member{member(1, 100), member(2, 0)},
	}

	view := DeriveParticipation(roster)

	assert.False(t, view.Joined)
	assert.Len(t, view.AllParticipants, 2)
	assert.Empty(t, view.Completed)
	assert.Empty(t, view.Unachieved)
	assert.Equal(t, 2, view.TotalCount)
}

func TestDeriveParticipation_JoinedPartition(t *testing.T) {
	roster := model.Roster{
		ListID: 1,
		Joined: true,
		Members: []model.Member{
			member(1, 100),
			member(2, 0),
			member(3, 50), // partial progress is unachieved
			member(4, 100),
			member(5, 99),
		},
	}

	view := DeriveParticipation(roster)

	assert.True(t, view.Joined)
	assert.Equal(t, 2, view.CompletedCount)
	assert.Equal(t, 3, view.UnachievedCount)
	assert.Equal(t,
		[]string{member(1, 0).ProfileImage, member(4, 0).ProfileImage},
		view.Completed,
	)
	assert.Empty(t, view.AllParticipants)
}

// completed and unachieved must be disjoint and together cover the roster.
func TestDeriveParticipation_PartitionProperty(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		var members []model.Member
		for i := 0; i < trial; i++ {
			members = append(members, member(i+1, (i*37)%101))
		}
		roster := model.Roster{ListID: 1, Joined: true, Members: members}

		view := DeriveParticipation(roster)

		require.Equal(t, len(members), view.CompletedCount+view.UnachievedCount,
			"union must cover the roster (n=%d)", trial)

		seen := make(map[string]bool)
		for _, img := range view.Completed {
			seen[img] = true
		}
		for _, img := range view.Unachieved {
			assert.False(t, seen[img], "lists must not overlap (n=%d)", trial)
		}
	}
}

func TestDeriveParticipation_AvatarCapKeepsTrueCounts(t *testing.T) {
	var members []model.Member
	for i := 0; i < 30; i++ {
		members = append(members, member(i+1, 100))
	}
	members = append(members, member(31, 0))
	roster := model.Roster{ListID: 1, Joined: true, Members: members}

	view := DeriveParticipation(roster)

	assert.Len(t, view.Completed, 12, "render list is capped")
	assert.Equal(t, 30, view.CompletedCount, "count reflects the true set size")
	assert.Equal(t, 1, view.UnachievedCount)
	assert.Equal(t, 31, view.TotalCount)

	notJoined := model.Roster{ListID: 1, Joined: false, Members: members}
	assert.Len(t, DeriveParticipation(notJoined).AllParticipants, 12)
}
