// Package group derives the participation view for group routines from the
// roster the backend reports for a date.
package group

import "routinehub/internal/model"

// avatarRenderCap 每个头像列表最多渲染 12 个；计数始终反映真实集合大小
const avatarRenderCap = 12

// DeriveParticipation splits the roster into completed/unachieved for joined
// callers, or a single all-participants list otherwise. A member counts as
// completed only at exactly 100% progress; partial progress is unachieved.
func DeriveParticipation(roster model.Roster) model.GroupParticipationView {
	view := model.GroupParticipationView{
		Joined:     roster.Joined,
		TotalCount: len(roster.Members),
	}

	if !roster.Joined {
		view.AllParticipants = capAvatars(profileImages(roster.Members))
		return view
	}

	var completed, unachieved []string
	for _, m := range roster.Members {
		if m.Progress == 100 {
			completed = append(completed, m.ProfileImage)
		} else {
			unachieved = append(unachieved, m.ProfileImage)
		}
	}

	view.CompletedCount = len(completed)
	view.UnachievedCount = len(unachieved)
	view.Completed = capAvatars(completed)
	view.Unachieved = capAvatars(unachieved)
	return view
}

func profileImages(members []model.Member) []string {
	images := make([]string, 0, len(members))
	for _, m := range members {
		images = append(images, m.ProfileImage)
	}
	return images
}

func capAvatars(images []string) []string {
	if len(images) > avatarRenderCap {
		return images[:avatarRenderCap]
	}
	return images
}
