package model

// Member 群组 routine 的成员
type Member struct {
	UserID       int    `json:"user_id"`
	Nickname     string `json:"nickname"`
	ProfileImage string `json:"profile_image"`
	IsAdmin      bool   `json:"is_admin"`
	// Progress 该成员在请求日期的完成百分比 0-100
	Progress int `json:"progress"`
}

// Roster 后端下发的群组成员视图
type Roster struct {
	ListID  int      `json:"list_id"`
	Joined  bool     `json:"joined"` // 调用者是否已加入
	Members []Member `json:"members"`
}

// GroupParticipationView 按完成状态划分的群组参与视图。
// Joined=true 时 Completed/Unachieved 二分全体成员；
// Joined=false 时只下发 AllParticipants。
// 头像列表最多 12 个，Count 字段始终是真实集合大小。
type GroupParticipationView struct {
	Joined          bool     `json:"joined"`
	Completed       []string `json:"completed,omitempty"`
	Unachieved      []string `json:"unachieved,omitempty"`
	AllParticipants []string `json:"all_participants,omitempty"`
	CompletedCount  int      `json:"completed_count"`
	UnachievedCount int      `json:"unachieved_count"`
	TotalCount      int      `json:"total_count"`
}
