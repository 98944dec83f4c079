package model

type RoutineKind string

const (
	KindPersonal RoutineKind = "PERSONAL"
	KindGroup    RoutineKind = "GROUP"
)

type RoutineCategory string

const (
	CategoryLife    RoutineCategory = "LIFE"
	CategoryFinance RoutineCategory = "FINANCE"
)

// RoutineList 一个可重复的 routine 容器（个人或群组）
type RoutineList struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Kind        RoutineKind     `json:"kind"`
	Category    RoutineCategory `json:"category"`
	// Recurrence 后端下发的逗号分隔星期标签，如 "월,수,금"
	Recurrence string `json:"recurrence"`
	// 墙上时钟时间 "HH:MM"，不做时区换算
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	OwnerID   int    `json:"owner_id"`
}

// RoutineItem 属于一个 RoutineList 的单个任务
type RoutineItem struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	Icon            string `json:"icon"` // emoji 字符或远程图片 URL
	DurationMinutes int    `json:"duration_minutes"`
}

// OccurrenceItem 某个日期下的任务完成状态（后端按日期下发）
type OccurrenceItem struct {
	RoutineItem
	Completed bool `json:"completed"`
}
