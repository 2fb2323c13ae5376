// Package dto Defines data transfer objects (request parameters and response structs)
// Package dto 定义数据传输对象（请求参数和响应结构体）
package dto

// RecordDTO versioned record fields shared by every synced entity
// RecordDTO 所有同步实体共享的版本字段
type RecordDTO struct {
	ID        string `json:"id" binding:"omitempty,entityid,max=64"` // Record ID, generated when empty // 记录 ID，为空时由服务端生成
	Version   int64  `json:"version"`                                // Ignored on push // 推送时忽略
	UpdatedAt int64  `json:"updatedAt"`                              // Epoch ms, set by server // 毫秒时间戳，由服务端设置
	Deleted   bool   `json:"deleted"`                                // Tombstone flag // 墓碑标记
}

// NovelDTO novel wire shape
// NovelDTO 小说
type NovelDTO struct {
	RecordDTO
	UserID      string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description"`
	CoverURL    string `json:"coverUrl"`
	WordCount   int64  `json:"wordCount"`
	Formatting  string `json:"formatting"`
}

// VolumeDTO 卷
type VolumeDTO struct {
	RecordDTO
	NovelID    string `json:"novelId"`
	Title      string `json:"title"`
	OrderIndex int    `json:"orderIndex"`
}

// ChapterDTO 章节
type ChapterDTO struct {
	RecordDTO
	VolumeID   string `json:"volumeId"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	WordCount  int64  `json:"wordCount"`
	OrderIndex int    `json:"orderIndex"`
}

// IdeaDTO 灵感
type IdeaDTO struct {
	RecordDTO
	NovelID   string `json:"novelId"`
	ChapterID string `json:"chapterId"`
	Content   string `json:"content"`
	Quote     string `json:"quote"`
	Cursor    string `json:"cursor"`
	IsStarred bool   `json:"isStarred"`
	CreatedAt int64  `json:"createdAt"` // Epoch ms, immutable after create // 毫秒时间戳，创建后不可变
}

// SyncChanges per-type change lists
// SyncChanges 按类型分组的变更列表
type SyncChanges struct {
	Novels   []*NovelDTO   `json:"novels" binding:"omitempty,dive"`
	Volumes  []*VolumeDTO  `json:"volumes" binding:"omitempty,dive"`
	Chapters []*ChapterDTO `json:"chapters" binding:"omitempty,dive"`
	Ideas    []*IdeaDTO    `json:"ideas" binding:"omitempty,dive"`
}

// SyncPushRequest push request parameters
// SyncPushRequest 推送请求参数
type SyncPushRequest struct {
	LastSyncCursor *int64       `json:"lastSyncCursor"`             // Accepted but not consulted // 接收但不使用
	Changes        *SyncChanges `json:"changes" binding:"required"` // Local changes // 本地变更
}

// SyncPushResponse push result
// SyncPushResponse 推送结果
type SyncPushResponse struct {
	Success        bool `json:"success"`
	ProcessedCount int  `json:"processedCount"` // Total records written // 写入的记录总数
}

// SyncPullRequest pull request parameters
// SyncPullRequest 拉取请求参数
type SyncPullRequest struct {
	LastSyncCursor *int64 `json:"lastSyncCursor"` // Null or 0 means full sync // 为空或 0 表示全量同步
}

// SyncPullResponse pull result
// SyncPullResponse 拉取结果
type SyncPullResponse struct {
	NewSyncCursor int64       `json:"newSyncCursor"` // Cursor for the next pull // 下次拉取使用的游标
	Data          SyncChanges `json:"data"`
}

// SyncHint websocket broadcast after a successful push
// SyncHint 推送成功后广播的提示
type SyncHint struct {
	Cursor         int64 `json:"cursor"`
	ProcessedCount int   `json:"processedCount"`
}
