package domain

// Novel 小说
type Novel struct {
	Record
	UserID      string
	Title       string
	Description string
	CoverURL    string
	WordCount   int64
	Formatting  string // 自由格式的排版配置（JSON 文本）
}

// Volume 卷，通过 NovelID 归属于小说
type Volume struct {
	Record
	NovelID    string
	Title      string
	OrderIndex int
}

// Chapter 章节，通过 VolumeID 归属于卷
type Chapter struct {
	Record
	VolumeID   string
	Title      string
	Content    string
	WordCount  int64
	OrderIndex int
}

// Idea 灵感笔记，归属于小说，可选关联章节
type Idea struct {
	Record
	NovelID   string
	ChapterID string
	Content   string
	Quote     string
	Cursor    string // 光标位置锚点
	IsStarred bool
	CreatedAt int64 // 首次持久化时设置，之后不可变
}
