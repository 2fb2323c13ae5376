package model

// Novel mapped from table <novel>
type Novel struct {
	Base
	UserID      string `gorm:"column:user_id;size:64;index" json:"userId"`
	Title       string `gorm:"column:title;size:255" json:"title"`
	Description string `gorm:"column:description" json:"description"`
	CoverURL    string `gorm:"column:cover_url;size:1024" json:"coverUrl"`
	WordCount   int64  `gorm:"column:word_count;not null" json:"wordCount"`
	Formatting  string `gorm:"column:formatting" json:"formatting"`
}

// Volume mapped from table <volume>
type Volume struct {
	Base
	NovelID    string `gorm:"column:novel_id;size:64;index" json:"novelId"`
	Title      string `gorm:"column:title;size:255" json:"title"`
	OrderIndex int    `gorm:"column:order_index;not null" json:"orderIndex"`
}

// Chapter mapped from table <chapter>
type Chapter struct {
	Base
	VolumeID   string `gorm:"column:volume_id;size:64;index" json:"volumeId"`
	Title      string `gorm:"column:title;size:255" json:"title"`
	Content    string `gorm:"column:content" json:"content"`
	WordCount  int64  `gorm:"column:word_count;not null" json:"wordCount"`
	OrderIndex int    `gorm:"column:order_index;not null" json:"orderIndex"`
}

// Idea mapped from table <idea>
type Idea struct {
	Base
	NovelID   string `gorm:"column:novel_id;size:64;not null;index" json:"novelId"`
	ChapterID string `gorm:"column:chapter_id;size:64" json:"chapterId"`
	Content   string `gorm:"column:content;not null" json:"content"`
	Quote     string `gorm:"column:quote" json:"quote"`
	Cursor    string `gorm:"column:cursor" json:"cursor"`
	IsStarred bool   `gorm:"column:is_starred;not null" json:"isStarred"`
	CreatedAt int64  `gorm:"column:created_at;not null;autoCreateTime:false" json:"createdAt"`
}

// GetCreatedAt 创建时间
func (m *Idea) GetCreatedAt() int64 {
	return m.CreatedAt
}

// SetCreatedAt 设置创建时间
func (m *Idea) SetCreatedAt(ms int64) {
	m.CreatedAt = ms
}
