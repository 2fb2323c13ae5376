package domain

// Changes 按实体类型划分的变更批次
type Changes struct {
	Novels   []*Novel
	Volumes  []*Volume
	Chapters []*Chapter
	Ideas    []*Idea
}

// Len 批次中的记录总数
func (c *Changes) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Novels) + len(c.Volumes) + len(c.Chapters) + len(c.Ideas)
}

// CountByKind 各类型记录数
func (c *Changes) CountByKind() map[EntityKind]int {
	if c == nil {
		return map[EntityKind]int{}
	}
	return map[EntityKind]int{
		KindNovel:   len(c.Novels),
		KindVolume:  len(c.Volumes),
		KindChapter: len(c.Chapters),
		KindIdea:    len(c.Ideas),
	}
}
