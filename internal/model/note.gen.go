package model

import "github.com/haierkeys/block-note-service/pkg/timex"

const TableNameNote = "note"

// Note mapped from table <note>
type Note struct {
	ID               int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id" form:"id"`
	UID              int64      `gorm:"column:uid;not null;uniqueIndex:idx_note_uid_path,priority:1;index:idx_note_uid_updated,priority:1" json:"uid" form:"uid"`
	Path             string     `gorm:"column:path;size:512;not null;uniqueIndex:idx_note_uid_path,priority:2" json:"path" form:"path"`
	Title            string     `gorm:"column:title;size:255;not null" json:"title" form:"title"`
	Blocks           Blocks     `gorm:"column:blocks;type:text" json:"blocks" form:"blocks"`
	SearchText       string     `gorm:"column:search_text;type:text" json:"-" form:"-"`
	UpdatedTimestamp int64      `gorm:"column:updated_timestamp;not null;default:0;index:idx_note_uid_updated,priority:2" json:"updatedTimestamp" form:"updatedTimestamp"`
	CreatedAt        timex.Time `gorm:"column:created_at;default:NULL;autoCreateTime:false" json:"createdAt" form:"createdAt"`
	UpdatedAt        timex.Time `gorm:"column:updated_at;default:NULL;autoUpdateTime:false" json:"updatedAt" form:"updatedAt"`
}

// TableName Note's table name
func (*Note) TableName() string {
	return TableNameNote
}
