package entities

type Memo struct {
	ID      int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Content string `gorm:"type:text" json:"content"`

	Timestamp
}
