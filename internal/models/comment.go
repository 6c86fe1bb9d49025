package models

import "time"

type Comment struct {
	ID        int64      `json:"id" db:"id"`
	AirdropID string     `json:"airdrop_id" db:"airdrop_id"`
	ParentID  *int64     `json:"parent_id,omitempty" db:"parent_id"`
	Author    string     `json:"author_name" db:"author_name"`
	Content   string     `json:"content" db:"content"`
	IPAddress string     `json:"-" db:"ip_address"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	Replies   []*Comment `json:"replies" db:"-"`
}

// ThreadComments nests replies under their parents. Input order is kept at
// every level; replies whose parent is missing are promoted to the top.
func ThreadComments(flat []Comment) []*Comment {
	byID := make(map[int64]*Comment, len(flat))
	nodes := make([]*Comment, len(flat))
	for i := range flat {
		c := flat[i]
		c.Replies = []*Comment{}
		nodes[i] = &c
		byID[c.ID] = &c
	}

	roots := make([]*Comment, 0, len(flat))
	for _, c := range nodes {
		if c.ParentID != nil {
			if parent, ok := byID[*c.ParentID]; ok && parent != c {
				parent.Replies = append(parent.Replies, c)
				continue
			}
		}
		roots = append(roots, c)
	}
	return roots
}
