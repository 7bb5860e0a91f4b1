package model

type Profile struct {
	ID        string `db:"id" json:"id"`
	Nickname  string `db:"nickname" json:"nickname"`
	AvatarURL string `db:"avatar_url" json:"avatar_url,omitempty"`
}

func (p Profile) DisplayName() string {
	if p.Nickname != "" {
		return p.Nickname
	}
	if len(p.ID) > 8 {
		return p.ID[:8]
	}
	return p.ID
}
