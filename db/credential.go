package db

// Credential is the access/refresh token pair issued by the pomyannik API.
// The JSON form is the blob stored by durable backends; the gorm form is a
// single row with ID 1.
type Credential struct {
	ID           uint   `gorm:"primaryKey" json:"-"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	UserID       string `json:"user_id"`
}

// TableName keeps the table name stable regardless of the struct name.
func (Credential) TableName() string { return "credentials" }

// Clone returns a copy that does not share the receiver's storage row id.
func (c *Credential) Clone() *Credential {
	if c == nil {
		return nil
	}
	cp := *c
	cp.ID = 0
	return &cp
}
