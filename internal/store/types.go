package store

// Account is an authentication record. Profiles live in the users table.
type Account struct {
	UID               string
	Email             string
	PasswordHash      string
	DisplayName       string
	PhotoURL          string
	PasswordChangedAt int64
	CreatedAt         int64
	UpdatedAt         int64
}

// Object is the metadata of a stored blob.
type Object struct {
	Key         string
	OwnerUID    string
	URL         string
	ContentType string
	Size        int64
	CreatedAt   int64
}

// Counts holds collection sizes for status reporting.
type Counts struct {
	Users    int
	Online   int
	Chats    int
	Messages int
}
