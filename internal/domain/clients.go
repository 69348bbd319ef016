package domain

// Book is one catalog search result.
type Book struct {
	ID    string
	Title string
}

// RequestGrant is the first leg of an OAuth handshake.
type RequestGrant struct {
	Token  string
	Secret string // empty for services without a token secret
	// AuthURL is where the user authorizes the application.
	AuthURL string
}

// AccessGrant holds long-lived access credentials.
type AccessGrant struct {
	Token    string
	Secret   string
	Username string
}
