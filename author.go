package downsite

// Author is a known post author. Posts name authors by Username; the site
// shows Name when the author is registered in Options.Authors.
type Author struct {
	Username string `json:"username" toml:"username"`
	Name     string `json:"name" toml:"name"`
	Bio      string `json:"bio,omitempty" toml:"bio"`
}
