package backloggery

import "encoding/json"

const (
	// DefaultEndpoint serves both library and single game requests
	DefaultEndpoint = "https://backloggery.com/api/fetch_library.php"
	// DefaultContact is advertised in the User-Agent header
	DefaultContact = "dev[at]gwenkornak.ca"
	// DefaultVersion is reported when no client version is configured
	DefaultVersion = "dev"

	userAgentFormat = "Backloggery Unofficial API Client/%s (%s)"
)

// libraryRequest is the POST body for a user's library
type libraryRequest struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// gameRequest is the POST body for a single game instance
type gameRequest struct {
	GameInstID int64 `json:"game_inst_id"`
}

// envelope wraps every response
type envelope struct {
	Payload json.RawMessage `json:"payload"`
}

func newLibraryRequest(username string) libraryRequest {
	return libraryRequest{Type: "load_user_library", Username: username}
}
