package github

import (
	"os"

	"golang.org/x/oauth2"
)

// lookupTokenSource builds a fresh token on every call.
type lookupTokenSource struct {
	lookup func() string
}

func (s lookupTokenSource) Token() (*oauth2.Token, error) {
	return &oauth2.Token{AccessToken: s.lookup(), TokenType: "Bearer"}, nil
}

// EnvToken reads the credential from the environment variable key each time
// a request is sent. An unset variable yields an empty token.
func EnvToken(key string) oauth2.TokenSource {
	return lookupTokenSource{lookup: func() string { return os.Getenv(key) }}
}

// StaticToken always returns tok.
func StaticToken(tok string) oauth2.TokenSource {
	return lookupTokenSource{lookup: func() string { return tok }}
}
