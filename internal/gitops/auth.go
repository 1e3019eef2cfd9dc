package gitops

import (
	"os"
)

// ResolveCredentialsOptional fills in the clone --git-user/--git-token
// values from GIT_USER/GIT_TOKEN, then GITHUB_USER/GITHUB_TOKEN. Empty
// results are fine: NewGoGit only sends basic auth when both are set, and
// only for HTTPS clone URLs.
func ResolveCredentialsOptional(user, token string) (string, string) {
	if user == "" {
		user = firstEnv("GIT_USER", "GITHUB_USER")
	}
	if token == "" {
		token = firstEnv("GIT_TOKEN", "GITHUB_TOKEN")
	}
	return user, token
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
