package gistapi

import (
	"context"
	"fmt"

	"github.com/google/go-github/v73/github"
)

// ValidateToken probes /user and a 1-item /gists list to confirm the
// configured token is live and bears at least gist-read scope (spec.md
// §4.6).
func (g *Gateway) ValidateToken(ctx context.Context) (login string, err error) {
	client, err := g.authedClient()
	if err != nil {
		return "", err
	}

	user, resp, err := client.Users.Get(ctx, "")
	if err != nil {
		return "", classifyResponse(resp, err)
	}

	opts := &github.GistListOptions{ListOptions: github.ListOptions{PerPage: 1}}

	_, resp, err = client.Gists.List(ctx, "", opts)
	if err != nil {
		return "", fmt.Errorf("gistapi: token lacks gist scope: %w", classifyResponse(resp, err))
	}

	return user.GetLogin(), nil
}
