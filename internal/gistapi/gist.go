package gistapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/google/go-github/v73/github"
)

// masterIndexFilename and legacyManifestFilename are the well-known files
// findSyncGist probes for, per spec.md §4.1 step 3.
const (
	masterIndexFilename    = "master-index.json"
	legacyManifestFilename = "manifest.json"
)

const maxFilenameLength = 255

// FindSyncGist lists the user's Gists and returns the newest one
// containing a master-index file, falling back to the newest one
// containing a legacy manifest file. Returns "" with no error if none
// qualify.
func (g *Gateway) FindSyncGist(ctx context.Context) (string, error) {
	client, err := g.authedClient()
	if err != nil {
		return "", err
	}

	opts := &github.GistListOptions{ListOptions: github.ListOptions{PerPage: 100}}

	var all []*github.Gist

	for {
		var (
			page []*github.Gist
			resp *github.Response
		)

		resp, err = g.withRetry(ctx, "list gists", func(ctx context.Context) (*github.Response, error) {
			var innerErr error
			page, resp, innerErr = client.Gists.List(ctx, "", opts)

			return resp, innerErr
		})
		if err != nil {
			return "", classifyResponse(resp, err)
		}

		all = append(all, page...)

		if resp.NextPage == 0 {
			break
		}

		opts.Page = resp.NextPage
	}

	return selectSyncGist(all), nil
}

func selectSyncGist(gists []*github.Gist) string {
	candidate := func(predicate func(*github.Gist) bool) string {
		var best *github.Gist

		for _, gist := range gists {
			if !predicate(gist) {
				continue
			}

			if best == nil || gist.GetUpdatedAt().After(best.GetUpdatedAt().Time) {
				best = gist
			}
		}

		if best == nil {
			return ""
		}

		return best.GetID()
	}

	hasFile := func(name string) func(*github.Gist) bool {
		return func(gist *github.Gist) bool {
			_, ok := gist.Files[github.GistFilename(name)]

			return ok
		}
	}

	if id := candidate(hasFile(masterIndexFilename)); id != "" {
		return id
	}

	return candidate(hasFile(legacyManifestFilename))
}

// GetGist returns the full file tree for id, using the per-process session
// cache and deduplicating concurrent fetches for the same ID.
func (g *Gateway) GetGist(ctx context.Context, id string) (*github.Gist, error) {
	if cached, ok := g.cache.get(id); ok {
		return cached, nil
	}

	gist, err := g.cache.fetchOnce(id, func() (*github.Gist, error) {
		client, err := g.authedClient()
		if err != nil {
			return nil, err
		}

		var (
			fetched *github.Gist
			resp    *github.Response
		)

		resp, err = g.withRetry(ctx, "get gist", func(ctx context.Context) (*github.Response, error) {
			var innerErr error
			fetched, resp, innerErr = client.Gists.Get(ctx, id)

			return resp, innerErr
		})
		if err != nil {
			return nil, classifyResponse(resp, err)
		}

		return fetched, nil
	})
	if err != nil {
		return nil, err
	}

	g.cache.set(id, gist)

	return gist, nil
}

// GetGistFileContent returns a file's content, issuing a secondary fetch
// to its raw URL if the embedded content was truncated.
func (g *Gateway) GetGistFileContent(ctx context.Context, id, filename string) ([]byte, error) {
	gist, err := g.GetGist(ctx, id)
	if err != nil {
		return nil, err
	}

	file, ok := gist.Files[github.GistFilename(filename)]
	if !ok {
		return nil, fmt.Errorf("gistapi: file %q: %w", filename, ErrNotFound)
	}

	if !file.GetTruncated() {
		return []byte(file.GetContent()), nil
	}

	client, err := g.authedClient()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.GetRawURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("gistapi: building raw content request: %w", err)
	}

	resp, err := client.Client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("gistapi: fetching raw content for %q: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &GistAPIError{StatusCode: resp.StatusCode, Err: classifyStatus(resp.StatusCode)}
	}

	return io.ReadAll(resp.Body)
}

// ListGistFilenames returns the names of every file currently in id,
// without fetching content. Used by shard validation to detect drift
// between the master index and a shard's actual contents.
func (g *Gateway) ListGistFilenames(ctx context.Context, id string) ([]string, error) {
	gist, err := g.GetGist(ctx, id)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(gist.Files))
	for name := range gist.Files {
		names = append(names, string(name))
	}

	sort.Strings(names)

	return names, nil
}

// FileUpdate is either new content for a file, or a nil Content to delete
// that file, mirroring the Gist API's `{files: {name: {content}|null}}`
// PATCH body shape.
type FileUpdate struct {
	Name    string
	Content *string
}

// UpdateGistFiles patches id with the given file updates, validating
// filenames and content and splitting the request into ≤8MB batches
// (spec.md §4.3, §6.1). The session cache is replaced with the
// server-returned post-state on success.
func (g *Gateway) UpdateGistFiles(ctx context.Context, id string, updates []FileUpdate) error {
	for _, u := range updates {
		if len(u.Name) > maxFilenameLength {
			return fmt.Errorf("gistapi: filename %q exceeds %d characters: %w", u.Name, maxFilenameLength, ErrBadRequest)
		}

		if u.Content != nil && *u.Content == "" {
			return fmt.Errorf("gistapi: file %q has empty content: %w", u.Name, ErrBadRequest)
		}

		if u.Content != nil && len(*u.Content) > 10_000_000 {
			g.logger.Warn("gist file exceeds 10MB", "filename", u.Name, "size", len(*u.Content))
		}
	}

	client, err := g.authedClient()
	if err != nil {
		return err
	}

	var gist *github.Gist

	for _, batch := range batchUpdates(updates) {
		files := make(map[github.GistFilename]*github.GistFile, len(batch))

		for _, u := range batch {
			if u.Content == nil {
				files[github.GistFilename(u.Name)] = nil

				continue
			}

			files[github.GistFilename(u.Name)] = &github.GistFile{Content: u.Content}
		}

		editedGist := &github.Gist{Files: files}

		var resp *github.Response

		resp, err = g.withRetry(ctx, "update gist files", func(ctx context.Context) (*github.Response, error) {
			var innerErr error
			gist, resp, innerErr = client.Gists.Edit(ctx, id, editedGist)

			return resp, innerErr
		})
		if err != nil {
			return classifyResponse(resp, err)
		}
	}

	if gist != nil {
		g.cache.set(id, gist)
	}

	return nil
}

// batchUpdates splits updates into groups whose aggregate content size
// stays within requestBatchMaxBytes, preserving input order so each batch
// commits independently and deterministically.
func batchUpdates(updates []FileUpdate) [][]FileUpdate {
	if len(updates) == 0 {
		return nil
	}

	var (
		batches []FileUpdate
		size    int
		result  [][]FileUpdate
	)

	flush := func() {
		if len(batches) > 0 {
			result = append(result, batches)
			batches = nil
			size = 0
		}
	}

	for _, u := range updates {
		n := len(u.Name)
		if u.Content != nil {
			n += len(*u.Content)
		}

		if size+n > requestBatchMaxBytes && len(batches) > 0 {
			flush()
		}

		batches = append(batches, u)
		size += n
	}

	flush()

	return result
}

// DeleteGistFiles removes the named files from id via a PATCH with
// null-valued entries.
func (g *Gateway) DeleteGistFiles(ctx context.Context, id string, names []string) error {
	updates := make([]FileUpdate, len(names))
	for i, name := range names {
		updates[i] = FileUpdate{Name: name, Content: nil}
	}

	return g.UpdateGistFiles(ctx, id, updates)
}

// DeleteGist deletes id and evicts it from the session cache.
func (g *Gateway) DeleteGist(ctx context.Context, id string) error {
	client, err := g.authedClient()
	if err != nil {
		return err
	}

	resp, err := g.withRetry(ctx, "delete gist", func(ctx context.Context) (*github.Response, error) {
		return client.Gists.Delete(ctx, id)
	})
	if err != nil {
		return classifyResponse(resp, err)
	}

	g.cache.evict(id)

	return nil
}

// CreateGist creates a new empty Gist (all files secret, per spec.md's
// single-user sync model) and returns its ID.
func (g *Gateway) CreateGist(ctx context.Context, description string, files map[string]string) (string, error) {
	client, err := g.authedClient()
	if err != nil {
		return "", err
	}

	ghFiles := make(map[github.GistFilename]*github.GistFile, len(files))
	for name, content := range files {
		content := content
		ghFiles[github.GistFilename(name)] = &github.GistFile{Content: &content}
	}

	public := false
	newGist := &github.Gist{
		Description: &description,
		Public:      &public,
		Files:       ghFiles,
	}

	var (
		created *github.Gist
		resp    *github.Response
	)

	resp, err = g.withRetry(ctx, "create gist", func(ctx context.Context) (*github.Response, error) {
		var innerErr error
		created, resp, innerErr = client.Gists.Create(ctx, newGist)

		return resp, innerErr
	})
	if err != nil {
		return "", classifyResponse(resp, err)
	}

	g.cache.set(created.GetID(), created)

	return created.GetID(), nil
}

// sortedFilenames is a small helper used by callers building deterministic
// batch ordering (e.g. tests asserting PATCH order).
func sortedFilenames(files map[string]string) []string {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
