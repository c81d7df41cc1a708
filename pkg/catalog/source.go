// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/google/go-github/v60/github"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

var (
	_ Source        = (*FileSource)(nil)
	_ Fingerprinter = (*FileSource)(nil)
	_ Source        = (*GitHubSource)(nil)
)

// 📄 FileSource reads a YAML catalog from disk.
type FileSource struct {
	Path string
}

func (s *FileSource) Key() string { return "file:" + s.Path }

func (s *FileSource) Fetch(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, errors.Errorf("reading catalog: %w", err)
	}
	defs, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return &Snapshot{Definitions: defs, Fingerprint: digest(data)}, nil
}

// Fingerprint hashes the file's current content.
func (s *FileSource) Fingerprint(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return "", errors.Errorf("reading catalog: %w", err)
	}
	return digest(data), nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// 🐙 GitHubSource reads a YAML catalog from a file in a GitHub repository.
type GitHubSource struct {
	client *github.Client
	Owner  string
	Repo   string
	Path   string
	Ref    string
}

// NewGitHubClient returns an API client, authenticated when token is set.
func NewGitHubClient(token string) *github.Client {
	client := github.NewClient(nil)
	if token != "" {
		client = client.WithAuthToken(token)
	}
	return client
}

func NewGitHubSource(client *github.Client, owner, repo, path, ref string) *GitHubSource {
	return &GitHubSource{client: client, Owner: owner, Repo: repo, Path: path, Ref: ref}
}

func (s *GitHubSource) Key() string {
	return fmt.Sprintf("github:%s/%s/%s@%s", s.Owner, s.Repo, s.Path, s.Ref)
}

func (s *GitHubSource) Fetch(ctx context.Context) (*Snapshot, error) {
	file, _, resp, err := s.client.Repositories.GetContents(ctx, s.Owner, s.Repo, s.Path, &github.RepositoryContentGetOptions{
		Ref: s.Ref,
	})
	if err != nil {
		return nil, errors.Errorf("getting %s: %w", s.Key(), err)
	}
	if file == nil {
		return nil, errors.Errorf("getting %s: path is a directory", s.Key())
	}
	if resp != nil && resp.Rate.Limit > 0 {
		zerolog.Ctx(ctx).Trace().Int("remaining", resp.Rate.Remaining).Msg("github rate limit")
	}

	content, err := file.GetContent()
	if err != nil {
		return nil, errors.Errorf("decoding content: %w", err)
	}
	defs, err := Decode([]byte(content))
	if err != nil {
		return nil, err
	}
	return &Snapshot{Definitions: defs, Fingerprint: file.GetSHA()}, nil
}
