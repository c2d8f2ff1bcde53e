// Copyright 2025 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strings"

	"github.com/go-git/go-git/v5"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

var (
	// validGitURLPattern matches valid git URLs (https, ssh, file)
	// Allows: https://github.com/user/repo.git, git@github.com:user/repo.git, file:///path/to/repo
	validGitURLPattern = regexp.MustCompile(`^(https?://|git@|ssh://|file://)[\w.\-@:/%]+$`)

	// dangerousCharsPattern matches characters that could be used for command injection
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)
)

// Retriever materializes the default branch of a repository at dest and
// returns the working copy path. On failure dest does not exist.
type Retriever interface {
	Clone(ctx context.Context, cloneURL, dest string) (string, error)
}

// GoGitRetriever clones in-process with go-git: single branch, no tags,
// shallow for network transports. file:// clones are full.
type GoGitRetriever struct {
	// Token, when set, is sent as HTTP basic auth password on http(s) clones.
	Token  string
	logger *slog.Logger
}

// NewGoGitRetriever creates the default retriever.
func NewGoGitRetriever(token string, logger *slog.Logger) *GoGitRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoGitRetriever{Token: token, logger: logger}
}

// Clone implements Retriever.
func (r *GoGitRetriever) Clone(ctx context.Context, cloneURL, dest string) (string, error) {
	if err := validateGitURL(cloneURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	opts := &git.CloneOptions{
		URL:          cloneURL,
		SingleBranch: true,
		Tags:         git.NoTags,
	}
	if !strings.HasPrefix(cloneURL, "file://") {
		opts.Depth = 1
	}
	if r.Token != "" && isHTTPURL(cloneURL) {
		opts.Auth = &githttp.BasicAuth{Username: "docsync", Password: r.Token}
	}

	logURL := redactURL(cloneURL)
	r.logger.Info("repo.clone.start", "url", logURL, "dest", dest, "method", "go-git")

	if _, err := git.PlainCloneContext(ctx, dest, false, opts); err != nil {
		_ = os.RemoveAll(dest) // clone already failed
		return "", fmt.Errorf("git clone %s: %w", logURL, err)
	}

	r.logger.Info("repo.clone.success", "url", logURL, "dest", dest)
	return dest, nil
}

// GitCLIRetriever shells out to the git binary. Useful where the server
// relies on git credential helpers or ssh agent configuration.
type GitCLIRetriever struct {
	// Binary defaults to "git".
	Binary string
	logger *slog.Logger
}

// NewGitCLIRetriever creates a retriever backed by the git command.
func NewGitCLIRetriever(logger *slog.Logger) *GitCLIRetriever {
	if logger == nil {
		logger = slog.Default()
	}
	return &GitCLIRetriever{Binary: "git", logger: logger}
}

// Clone implements Retriever.
func (r *GitCLIRetriever) Clone(ctx context.Context, cloneURL, dest string) (string, error) {
	// Validate URL to prevent command injection
	if err := validateGitURL(cloneURL); err != nil {
		return "", fmt.Errorf("invalid git URL: %w", err)
	}

	binary := r.Binary
	if binary == "" {
		binary = "git"
	}

	// #nosec G204 - cloneURL is validated above to prevent command injection
	cmd := exec.CommandContext(ctx, binary, "clone", "--depth", "1", "--single-branch", "--quiet", "--", cloneURL, dest)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logURL := redactURL(cloneURL)
	r.logger.Info("repo.clone.start", "url", logURL, "dest", dest, "method", "git-cli")

	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(dest)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("git clone failed: %w: %s", err, msg)
		}
		return "", fmt.Errorf("git clone failed: %w", err)
	}

	r.logger.Info("repo.clone.success", "url", logURL, "dest", dest)
	return dest, nil
}

// validateGitURL validates a git URL to prevent command injection.
// Returns an error if the URL is invalid or contains dangerous characters.
func validateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}

	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	if isHTTPURL(gitURL) {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		// Check for username:password@ in URL (credential leak risk)
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		if !validGitURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}

	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

func isHTTPURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}

// redactURL hides query params and user info for logging.
func redactURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}
