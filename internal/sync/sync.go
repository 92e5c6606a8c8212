// Package sync resolves the configured JLPT library source to a local
// directory, fetching it first when the source is a git repository.
package sync

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/kotoba/internal/gitsource"
)

// IsGitSource reports whether source looks like a git remote rather than a
// local path.
func IsGitSource(source string) bool {
	return strings.HasSuffix(source, ".git") || strings.HasPrefix(source, "git@") ||
		strings.HasPrefix(source, "https://") || strings.HasPrefix(source, "http://") ||
		strings.HasPrefix(source, "file://")
}

// Resolve returns the local directory holding the library files. Git
// sources are cloned or pulled under reposDir first.
func Resolve(ctx context.Context, source, reposDir string, progress io.Writer) (string, error) {
	if source == "" {
		return "", fmt.Errorf("no library source configured")
	}

	if !IsGitSource(source) {
		info, err := os.Stat(source)
		if err != nil {
			return "", fmt.Errorf("library source %s: %w", source, err)
		}
		if !info.IsDir() {
			return "", fmt.Errorf("library source %s is not a directory", source)
		}
		slog.Info("Using local library source", "path", source)
		return source, nil
	}

	localPath, err := gitUrlToLocalPath(reposDir, source)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(localPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create repos directory: %w", err)
	}
	if err := gitsource.Sync(ctx, source, localPath, progress); err != nil {
		return "", err
	}
	return localPath, nil
}

func gitUrlToLocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http" && parsedURL.Scheme != "file") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
