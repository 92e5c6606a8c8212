package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

func TestSyncExistingPathMustBeRepository(t *testing.T) {
	dir := t.TempDir()
	err := Sync(context.Background(), "https://example.com/words.git", dir, nil)
	if err == nil {
		t.Fatal("Expected an error for a directory that is not a repository")
	}
	if !strings.Contains(err.Error(), "failed to open existing repo") {
		t.Errorf("Unexpected error: %v", err)
	}
}

func TestSyncPullWithoutRemote(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "words")
	if _, err := git.PlainInit(dir, false); err != nil {
		t.Fatalf("PlainInit() returned an unexpected error: %v", err)
	}

	err := Sync(context.Background(), "https://example.com/words.git", dir, nil)
	if err == nil || !strings.Contains(err.Error(), "failed to pull changes") {
		t.Errorf("Expected a pull failure for a repo without origin, but got %v", err)
	}
}

// commitFile writes name into the worktree at dir and commits it.
func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		t.Fatalf("Worktree() returned an unexpected error: %v", err)
	}
	if _, err := wt.Add(name); err != nil {
		t.Fatalf("Add() returned an unexpected error: %v", err)
	}
	_, err = wt.Commit("add "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "kotoba", Email: "kotoba@example.com", When: time.Now()},
	})
	if err != nil {
		t.Fatalf("Commit() returned an unexpected error: %v", err)
	}
}

func TestSyncCloneThenPull(t *testing.T) {
	// The file transport shells out to git-upload-pack.
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	upstream := filepath.Join(t.TempDir(), "words")
	repo, err := git.PlainInit(upstream, false)
	if err != nil {
		t.Fatalf("PlainInit() returned an unexpected error: %v", err)
	}
	commitFile(t, repo, upstream, "N5_vocabulary.md", "| 一 | いち | one |\n")

	url := "file://" + filepath.ToSlash(upstream)
	local := filepath.Join(t.TempDir(), "clone")

	if err := Sync(context.Background(), url, local, nil); err != nil {
		t.Fatalf("Sync() clone returned an unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(local, "N5_vocabulary.md")); err != nil {
		t.Fatalf("Expected the cloned file, but got %v", err)
	}

	t.Run("already up to date", func(t *testing.T) {
		if err := Sync(context.Background(), url, local, nil); err != nil {
			t.Errorf("Sync() returned an unexpected error: %v", err)
		}
	})

	t.Run("pull picks up new commits", func(t *testing.T) {
		commitFile(t, repo, upstream, "N4_vocabulary.md", "| 昼 | ひる | noon |\n")
		if err := Sync(context.Background(), url, local, nil); err != nil {
			t.Fatalf("Sync() pull returned an unexpected error: %v", err)
		}
		if _, err := os.Stat(filepath.Join(local, "N4_vocabulary.md")); err != nil {
			t.Errorf("Expected the pulled file, but got %v", err)
		}
	})
}
