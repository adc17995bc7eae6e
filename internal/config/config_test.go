package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.True(t, cfg.Options().IDF)
	assert.Equal(t, 300, cfg.Extract.EmbeddingWidth)
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", FileName)

	cfg := Default()
	cfg.Data.Home = "/srv/reddit"
	cfg.Extract.IDF = false
	cfg.Extract.DeferParents = 500
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/srv/reddit", got.Data.Home)
	assert.False(t, got.Extract.IDF)
	assert.Equal(t, 500, got.Options().DeferParents)
	assert.Equal(t, filepath.Join(dir, "nested", "redditnetwork.db"), got.Store.Path)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("extract:\n  cleanBots: false\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Extract.CleanBots)
	assert.True(t, cfg.Extract.CleanDeleted)
	assert.Equal(t, filepath.Join(filepath.Dir(path), "data"), cfg.Data.Home)
	assert.Equal(t, filepath.Join(cfg.Data.Home, "filtered_users.txt"), cfg.FilteredUsersPath())
	assert.Equal(t, filepath.Join(cfg.Data.Home, "exclude_set.json"), cfg.ExcludeSetPath())
	assert.Equal(t, filepath.Join(cfg.Data.Home, "total_comment_counts.tsv"), cfg.SubredditListPath())
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("extract: [unclosed"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestResolveEnv(t *testing.T) {
	t.Setenv(EnvDataHome, "/env/data")
	t.Setenv(EnvStore, "/env/store.db")
	t.Setenv(EnvLogLevel, "debug")

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, Default()))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/env/data", cfg.Data.Home)
	assert.Equal(t, "/env/store.db", cfg.Store.Path)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadDotEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	assert.False(t, LoadDotEnv())

	t.Setenv(EnvDataHome, "")
	require.NoError(t, os.Unsetenv(EnvDataHome))
	t.Setenv(EnvLogLevel, "warn")
	require.NoError(t, os.WriteFile(".env", []byte(EnvDataHome+"=/srv/from-dotenv\n"+EnvLogLevel+"=debug\n"), 0o644))

	require.True(t, LoadDotEnv())
	assert.Equal(t, "/srv/from-dotenv", os.Getenv(EnvDataHome))
	assert.Equal(t, "warn", os.Getenv(EnvLogLevel))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Data.PostDocument = "body"
	cfg.Extract.EmbeddingWidth = 0
	cfg.Extract.Jobs = 0
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postDocument")
	assert.Contains(t, err.Error(), "embeddingWidth")
	assert.Contains(t, err.Error(), "jobs")
}

func TestLayout(t *testing.T) {
	cfg := Default()
	cfg.Data.Home = "/archive"
	cfg.Data.PostDocument = "text"
	l := cfg.Layout()
	assert.Equal(t, "/archive", l.Root)
	assert.Equal(t, "text", l.PostDocument)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(deep, 0o755))
	cfgPath := filepath.Join(root, FileName)
	require.NoError(t, Save(cfgPath, Default()))
	t.Chdir(deep)

	t.Setenv(EnvConfig, "")
	assert.Equal(t, "/explicit.yaml", Discover("/explicit.yaml"))

	found := Discover("")
	want, _ := filepath.EvalSymlinks(cfgPath)
	got, _ := filepath.EvalSymlinks(found)
	assert.Equal(t, want, got)

	t.Setenv(EnvConfig, "/from/env.yaml")
	assert.Equal(t, "/from/env.yaml", Discover("/explicit.yaml"))
}
