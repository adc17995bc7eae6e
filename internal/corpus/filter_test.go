package corpus

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsBot(t *testing.T) {
	for _, name := range []string{"bot", "TweetBot", "image_bot2", "xBOT123"} {
		assert.True(t, IsBot(name), name)
	}
	for _, name := range []string{"robotics_fan", "bottle", "alice", "bot_maker"} {
		assert.False(t, IsBot(name), name)
	}
}

func TestAuthorFilter_Keep(t *testing.T) {
	blocked := map[string]struct{}{"spammer": {}}

	strict := AuthorFilter{CleanDeleted: true, CleanBots: true, Blocked: blocked}
	assert.True(t, strict.Keep("alice"))
	assert.False(t, strict.Keep(DeletedAuthor))
	assert.False(t, strict.Keep("helperbot"))
	assert.False(t, strict.Keep("spammer"))

	lax := AuthorFilter{Blocked: blocked}
	assert.True(t, lax.Keep(DeletedAuthor))
	assert.True(t, lax.Keep("helperbot"))
	assert.True(t, lax.Keep("spammer"))

	deletedOnly := AuthorFilter{CleanDeleted: true, Blocked: blocked}
	assert.False(t, deletedOnly.Keep(DeletedAuthor))
	assert.True(t, deletedOnly.Keep("spammer"))
}

func TestLoadBlockedAuthors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "filtered_users.txt")
	require.NoError(t, os.WriteFile(path, []byte("spammer\t120\nnovelty_account\t3\n\n"), 0o644))

	blocked, err := LoadBlockedAuthors(path)
	require.NoError(t, err)
	assert.Len(t, blocked, 2)
	assert.Contains(t, blocked, "spammer")
	assert.Contains(t, blocked, "novelty_account")

	_, err = LoadBlockedAuthors(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}
