package auth

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestToken_Keyring(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()

	require.NoError(t, SaveToken(dir, " secret \n"))
	assert.NoFileExists(t, filepath.Join(dir, tokenFileName))

	token, err := GetToken(dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	require.NoError(t, DeleteToken(dir))
	_, err = GetToken(dir)
	assert.ErrorIs(t, err, ErrNoToken)

	// deleting twice is fine
	require.NoError(t, DeleteToken(dir))
}

func TestToken_FileFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("no keychain"))
	dir := filepath.Join(t.TempDir(), "state")

	require.NoError(t, SaveToken(dir, "secret"))

	p := filepath.Join(dir, tokenFileName)
	info, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	token, err := GetToken(dir)
	require.NoError(t, err)
	assert.Equal(t, "secret", token)

	require.NoError(t, DeleteToken(dir))
	assert.NoFileExists(t, p)
}

func TestToken_MigratesFile(t *testing.T) {
	keyring.MockInit()
	dir := t.TempDir()
	p := filepath.Join(dir, tokenFileName)
	require.NoError(t, os.WriteFile(p, []byte("from-file\n"), 0600))

	token, err := GetToken(dir)
	require.NoError(t, err)
	assert.Equal(t, "from-file", token)
	assert.NoFileExists(t, p)

	stored, err := keyring.Get(keyringService, keyringUser)
	require.NoError(t, err)
	assert.Equal(t, "from-file", stored)
}

func TestSaveToken_Empty(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SaveToken(t.TempDir(), "  "))
}
