package identity

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/g3tzkp/go-g3node/config"
)

func TestGenerate(t *testing.T) {
	a, err := Generate()
	require.NoError(t, err)
	b, err := Generate()
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, NodeIDFromPublicKey(a.PublicKey()), a.ID())
	assert.False(t, a.ID().IsEmpty())
}

func TestFromSeed_Deterministic(t *testing.T) {
	seed := bytes.Repeat([]byte{7}, 32)
	a, err := FromSeed(seed)
	require.NoError(t, err)
	b, err := FromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, a.ID(), b.ID())

	_, err = FromSeed([]byte{1})
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestSignVerify(t *testing.T) {
	id, err := Generate()
	require.NoError(t, err)

	sig := id.Sign([]byte("hello"))
	assert.True(t, Verify(id.PublicKey(), []byte("hello"), sig))
	assert.False(t, Verify(id.PublicKey(), []byte("hellO"), sig))
	assert.False(t, Verify([]byte{1, 2}, []byte("hello"), sig))
}

func TestKeyFile_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	id, err := Generate()
	require.NoError(t, err)

	require.NoError(t, Save(id, path, nil))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, id.ID(), loaded.ID())
}

func TestKeyFile_Encrypted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	id, err := Generate()
	require.NoError(t, err)

	require.NoError(t, Save(id, path, []byte("secret")))

	_, err = Load(path, nil)
	assert.ErrorIs(t, err, ErrPassphraseRequired)

	_, err = Load(path, []byte("wrong"))
	assert.ErrorIs(t, err, ErrDecryptionFailed)

	loaded, err := Load(path, []byte("secret"))
	require.NoError(t, err)
	assert.Equal(t, id.ID(), loaded.ID())
}

func TestDecodeKeyFile_Invalid(t *testing.T) {
	_, err := DecodeKeyFile([]byte("nope"), nil)
	assert.ErrorIs(t, err, ErrInvalidKeyFile)

	_, err = DecodeKeyFile([]byte(keyFileMagic+"\x09\x00"), nil)
	assert.ErrorIs(t, err, ErrInvalidKeyFile)

	_, err = DecodeKeyFile([]byte(keyFileMagic+"\x01\x00abc"), nil)
	assert.ErrorIs(t, err, ErrInvalidKeySize)
}

func TestLoadOrGenerate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "node.key")

	_, err := LoadOrGenerate(path, nil, false)
	assert.ErrorIs(t, err, ErrKeyNotFound)

	first, err := LoadOrGenerate(path, nil, true)
	require.NoError(t, err)

	second, err := LoadOrGenerate(path, nil, true)
	require.NoError(t, err)
	assert.Equal(t, first.ID(), second.ID())

	ephemeral, err := LoadOrGenerate("", nil, true)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID(), ephemeral.ID())
}

func TestLoadOrGenerate_CorruptFileNotOverwritten(t *testing.T) {
	path := filepath.Join(t.TempDir(), "node.key")
	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0o600))

	_, err := LoadOrGenerate(path, nil, true)
	assert.ErrorIs(t, err, ErrInvalidKeyFile)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "garbage", string(data))
}

func TestModule_InjectedKey(t *testing.T) {
	want, err := Generate()
	require.NoError(t, err)

	var got *Identity
	app := fxtest.New(t,
		fx.Supply(config.NewConfig()),
		fx.Supply(fx.Annotated{Name: "identity_key", Target: want.PrivateKey()}),
		Module(),
		fx.Populate(&got),
	)
	app.RequireStart().RequireStop()

	assert.Equal(t, want.ID(), got.ID())
}
