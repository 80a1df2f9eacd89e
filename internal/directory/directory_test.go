package directory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
staff:
  - email: Joao.Silva@PC.SC.GOV.BR
    name: João da Silva
    registration: "123456-7"
    position: Agente de Polícia
    unit: DIC Florianópolis
  - email: ""
    name: ignored
`

func TestParseAndLookup(t *testing.T) {
	d, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, 1, d.Len())

	e, ok := d.Lookup(context.Background(), "joao.silva@pc.sc.gov.br")
	require.True(t, ok)
	assert.Equal(t, "João da Silva", e.Name)
	assert.Equal(t, "123456-7", e.Registration)
	assert.Equal(t, "DIC Florianópolis", e.Unit)

	_, ok = d.Lookup(context.Background(), "nobody@pc.sc.gov.br")
	assert.False(t, ok)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("staff: [unterminated"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	d, err := Load("")
	require.NoError(t, err)
	_, ok := d.Lookup(context.Background(), "x@pc.sc.gov.br")
	assert.False(t, ok)

	path := filepath.Join(t.TempDir(), "staff.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))
	d, err = Load(path)
	require.NoError(t, err)
	_, ok = d.Lookup(context.Background(), "JOAO.SILVA@pc.sc.gov.br")
	assert.True(t, ok)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
