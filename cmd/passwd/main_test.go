package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptions(t *testing.T) {
	o, err := parseOptions([]string{"-d", "postgres://x", "-user", "ana", "-create", "-email", "ana@example.com", "-role", "admin", "-role-id", "1"})
	require.NoError(t, err)
	assert.Equal(t, "ana", o.userName)

	tmpl := o.template()
	require.NotNil(t, tmpl)
	assert.Equal(t, "ana@example.com", tmpl.Email)
	assert.Equal(t, "admin", tmpl.RoleName)
	assert.Equal(t, int64(1), tmpl.RoleID)

	o, err = parseOptions([]string{"-user=bob"})
	require.NoError(t, err)
	assert.Nil(t, o.template())

	_, err = parseOptions([]string{"-d", "postgres://x"})
	require.Error(t, err)

	_, err = parseOptions([]string{"-user", "ana", "-role-id", "x"})
	require.Error(t, err)
}

func TestReadPassword_FromPipe(t *testing.T) {
	var out bytes.Buffer
	pw, err := readPassword(strings.NewReader("hunter22\r\nignored\n"), &out, false)
	require.NoError(t, err)
	assert.Equal(t, "hunter22", pw)
	assert.Empty(t, out.String())

	pw, err = readPassword(strings.NewReader("no-newline"), &out, false)
	require.NoError(t, err)
	assert.Equal(t, "no-newline", pw)
}
