/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/storekit"
)

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "storekit.yaml")
	content := fmt.Sprintf(`connection:
  type: sqlite
  dbname: %s
  slow_query_time: 1s
logging:
  level: error
`, filepath.Join(dir, "demo.db"))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, config string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", config}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--help"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "demo")
	assert.Contains(t, out.String(), "--log-level")
}

func TestDemoCommands(t *testing.T) {
	config := writeConfig(t)

	out, err := run(t, config, "init")
	require.NoError(t, err)
	assert.Contains(t, out, "table(s)")

	out, err = run(t, config, "demo", "create", "Alpha")
	require.NoError(t, err)
	assert.Equal(t, "1\tAlpha\n", out)

	out, err = run(t, config, "demo", "seed", "Beta", "alpha2")
	require.NoError(t, err)
	assert.Equal(t, "2\tBeta\n3\talpha2\n", out)

	out, err = run(t, config, "demo", "get", "2")
	require.NoError(t, err)
	assert.Equal(t, "2\tBeta\n", out)

	out, err = run(t, config, "demo", "search", "--name", "alpha")
	require.NoError(t, err)
	assert.Equal(t, "1\tAlpha\n3\talpha2\npage 1/1, 2 total\n", out)

	out, err = run(t, config, "demo", "search", "--order-by", "name", "--desc", "--size", "2", "--page", "2")
	require.NoError(t, err)
	assert.Equal(t, "1\tAlpha\npage 2/2, 3 total\n", out)

	out, err = run(t, config, "demo", "update", "2", "Gamma")
	require.NoError(t, err)
	assert.Equal(t, "2\tGamma\n", out)

	out, err = run(t, config, "demo", "delete", "1")
	require.NoError(t, err)
	assert.Equal(t, "deleted 1\n", out)

	out, err = run(t, config, "demo", "list")
	require.NoError(t, err)
	assert.Equal(t, "2\tGamma\n3\talpha2\n", out)
}

func TestDemoCommands_Errors(t *testing.T) {
	config := writeConfig(t)
	_, err := run(t, config, "init")
	require.NoError(t, err)

	_, err = run(t, config, "demo", "get", "99")
	assert.ErrorIs(t, err, storekit.ErrNotFound)

	_, err = run(t, config, "demo", "delete", "abc")
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "invalid demo id"))

	_, err = run(t, config, "demo", "create")
	assert.Error(t, err)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("connection:\n  type: oracle\n  dbname: x\n"), 0o600))

	_, err := run(t, path, "init")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Type")
}
