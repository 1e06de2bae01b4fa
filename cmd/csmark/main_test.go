package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cartSrc = `using System;

namespace Shop
{
    public class Cart
    {
        private int _count;

        public void Add() { _count++; }
    }
}
`

// run executes the CLI against a temporary project with an empty config.
func run(t *testing.T, root string, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(root, ".csmark.yaml")
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		require.NoError(t, os.WriteFile(cfgPath, []byte("color: never\n"), 0o644))
	}

	var out bytes.Buffer
	s := &settings{stdout: &out}
	cmd := newRootCmd(s)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, root, name, text string) string {
	t.Helper()
	path := filepath.Join(root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func TestParseLineFormat(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "Cart.cs", cartSrc)

	out, err := run(t, root, "parse", "--format", "line", "--no-trivia", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Shop.Cart.Add")
	assert.Contains(t, out, "Shop.Cart._count")
}

func TestParseSyntaxError(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "Broken.cs", "class C\n{\n    9Foo() { }\n}\n")

	_, err := run(t, root, "parse", path)
	require.Error(t, err)

	var msg bytes.Buffer
	reportError(&msg, err)
	assert.Contains(t, msg.String(), "^")
}

func TestShow(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "Cart.cs", cartSrc)

	out, err := run(t, root, "show", path, "Shop.Cart.Add")
	require.NoError(t, err)
	assert.Equal(t, "public void Add() { _count++; }\n", out)

	out, err = run(t, root, "show", "--preamble", path, "Shop.Cart._count")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "using System;\n\n"), out)
	assert.Contains(t, out, "private int _count;")

	_, err = run(t, root, "show", path, "Shop.Missing")
	assert.Error(t, err)
}

func TestScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "src/Cart.cs", cartSrc)
	writeFile(t, root, "src/Broken.cs", "class C { 9Foo() { } }\n")

	out, err := run(t, root, "scan", "--types", root)
	require.Error(t, err)
	assert.Contains(t, out, "parsed:    1")
	assert.Contains(t, out, "failed:    1")
	assert.Contains(t, out, "Cart")
	assert.Contains(t, out, filepath.Join("src", "Broken.cs"))
}

func TestVerify(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "Cart.cs", cartSrc)

	out, err := run(t, root, "verify", path)
	require.NoError(t, err)
	assert.Equal(t, "1 files agree\n", out)
}
