package data_quality

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceFilesCarryModuleHeader(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)

	for _, f := range files {
		if strings.HasSuffix(f, "_test.go") {
			continue
		}
		data, err := os.ReadFile(f)
		require.NoError(t, err)
		want := "/*\n * @module service/data_quality/" + strings.TrimSuffix(f, ".go") + "\n"
		assert.True(t, strings.HasPrefix(string(data), want), "%s lacks module header", f)
	}
}
