package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/methodlens/methodlens/internal/version"
)

func TestVersion(t *testing.T) {
	// Version package should provide version info
	if version.Short() == "" {
		t.Error("version should not be empty")
	}
}

func TestVersionCommand_Short(t *testing.T) {
	cmd := NewVersionCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--short"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, version.Short(), strings.TrimSpace(buf.String()))
}

func TestInitCommand_WritesConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".methodlens.toml")

	cmd := NewInitCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--config", configPath})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(configPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[detection]")
	assert.Contains(t, string(data), "[matching]")
}

func TestInitCommand_RefusesToOverwriteWithoutForce(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ".methodlens.toml")
	require.NoError(t, os.WriteFile(configPath, []byte("existing"), 0o644))

	cmd := NewInitCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", configPath})

	assert.Error(t, cmd.Execute())
}

func TestClonesCommand_EndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	snapshot := filepath.Join(tmpDir, "r001.csv")
	csvData := "block_id,file_path,start_line,end_line,function_name,return_type,parameters,token_hash,token_sequence\n" +
		"a,f.py,1,10,fn_a,,,h1,[1;2;3;4;5;6;7;8]\n" +
		"b,g.py,1,10,fn_b,,,h2,[1;2;3;4;5;6;7;8]\n" +
		"c,h.py,1,10,fn_c,,,h3,[100;200;300;400;500;600]\n"
	require.NoError(t, os.WriteFile(snapshot, []byte(csvData), 0o644))

	cmd := NewClonesCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{snapshot, "--format", "csv"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "group_id,size,members,avg_similarity,density")
	assert.Contains(t, out, "a;b")
}

func TestTrackCommand_EndToEnd(t *testing.T) {
	tmpDir := t.TempDir()
	header := "block_id,file_path,start_line,end_line,function_name,return_type,parameters,token_hash,token_sequence\n"
	r1 := header + "a,f.py,1,10,fn,,,same,[1;2;3;4;5;6]\n"
	r2 := header + "a2,f.py,1,10,fn,,,same,[1;2;3;4;5;6]\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "r001.csv"), []byte(r1), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "r002.csv"), []byte(r2), 0o644))

	cmd := NewTrackCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{tmpDir, "--format", "csv", "--no-progress"})

	require.NoError(t, cmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "a,a2,token_hash,100")
	assert.Contains(t, out, "# lineage")
	// The same global id appears in both revisions.
	lines := strings.Split(strings.TrimSpace(out), "\n")
	var lineageRows []string
	for _, line := range lines {
		if strings.HasPrefix(line, "r00") {
			lineageRows = append(lineageRows, line)
		}
	}
	require.Len(t, lineageRows, 2)
	idOf := func(row string) string { return row[strings.LastIndex(row, ",")+1:] }
	assert.Equal(t, idOf(lineageRows[0]), idOf(lineageRows[1]))
}

func TestTrackCommand_MissingPathFails(t *testing.T) {
	cmd := NewTrackCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"/no/such/snapshot.csv"})

	assert.Error(t, cmd.Execute())
}
