package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewClassifyCommand(&RootOptions{Format: "json"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"compt", "RadioactiveDecay", "Transportation", "StepLimiter"})

	require.NoError(t, cmd.Execute())

	var resp struct {
		Status string         `json:"status"`
		Data   ClassifyResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, []ClassifyEntry{
		{Name: "compt", Process: "compton", Category: "compton", Code: "COMP", Known: true},
		{Name: "RadioactiveDecay", Process: "radioactive_decay", Category: "radioactive_decay", Code: "DECA", Known: true},
		{Name: "Transportation", Process: "transportation", Category: "transportation", Code: "IONI", Known: true},
		{Name: "StepLimiter", Process: "uncovered", Category: "unknown", Code: "UNKN", Known: false},
	}, resp.Data.Entries)
}

func TestClassifyText(t *testing.T) {
	buf := &bytes.Buffer{}
	cmd := NewClassifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"phot", "eIoni"})

	require.NoError(t, cmd.Execute())
	assert.Equal(t, "NAME   PROCESS     CODE\nphot   photo       PHOT\neIoni  ionization  IONI\n", buf.String())
}

func TestClassifyRequiresName(t *testing.T) {
	cmd := NewClassifyCommand(&RootOptions{Format: "text"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}
