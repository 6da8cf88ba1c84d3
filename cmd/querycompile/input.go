package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// readEntries reads a descriptor list from path, or from stdin when path is "-".
// JSON is recognised by extension or by a leading bracket; anything else is YAML.
func readEntries(path string, stdin io.Reader) ([]map[string]any, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, err
	}

	var entries []map[string]any
	trimmed := bytes.TrimSpace(data)
	if strings.EqualFold(filepath.Ext(path), ".json") || bytes.HasPrefix(trimmed, []byte("[")) {
		err = json.Unmarshal(trimmed, &entries)
	} else {
		err = yaml.Unmarshal(trimmed, &entries)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", path)
	}
	return entries, nil
}
